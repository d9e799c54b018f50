// Package session holds the single authenticated identity of the client.
//
// A [Manager] keeps the in-memory [models.Session] and its durable copy in a
// [repositories.CredentialStore] in agreement: the three credential keys are written
// or removed as one group, and the in-memory value changes only after storage does.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bpmx/internal/models"
	"github.com/desertthunder/bpmx/internal/repositories"
	"github.com/desertthunder/bpmx/internal/shared"
)

// Manager owns the current session. Safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	store   repositories.CredentialStore
	current *models.Session
	hooks   []func()
	logger  *log.Logger
}

// NewManager creates a [Manager] with no session. Call [Manager.Restore] to load a stored one.
func NewManager(store repositories.CredentialStore, logger *log.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// Restore loads the stored session. Missing or partial credentials, an unknown plan,
// or a storage failure all yield nil.
func (m *Manager) Restore(ctx context.Context) *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	values, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("failed to read stored credentials", "error", err)
		m.current = nil
		return nil
	}

	plan, err := models.ParsePlan(values[repositories.KeyPlan])
	if err != nil {
		m.current = nil
		return nil
	}

	s := models.Session{
		Token: values[repositories.KeyToken],
		Email: values[repositories.KeyEmail],
		Plan:  plan,
	}
	if !s.Valid() {
		m.current = nil
		return nil
	}

	m.current = &s
	m.logger.Debug("session restored", "email", s.Email, "plan", s.Plan)
	return &s
}

// Establish persists s and makes it current. Storage failure leaves the previous session in place.
func (m *Manager) Establish(ctx context.Context, s models.Session) error {
	if !s.Valid() {
		return fmt.Errorf("%w: session requires token, email and plan", shared.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.store.SaveAll(ctx, map[string]string{
		repositories.KeyToken: s.Token,
		repositories.KeyEmail: s.Email,
		repositories.KeyPlan:  s.Plan.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	m.current = &s
	m.logger.Info("session established", "email", s.Email, "plan", s.Plan)
	return nil
}

// Invalidate removes the stored credentials, clears the current session and runs the
// registered hooks. Hooks run even when removal fails; the error is still returned.
func (m *Manager) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	return m.invalidateLocked(ctx)
}

// Revoke invalidates the session only while token is still the current one, and
// reports whether it did. A session established in the meantime is left alone.
func (m *Manager) Revoke(ctx context.Context, token string) (bool, error) {
	m.mu.Lock()
	if m.current == nil || m.current.Token != token {
		m.mu.Unlock()
		return false, nil
	}
	return true, m.invalidateLocked(ctx)
}

// invalidateLocked must be called with m.mu held; it releases it before running hooks.
func (m *Manager) invalidateLocked(ctx context.Context) error {
	err := m.store.DeleteAll(ctx, repositories.SessionKeys...)
	m.current = nil
	hooks := append([]func(){}, m.hooks...)
	m.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}

	if err != nil {
		m.logger.Warn("failed to remove stored credentials", "error", err)
		return fmt.Errorf("failed to remove session: %w", err)
	}

	m.logger.Info("session invalidated")
	return nil
}

// OnInvalidate registers fn to run after every [Manager.Invalidate].
func (m *Manager) OnInvalidate(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Current returns a copy of the active session.
func (m *Manager) Current() (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return models.Session{}, false
	}
	return *m.current, true
}

func (m *Manager) Authenticated() bool {
	_, ok := m.Current()
	return ok
}

// Matches reports whether token belongs to the active session.
func (m *Manager) Matches(token string) bool {
	s, ok := m.Current()
	return ok && s.Token == token
}
