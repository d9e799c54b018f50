package session

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"testing"

	"github.com/desertthunder/bpmx/internal/models"
	"github.com/desertthunder/bpmx/internal/repositories"
	"github.com/desertthunder/bpmx/internal/shared"
)

var validSession = models.Session{Token: "tok-abc", Email: "dj@example.com", Plan: models.PlanFree}

// failingStore fails every operation with err.
type failingStore struct{ err error }

func (f failingStore) Load(context.Context) (map[string]string, error) { return nil, f.err }
func (f failingStore) SaveAll(context.Context, map[string]string) error { return f.err }
func (f failingStore) DeleteAll(context.Context, ...string) error       { return f.err }

func newManager(store repositories.CredentialStore) *Manager {
	return NewManager(store, shared.NewLogger(io.Discard))
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("RestoreEmpty", func(t *testing.T) {
		m := newManager(repositories.NewMemoryCredentialStore())
		if s := m.Restore(ctx); s != nil {
			t.Errorf("expected no session, got %+v", s)
		}
		if m.Authenticated() {
			t.Error("expected unauthenticated manager")
		}
	})

	t.Run("EstablishThenRestore", func(t *testing.T) {
		store := repositories.NewMemoryCredentialStore()
		m := newManager(store)

		if err := m.Establish(ctx, validSession); err != nil {
			t.Fatalf("failed to establish: %v", err)
		}

		restored := newManager(store).Restore(ctx)
		if restored == nil || *restored != validSession {
			t.Errorf("expected %+v, got %+v", validSession, restored)
		}
	})

	t.Run("RestorePartial", func(t *testing.T) {
		tt := []struct {
			name   string
			values map[string]string
		}{
			{name: "MissingToken", values: map[string]string{"email": "a@b.c", "plan": "free"}},
			{name: "MissingEmail", values: map[string]string{"token": "t", "plan": "free"}},
			{name: "MissingPlan", values: map[string]string{"token": "t", "email": "a@b.c"}},
			{name: "EmptyToken", values: map[string]string{"token": "", "email": "a@b.c", "plan": "free"}},
			{name: "UnknownPlan", values: map[string]string{"token": "t", "email": "a@b.c", "plan": "gold"}},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				store := repositories.NewMemoryCredentialStore()
				_ = store.SaveAll(ctx, tc.values)

				if s := newManager(store).Restore(ctx); s != nil {
					t.Errorf("expected no session, got %+v", s)
				}
			})
		}
	})

	t.Run("RestoreStorageFailure", func(t *testing.T) {
		m := newManager(failingStore{err: errors.New("disk gone")})
		if s := m.Restore(ctx); s != nil {
			t.Errorf("expected no session, got %+v", s)
		}
	})

	t.Run("EstablishRejectsInvalid", func(t *testing.T) {
		m := newManager(repositories.NewMemoryCredentialStore())
		err := m.Establish(ctx, models.Session{Token: "t"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("EstablishStorageFailure", func(t *testing.T) {
		m := newManager(failingStore{err: errors.New("read-only")})
		if err := m.Establish(ctx, validSession); err == nil {
			t.Fatal("expected storage error")
		}
		if m.Authenticated() {
			t.Error("session must not change when persisting fails")
		}
	})

	t.Run("InvalidateRunsHooks", func(t *testing.T) {
		m := newManager(repositories.NewMemoryCredentialStore())
		_ = m.Establish(ctx, validSession)

		calls := 0
		m.OnInvalidate(func() { calls++ })
		m.OnInvalidate(func() { calls++ })

		if err := m.Invalidate(ctx); err != nil {
			t.Fatalf("failed to invalidate: %v", err)
		}
		if calls != 2 {
			t.Errorf("expected 2 hook calls, got %d", calls)
		}
		if m.Authenticated() {
			t.Error("expected no session after invalidate")
		}
	})

	t.Run("InvalidateStorageFailure", func(t *testing.T) {
		m := newManager(failingStore{err: errors.New("locked")})
		called := false
		m.OnInvalidate(func() { called = true })

		if err := m.Invalidate(ctx); err == nil {
			t.Error("expected storage error")
		}
		if !called {
			t.Error("hooks should run even when removal fails")
		}
	})

	t.Run("Matches", func(t *testing.T) {
		m := newManager(repositories.NewMemoryCredentialStore())
		if m.Matches("tok-abc") {
			t.Error("no session should match nothing")
		}

		_ = m.Establish(ctx, validSession)
		if !m.Matches("tok-abc") {
			t.Error("expected current token to match")
		}
		if m.Matches("tok-other") {
			t.Error("expected other token not to match")
		}
	})

	t.Run("Revoke", func(t *testing.T) {
		store := repositories.NewMemoryCredentialStore()
		m := newManager(store)
		_ = m.Establish(ctx, validSession)

		calls := 0
		m.OnInvalidate(func() { calls++ })

		revoked, err := m.Revoke(ctx, "tok-other")
		if err != nil || revoked {
			t.Fatalf("expected other token to leave the session alone, got %v %v", revoked, err)
		}
		if !m.Matches("tok-abc") || calls != 0 {
			t.Error("session and hooks must be untouched")
		}

		revoked, err = m.Revoke(ctx, "tok-abc")
		if err != nil || !revoked {
			t.Fatalf("expected current token to be revoked, got %v %v", revoked, err)
		}
		if m.Authenticated() || calls != 1 {
			t.Errorf("expected cleared session and one hook call, got %d", calls)
		}
		if values, _ := store.Load(ctx); len(values) != 0 {
			t.Errorf("expected stored credentials removed, got %v", values)
		}

		if revoked, _ := m.Revoke(ctx, "tok-abc"); revoked {
			t.Error("nothing left to revoke")
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		store := repositories.NewMemoryCredentialStore()
		m := newManager(store)

		_ = m.Establish(ctx, validSession)
		_ = m.Invalidate(ctx)

		if s := newManager(store).Restore(ctx); s != nil {
			t.Errorf("expected no session after establish+invalidate, got %+v", s)
		}
	})
}

// TestManagerSequences checks that restore reflects only the last terminal operation
// for random establish/invalidate sequences, against both store implementations.
func TestManagerSequences(t *testing.T) {
	ctx := context.Background()
	sessions := []models.Session{
		validSession,
		{Token: "tok-2", Email: "b@example.com", Plan: models.PlanPro},
		{Token: "tok-3", Email: "c@example.com", Plan: models.PlanFree},
	}

	stores := map[string]func(t *testing.T) repositories.CredentialStore{
		"Memory": func(*testing.T) repositories.CredentialStore { return repositories.NewMemoryCredentialStore() },
		"SQLite": func(t *testing.T) repositories.CredentialStore {
			db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: ":memory:"})
			if err != nil {
				t.Fatalf("failed to open database: %v", err)
			}
			t.Cleanup(func() { db.Close() })
			return repositories.NewCredentialRepository(db)
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(1, 2))
			for range 50 {
				store := newStore(t)
				m := newManager(store)

				var want *models.Session
				for range rng.IntN(8) + 1 {
					if rng.IntN(2) == 0 {
						s := sessions[rng.IntN(len(sessions))]
						if err := m.Establish(ctx, s); err != nil {
							t.Fatalf("failed to establish: %v", err)
						}
						want = &s
					} else {
						if err := m.Invalidate(ctx); err != nil {
							t.Fatalf("failed to invalidate: %v", err)
						}
						want = nil
					}
				}

				got := newManager(store).Restore(ctx)
				switch {
				case want == nil && got != nil:
					t.Fatalf("expected no session, got %+v", got)
				case want != nil && (got == nil || *got != *want):
					t.Fatalf("expected %+v, got %+v", want, got)
				}
			}
		})
	}
}
