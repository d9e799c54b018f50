package repositories

import (
	"context"
	"maps"
	"sync"
)

// Credential keys persisted for an authenticated session.
const (
	KeyToken = "token"
	KeyEmail = "email"
	KeyPlan  = "plan"
)

// SessionKeys lists every key written by a session group.
var SessionKeys = []string{KeyToken, KeyEmail, KeyPlan}

// CredentialStore is durable key/value storage for the session group.
//
// SaveAll and DeleteAll apply to every given key or to none of them.
type CredentialStore interface {
	Load(ctx context.Context) (map[string]string, error)
	SaveAll(ctx context.Context, values map[string]string) error
	DeleteAll(ctx context.Context, keys ...string) error
}

// MemoryCredentialStore keeps credentials for the lifetime of the process.
type MemoryCredentialStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryCredentialStore creates an empty [MemoryCredentialStore].
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{values: make(map[string]string)}
}

// Load returns a copy of the stored values.
func (s *MemoryCredentialStore) Load(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.values), nil
}

func (s *MemoryCredentialStore) SaveAll(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.values, values)
	return nil
}

func (s *MemoryCredentialStore) DeleteAll(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}
