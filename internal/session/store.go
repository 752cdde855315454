// Package session persists the authenticated slice of client state: the
// bearer token and the signed-in user. Nothing else survives a restart.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/jehnsen/admin-suite/internal/entity"
)

// ErrNoSession indicates nothing is persisted.
var ErrNoSession = errors.New("session: not found")

// Auth is the persisted auth slice.
type Auth struct {
	User            entity.User `json:"user"`
	Token           string      `json:"token"`
	IsAuthenticated bool        `json:"isAuthenticated"`
}

// Store loads, saves and purges the auth slice.
type Store interface {
	Load(ctx context.Context) (Auth, error)
	Save(ctx context.Context, auth Auth) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the auth slice in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	auth *Auth
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored slice or ErrNoSession.
func (s *MemoryStore) Load(ctx context.Context) (Auth, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.auth == nil {
		return Auth{}, ErrNoSession
	}
	return *s.auth, nil
}

// Save replaces the stored slice.
func (s *MemoryStore) Save(ctx context.Context, auth Auth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = &auth
	return nil
}

// Clear purges the stored slice.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = nil
	return nil
}

type ctxKey struct{}

// WithAuth scopes auth to ctx. Backend calls made with the returned context
// carry auth.Token in place of whatever the store holds.
func WithAuth(ctx context.Context, auth Auth) context.Context {
	return context.WithValue(ctx, ctxKey{}, auth)
}

// FromContext returns the auth scoped to ctx by WithAuth.
func FromContext(ctx context.Context) (Auth, bool) {
	auth, ok := ctx.Value(ctxKey{}).(Auth)
	if !ok || !auth.IsAuthenticated || auth.Token == "" {
		return Auth{}, false
	}
	return auth, true
}

// Token returns the token scoped to ctx, else the stored one. It is empty
// when signed out.
func Token(ctx context.Context, store Store) string {
	if auth, ok := FromContext(ctx); ok {
		return auth.Token
	}
	if store == nil {
		return ""
	}
	auth, err := store.Load(ctx)
	if err != nil || !auth.IsAuthenticated {
		return ""
	}
	return auth.Token
}
