// Package session holds the bearer credential for the current user across
// process restarts, the way a browser keeps it in localStorage across page
// reloads. The storage backend is injected so tests never touch the real
// keyring or filesystem.
package session

import (
	"errors"
	"fmt"
	"sync"
)

// Storage keys owned by this application. Clear removes exactly these;
// unrelated keys sharing a backend are never touched.
const (
	KeyAccessToken = "access_token"
	KeyCSRFToken   = "csrf_token"
	KeyAuthUser    = "auth_user"
	KeyTenantInfo  = "tenant_info"
	KeySessionID   = "session_id"
)

// AuthKeys enumerates every key Clear removes.
var AuthKeys = []string{
	KeyAccessToken,
	KeyCSRFToken,
	KeyAuthUser,
	KeyTenantInfo,
	KeySessionID,
}

// ErrNotFound is returned when a key has never been set.
var ErrNotFound = errors.New("session: not found")

// Backend is a durable key/value store for session data.
type Backend interface {
	Get(key string) (string, error)
	Set(key, value string) error
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error
}

// Store caches the credential in memory and writes through to a durable
// backend. At most one credential is live per store.
type Store struct {
	mu      sync.Mutex
	backend Backend
	cache   map[string]string
}

// NewStore creates a session store over the given backend.
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		cache:   make(map[string]string),
	}
}

// Save persists the credential, replacing any prior value.
func (s *Store) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Set(KeyAccessToken, token); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	s.cache[KeyAccessToken] = token
	return nil
}

// Read returns the credential, hydrating the memory cache from the backend
// on first use. Returns ErrNotFound if no credential was ever saved.
func (s *Store) Read() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.cache[KeyAccessToken]; ok {
		return token, nil
	}

	token, err := s.backend.Get(KeyAccessToken)
	if err != nil {
		return "", err
	}
	s.cache[KeyAccessToken] = token
	return token, nil
}

// Clear removes every auth-related key from memory and durable storage.
// Clearing an already-empty store is a no-op, not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, key := range AuthKeys {
		delete(s.cache, key)
		if err := s.backend.Delete(key); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	return firstErr
}
