package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

// MemoryBackend is an in-process backend for tests.
type MemoryBackend struct {
	values map[string]string
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (m *MemoryBackend) Get(key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *MemoryBackend) Set(key, value string) error {
	m.values[key] = value
	return nil
}

func (m *MemoryBackend) Delete(key string) error {
	delete(m.values, key)
	return nil
}

// Keys returns the keys currently held. Test helper.
func (m *MemoryBackend) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	return keys
}

// FileBackend stores session data as a JSON object in a single file, one
// file per host. This is the CLI analog of per-origin localStorage.
// Reads and writes are whole-file with no locking; two processes racing a
// login and a logout can leave either final state, which is accepted.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend at the given path. The parent directory
// is created on first write.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// DefaultSessionPath returns the session file path for a host under the
// user's config directory.
func DefaultSessionPath(appName, host string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appName, "sessions", host+".json"), nil
}

func (f *FileBackend) Get(key string) (string, error) {
	values, err := f.load()
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (f *FileBackend) Set(key, value string) error {
	values, err := f.load()
	if err != nil {
		return err
	}
	values[key] = value
	return f.save(values)
}

func (f *FileBackend) Delete(key string) error {
	values, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.save(values)
}

func (f *FileBackend) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return values, nil
}

func (f *FileBackend) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	// Credentials live here, keep the file private
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// KeyringBackend stores session data in the OS keychain/credential
// manager, one entry per key scoped to a host.
type KeyringBackend struct {
	service string
	host    string
}

// NewKeyringBackend creates a keyring-backed store for the given host.
func NewKeyringBackend(service, host string) *KeyringBackend {
	return &KeyringBackend{service: service, host: host}
}

func (k *KeyringBackend) entry(key string) string {
	return fmt.Sprintf("%s-%s", key, k.host)
}

func (k *KeyringBackend) Get(key string) (string, error) {
	value, err := keyring.Get(k.service, k.entry(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load from keyring: %w", err)
	}
	return value, nil
}

func (k *KeyringBackend) Set(key, value string) error {
	if err := keyring.Set(k.service, k.entry(key), value); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

func (k *KeyringBackend) Delete(key string) error {
	if err := keyring.Delete(k.service, k.entry(key)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}
