package auth

import (
	"errors"
	"fmt"
	"sync"
)

// Backend names accepted by Open
const (
	BackendKeyring = "keyring"
	BackendFile    = "file"
)

// TokenStore defines the interface for token storage operations.
// Tokens are keyed by server URL so one user can be signed in to several servers.
type TokenStore interface {
	SaveToken(serverURL, token string) error
	LoadToken(serverURL string) (string, error)
	DeleteToken(serverURL string) error
}

// Open returns the token store for the named backend. An empty name selects the keyring.
func Open(backend string) (TokenStore, error) {
	switch backend {
	case "", BackendKeyring:
		return KeyringStore{}, nil
	case BackendFile:
		path, err := DefaultTokenFilePath()
		if err != nil {
			return nil, err
		}
		return NewFileStore(path), nil
	default:
		return nil, fmt.Errorf("unknown token store %q (expected %q or %q)", backend, BackendKeyring, BackendFile)
	}
}

// ServerToken binds a TokenStore to one server. It satisfies the session's
// persisted token slot: a missing token loads as "".
type ServerToken struct {
	Store     TokenStore
	ServerURL string
}

func (s ServerToken) Load() (string, error) {
	token, err := s.Store.LoadToken(s.ServerURL)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return token, err
}

func (s ServerToken) Save(token string) error {
	return s.Store.SaveToken(s.ServerURL, token)
}

func (s ServerToken) Clear() error {
	return s.Store.DeleteToken(s.ServerURL)
}

// MemoryStore keeps tokens in process memory
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]string)}
}

func (m *MemoryStore) SaveToken(serverURL, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[serverURL] = token
	return nil
}

func (m *MemoryStore) LoadToken(serverURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, exists := m.tokens[serverURL]
	if !exists {
		return "", ErrNotFound
	}
	return token, nil
}

func (m *MemoryStore) DeleteToken(serverURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, serverURL)
	return nil
}
