package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	service = "querydesk-cli"
)

// ErrNotFound is returned when no token is stored for a server
var ErrNotFound = errors.New("not authenticated. Please run 'querydesk login' first")

// getKeyringKey returns a unique key for storing tokens per server
func getKeyringKey(serverURL string) string {
	return fmt.Sprintf("token-%s", strings.TrimRight(serverURL, "/"))
}

// KeyringStore persists tokens in the OS keychain/credential manager
type KeyringStore struct{}

// SaveToken persists the token securely in the OS keychain/credential manager
func (KeyringStore) SaveToken(serverURL, token string) error {
	key := getKeyringKey(serverURL)
	if err := keyring.Set(service, key, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the token from the OS keychain/credential manager
func (KeyringStore) LoadToken(serverURL string) (string, error) {
	key := getKeyringKey(serverURL)
	token, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the token from the OS keychain/credential manager
func (KeyringStore) DeleteToken(serverURL string) error {
	key := getKeyringKey(serverURL)
	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
