package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const tokenFileName = "tokens.json"

// DefaultTokenFilePath returns ~/.config/querydesk/tokens.json
func DefaultTokenFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "querydesk", tokenFileName), nil
}

// FileStore persists tokens in a 0600 JSON file, for machines without a keyring.
// Writes are last-write-wins.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) SaveToken(serverURL, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.read()
	if err != nil {
		return err
	}
	tokens[normalize(serverURL)] = token
	return f.write(tokens)
}

func (f *FileStore) LoadToken(serverURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.read()
	if err != nil {
		return "", err
	}
	token, ok := tokens[normalize(serverURL)]
	if !ok || token == "" {
		return "", ErrNotFound
	}
	return token, nil
}

func (f *FileStore) DeleteToken(serverURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.read()
	if err != nil {
		return err
	}
	key := normalize(serverURL)
	if _, ok := tokens[key]; !ok {
		return nil
	}
	delete(tokens, key)
	return f.write(tokens)
}

func (f *FileStore) read() (map[string]string, error) {
	tokens := make(map[string]string)

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return tokens, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	if len(data) == 0 {
		return tokens, nil
	}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return tokens, nil
}

func (f *FileStore) write(tokens map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

func normalize(serverURL string) string {
	return strings.TrimRight(serverURL, "/")
}
