package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docq/internal/shared"
)

// tokenFileName is the fixed name of the persistence slot under the config dir.
const tokenFileName = "token"

// TokenStore persists the bearer token as a single file. An absent file means
// logged-out. The store is the only writer of the slot; every other component
// reads the token through the session controller.
type TokenStore struct {
	path string
}

// NewTokenStore creates a token store at path. An empty path places the slot
// at ~/.docq/token, falling back to ./.docq/token when the home directory
// cannot be resolved.
func NewTokenStore(path string) *TokenStore {
	if path == "" {
		if dir, err := shared.ConfigDir(); err == nil {
			path = filepath.Join(dir, tokenFileName)
		} else {
			path = filepath.Join(".docq", tokenFileName)
		}
	}
	return &TokenStore{path: path}
}

// Path returns the location of the persistence slot.
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the stored token. A missing slot returns an empty token and no error.
func (s *TokenStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token to the slot, creating parent directories as needed.
func (s *TokenStore) Save(token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidArgument)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// Clear removes the slot. Clearing an already-absent slot is not an error.
func (s *TokenStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}
