package auth

import (
	"os"
	"path/filepath"
	"strings"
)

// TokenStore persists the raw credential string across process runs, the way
// the browser app kept it in local storage. A missing or unreadable store is
// "not authenticated", never an error.
type TokenStore struct {
	path string
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Save overwrites any previously stored credential. The token format is not
// validated here.
func (s *TokenStore) Save(token string) error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token), 0o600)
}

// Read returns the stored credential, or "" when none exists or the storage
// medium is unavailable.
func (s *TokenStore) Read() string {
	if s.path == "" {
		return ""
	}
	content, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(content))
}

// Clear removes the stored credential. Clearing an empty store is a no-op.
func (s *TokenStore) Clear() error {
	if s.path == "" {
		return nil
	}
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
