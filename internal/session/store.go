package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"drivemover/internal/services"
)

// RemediationHint tells the operator how to recover from an expired session.
const RemediationHint = "log in to 115 in a browser, copy the full cookie into COOKIE (or the cookie file), and restart"

// CookieStore abstracts persistence for the session cookie.
type CookieStore interface {
	Load() (string, error)
	Save(cookie string) error
}

// FileStore keeps the cookie in a plain text file.
type FileStore struct {
	path string
}

// NewFileStore builds a FileStore at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the cookie. A missing file resolves to an empty cookie.
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read cookie file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the cookie with owner-only permissions.
func (s *FileStore) Save(cookie string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure cookie directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(strings.TrimSpace(cookie)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	return os.Chmod(s.path, 0o600)
}

// Credential is the cookie chosen for this run.
type Credential struct {
	Cookie string
	// Fresh is true when the cookie came from configuration rather than the store.
	Fresh bool
}

// ResolveCredential prefers a freshly supplied cookie and falls back to the
// stored one. Having neither is a configuration error.
func ResolveCredential(fresh string, store CookieStore) (Credential, error) {
	if fresh = strings.TrimSpace(fresh); fresh != "" {
		return Credential{Cookie: fresh, Fresh: true}, nil
	}
	stored, err := store.Load()
	if err != nil {
		return Credential{}, err
	}
	if stored == "" {
		return Credential{}, fmt.Errorf("%w: no session cookie; set COOKIE or remote.cookie (%s)", services.ErrConfiguration, RemediationHint)
	}
	return Credential{Cookie: stored}, nil
}

// Persist saves cred when it was freshly supplied and differs from the stored
// value. It reports whether the file was written.
func Persist(cred Credential, store CookieStore) (bool, error) {
	if !cred.Fresh || cred.Cookie == "" {
		return false, nil
	}
	stored, err := store.Load()
	if err != nil {
		return false, err
	}
	if stored == cred.Cookie {
		return false, nil
	}
	if err := store.Save(cred.Cookie); err != nil {
		return false, err
	}
	return true, nil
}
