// Package session persists the authenticated browser session between runs
// and decides whether a loaded session is still alive.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
)

// DefaultFileName is the cookie file used when no path is configured.
const DefaultFileName = ".linkedin_cookies.json"

// Cookie is one browser cookie, in the shape the DevTools protocol reports.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // epoch seconds; <= 0 is a session cookie
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Expired reports whether the cookie has a fixed expiry at or before now.
func (c Cookie) Expired(now time.Time) bool {
	return c.Expires > 0 && c.Expires <= float64(now.Unix())
}

// Store reads and writes the cookie file. Only the login path writes it.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore creates a store for path. An empty path uses DefaultPath.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path, now: time.Now}
}

// DefaultPath is DefaultFileName in the working directory.
func DefaultPath() string {
	wd, err := os.Getwd()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(wd, DefaultFileName)
}

// Path returns the cookie file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the unexpired cookies, or nil when the file is missing,
// unreadable, malformed or holds nothing usable.
func (s *Store) Load() []Cookie {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Debug("cannot read session file", "path", s.path, "error", err)
		}
		return nil
	}

	var all []Cookie
	if err := json.Unmarshal(data, &all); err != nil {
		logger.Debug("cannot parse session file", "path", s.path, "error", err)
		return nil
	}

	now := s.now()
	live := make([]Cookie, 0, len(all))
	for _, c := range all {
		if c.Name == "" || c.Expired(now) {
			continue
		}
		live = append(live, c)
	}
	if len(live) == 0 {
		return nil
	}
	logger.Debug("session loaded", "path", s.path, "cookies", len(live), "expired", len(all)-len(live))
	return live
}

// Save writes cookies atomically with owner-only permissions. It returns
// false for an empty set or on any write failure.
func (s *Store) Save(cookies []Cookie) bool {
	if len(cookies) == 0 {
		return false
	}
	if err := s.write(cookies); err != nil {
		logger.Warn("failed to save session", "path", s.path, "error", err)
		return false
	}
	logger.Info("session saved", "path", s.path, "cookies", len(cookies))
	return true
}

func (s *Store) write(cookies []Cookie) error {
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Delete removes the cookie file. A missing file is not an error.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Invalidate deletes the cookie file after a failed validation.
func (s *Store) Invalidate() {
	if err := s.Delete(); err != nil {
		logger.Warn("failed to delete invalid session", "path", s.path, "error", err)
		return
	}
	logger.Info("invalid session deleted", "path", s.path)
}
