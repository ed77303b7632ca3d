// Package session holds the authenticated session state: the access and
// refresh tokens, persisted to disk so a restart does not lose
// authentication. The session is an explicit object injected into its
// consumers; there is no process-wide singleton.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

type tokenFile struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Session is safe for concurrent use.
type Session struct {
	mu           sync.Mutex
	path         string
	accessToken  string
	refreshToken string
	onClear      []func()
}

// Load initializes a session from the token file at path. A missing file
// yields an empty (unauthenticated) session, not an error.
func Load(path string) (*Session, error) {
	s := &Session{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	s.accessToken = tf.AccessToken
	s.refreshToken = tf.RefreshToken
	return s, nil
}

// Tokens returns the current access and refresh tokens.
func (s *Session) Tokens() (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

// IsAuthenticated reports whether any credential is present.
func (s *Session) IsAuthenticated() bool {
	access, refresh := s.Tokens()
	return access != "" || refresh != ""
}

// SetTokens stores a full token pair, as issued at login.
func (s *Session) SetTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
	return s.save()
}

// SetAccessToken replaces only the access token, as issued by a refresh.
func (s *Session) SetAccessToken(access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	return s.save()
}

// OnClear registers a hook run whenever the session is cleared. The store
// uses this to drop cached authenticated data together with the tokens.
func (s *Session) OnClear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClear = append(s.onClear, fn)
}

// Clear wipes both tokens and the token file and runs the registered
// hooks. After Clear the session is terminal until a new explicit login.
func (s *Session) Clear() {
	s.mu.Lock()
	s.accessToken = ""
	s.refreshToken = ""
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Errorf("failed to remove session file: %v", err)
	}
	hooks := s.onClear
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// save writes the token file atomically so a crash mid-write never leaves
// a half-refreshed token on disk. Caller holds s.mu.
func (s *Session) save() error {
	data, err := json.Marshal(tokenFile{
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
