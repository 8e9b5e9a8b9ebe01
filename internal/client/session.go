package client

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Session carries the admin bearer token. It is handed to the client
// explicitly; nothing reads credentials from process-wide state.
type Session struct {
	mu    sync.RWMutex
	token string
}

func NewSession(token string) *Session {
	return &Session{token: strings.TrimSpace(token)}
}

func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = strings.TrimSpace(token)
}

func (s *Session) Logout() {
	s.SetToken("")
}

// LoadSession reads a token file written by Save. A missing file yields an
// anonymous session.
func LoadSession(path string) (*Session, error) {
	if path == "" {
		return NewSession(""), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewSession(""), nil
		}
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	return NewSession(string(data)), nil
}

func (s *Session) Save(path string) error {
	if path == "" {
		return errors.New("token file path is empty")
	}
	token := s.Token()
	if token == "" {
		err := os.Remove(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return os.WriteFile(path, []byte(token), 0600)
}
