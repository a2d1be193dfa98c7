package session

import (
	"context"

	"github.com/alexedwards/scs/v2"
)

// Session is the state of one browser for the duration of a request.
type Session struct {
	sm  *scs.SessionManager
	ctx context.Context
}

// Key returns the current session key, empty until the session is first saved.
func (s *Session) Key() string {
	return s.sm.Token(s.ctx)
}

func (s *Session) Get(name string) (string, bool) {
	if !s.sm.Exists(s.ctx, name) {
		return "", false
	}
	return s.sm.GetString(s.ctx, name), true
}

func (s *Session) Set(name, value string) {
	s.sm.Put(s.ctx, name, value)
}

// Pop removes name and returns its previous value.
func (s *Session) Pop(name string) (string, bool) {
	if !s.sm.Exists(s.ctx, name) {
		return "", false
	}
	return s.sm.PopString(s.ctx, name), true
}

// Flush drops every value and deletes the stored session. Values set
// afterwards are saved under a new key.
func (s *Session) Flush() error {
	return s.sm.Destroy(s.ctx)
}

// CycleKey keeps the values under a fresh key and deletes the old one.
func (s *Session) CycleKey() error {
	return s.sm.RenewToken(s.ctx)
}
