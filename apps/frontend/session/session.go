// Package session keeps the frontend's server-side sessions: API tokens and one-shot flash messages.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// flash levels
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
)

var ErrNotFound = errors.New("session not found")

type (
	Flash struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	}

	Session struct {
		ID      string    `json:"-"`
		Access  string    `json:"access,omitempty"`
		Refresh string    `json:"refresh,omitempty"`
		Flashes []Flash   `json:"flashes,omitempty"`
		Expires time.Time `json:"-"` // UTC
	}

	// Store persists sessions. Get returns ErrNotFound for unknown or expired sessions.
	Store interface {
		Get(ctx context.Context, id string) (*Session, error)
		Save(ctx context.Context, s *Session) error
		Delete(ctx context.Context, id string) error
	}
)

var nowFunc = time.Now // mockable

// New returns an empty session with a fresh random ID.
func New(maxAge time.Duration) *Session {
	return &Session{ID: uuid.NewString(), Expires: nowFunc().UTC().Add(maxAge)}
}

// Renew gives s a fresh ID and expiry. The caller deletes the old ID from its Store.
func (s *Session) Renew(maxAge time.Duration) {
	s.ID = uuid.NewString()
	s.Expires = nowFunc().UTC().Add(maxAge)
}

func (s *Session) IsAuthenticated() bool { return s.Access != "" }

func (s *Session) SetTokens(access, refresh string) {
	s.Access = access
	if refresh != "" {
		s.Refresh = refresh
	}
}

func (s *Session) AddFlash(level, msg string) {
	s.Flashes = append(s.Flashes, Flash{Level: level, Message: msg})
}

// PopFlashes returns the pending flash messages and forgets them.
func (s *Session) PopFlashes() []Flash {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}

// Flush logs out: tokens are dropped, pending flash messages are kept.
func (s *Session) Flush() {
	s.Access = ""
	s.Refresh = ""
}

func (s *Session) expired(now time.Time) bool {
	return !s.Expires.IsZero() && now.After(s.Expires)
}
