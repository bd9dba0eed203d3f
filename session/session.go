// Package session owns the authentication session lifecycle: login, logout,
// restore, and externally driven auth-state changes. All transitions are
// serialized and kept in lockstep with the token store so readers never
// observe a session without its token or a token without its session.
package session

import (
	"time"
)

// State is the session manager's externally visible state.
type State int

const (
	// StateUnknown is the initial state before the first status check.
	StateUnknown State = iota
	// StateAuthenticated means a live session exists and the token store
	// holds its access token.
	StateAuthenticated
	// StateUnauthenticated means no session exists and the token store is
	// empty.
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "invalid"
	}
}

// Session is the live authenticated context for the current user.
type Session struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Clone returns a copy so callers cannot mutate the manager's state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
