package models

import (
	"time"

	"github.com/DAC098/TJ2-sub001/internal/ids"
)

// SessionKind distinguishes browser cookie sessions, which require a second
// verification factor, from API/bearer sessions issued to peers.
type SessionKind string

const (
	SessionCookie SessionKind = "cookie"
	SessionToken  SessionKind = "token"
)

// Session is the persisted state behind one issued credential. Acceptance is
// always decided by re-reading this row, never by cached state, so
// revocation and expiry take effect on the very next request.
type Session struct {
	ID            ids.SessionID
	UserID        ids.UserID
	Kind          SessionKind
	Authenticated bool
	Verified      bool
	CreatedOn     time.Time
	ExpiresOn     time.Time
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresOn)
}

// Accepted reports whether the session satisfies the acceptance rule for its
// kind: cookie sessions need authenticated, verified and unexpired; bearer
// sessions need authenticated and unexpired only.
func (s *Session) Accepted(now time.Time) bool {
	if !s.Authenticated || s.Expired(now) {
		return false
	}
	if s.Kind == SessionCookie && !s.Verified {
		return false
	}
	return true
}
