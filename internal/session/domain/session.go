package domain

import "time"

// TokenPrefix marks a token as a user session, as opposed to other token classes.
const TokenPrefix = "US_"

// Session is an opaque bearer token bound to one user. ID is the token itself.
type Session struct {
	ID         string
	UserID     string
	ExpiresAt  time.Time
	LastUsedAt time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
