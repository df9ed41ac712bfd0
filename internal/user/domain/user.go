package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// User is the core user entity.
type User struct {
	ID            string
	Name          string
	Email         string
	EmailVerified bool
	CreatedAt     time.Time
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return errors.New("name is required")
	}
	if len(u.Name) > 128 {
		return errors.New("name must be at most 128 characters")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(u.Email)
	if err != nil || addr.Address != u.Email {
		return errors.New("email is invalid")
	}
	return nil
}
