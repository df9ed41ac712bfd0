package domain

import "time"

// Identity is a credential linked to a user. Only local (email + password) identities exist today;
// ProviderID holds the normalized email for them.
type Identity struct {
	ID           string
	UserID       string
	Provider     IdentityProvider
	ProviderID   string
	PasswordHash string // empty if not local
	CreatedAt    time.Time
}

type IdentityProvider string

const (
	IdentityProviderLocal IdentityProvider = "local"
)
