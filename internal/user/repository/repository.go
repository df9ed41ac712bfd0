package repository

import (
	"context"

	identitydomain "github.com/TobiasDeBruijn/invoicex/internal/identity/domain"
	"github.com/TobiasDeBruijn/invoicex/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create persists the user together with its first identity, atomically.
	Create(ctx context.Context, u *domain.User, ident *identitydomain.Identity) error
	SetEmailVerified(ctx context.Context, id string) error
	// Delete removes the user and everything it owns: sessions, memberships, scope grants, identities.
	Delete(ctx context.Context, id string) error
}
