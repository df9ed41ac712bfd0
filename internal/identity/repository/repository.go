package repository

import (
	"context"

	"github.com/TobiasDeBruijn/invoicex/internal/identity/domain"
)

// Repository defines read access to identities. Identities are created together with their user.
type Repository interface {
	GetByUserAndProvider(ctx context.Context, userID string, provider domain.IdentityProvider) (*domain.Identity, error)
}
