package repository

import (
	"context"

	"github.com/TobiasDeBruijn/invoicex/internal/product/domain"
)

// Repository defines persistence for products.
type Repository interface {
	// GetByID returns the product, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	// Update overwrites every mutable field. A missing product is apperr.ErrNotFound.
	Update(ctx context.Context, p *domain.Product) error
	// Delete removes the product. A missing product is apperr.ErrNotFound.
	Delete(ctx context.Context, id string) error
}
