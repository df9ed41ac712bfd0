package repository

import (
	"context"

	"github.com/TobiasDeBruijn/invoicex/internal/audit/domain"
)

// Repository persists audit log entries. Entries are append-only.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
}
