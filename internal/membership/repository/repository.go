package repository

import (
	"context"

	"github.com/TobiasDeBruijn/invoicex/internal/membership/domain"
	orgdomain "github.com/TobiasDeBruijn/invoicex/internal/organization/domain"
	"github.com/TobiasDeBruijn/invoicex/internal/scope"
)

// Repository is the organization membership store: orgs, the (org, user) membership relation
// with its admin flag, and the explicit scope grants per membership.
// Every multi-statement mutation runs in a single transaction.
type Repository interface {
	// CreateOrg inserts org and makes creatorID an admin member holding every catalog scope.
	CreateOrg(ctx context.Context, org *orgdomain.Org, creatorID string) error
	// GetOrg returns the org, or nil if not found.
	GetOrg(ctx context.Context, orgID string) (*orgdomain.Org, error)
	UpdateOrg(ctx context.Context, org *orgdomain.Org) error
	// RemoveOrg deletes all scope grants, memberships, and the org row.
	RemoveOrg(ctx context.Context, orgID string) error
	ListOrgsForUser(ctx context.Context, userID string) ([]*orgdomain.Org, error)

	// AddUser creates a membership granting the default scopes, plus the admin-only scopes when isAdmin.
	// An existing membership is apperr.ErrConflict.
	AddUser(ctx context.Context, orgID, userID string, isAdmin bool) error
	// RemoveUser deletes the membership's scope grants then the membership. Removing a non-member is a no-op.
	RemoveUser(ctx context.Context, orgID, userID string) error
	// GetMembership returns the membership with its explicit scopes, or nil if the user is not a member.
	GetMembership(ctx context.Context, orgID, userID string) (*domain.Membership, error)
	ListUsers(ctx context.Context, orgID string) ([]*domain.Member, error)

	// SetScope toggles a single explicit grant. Applying the same value twice is a no-op.
	SetScope(ctx context.Context, orgID, userID string, s scope.Scope, enabled bool) error
	// SetScopes applies every change in one transaction.
	SetScopes(ctx context.Context, orgID, userID string, changes []domain.ScopeChange) error
	// ListScopes returns the explicit grant set; the empty set when the user is not a member.
	ListScopes(ctx context.Context, orgID, userID string) (scope.Set, error)
}
