package rbac

import (
	"context"
	"fmt"
	"strings"

	orgdomain "github.com/TobiasDeBruijn/invoicex/internal/organization/domain"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	"github.com/TobiasDeBruijn/invoicex/internal/scope"
)

// ScopeChecker is the authorization gate as seen by handlers. *authz.Gate satisfies it.
type ScopeChecker interface {
	Require(ctx context.Context, userID, orgID string, required scope.Scope) (*orgdomain.Org, error)
}

// RequireScope ensures the caller is authenticated and holds required in orgID.
// Returns the organization and caller on success; apperr.ErrUnauthorized, apperr.ErrForbidden,
// or apperr.ErrBadRequest (empty org id) on failure.
func RequireScope(ctx context.Context, checker ScopeChecker, orgID string, required scope.Scope) (*orgdomain.Org, string, error) {
	userID, err := RequireUser(ctx)
	if err != nil {
		return nil, "", err
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return nil, "", fmt.Errorf("%w: org_id required", apperr.ErrBadRequest)
	}
	org, err := checker.Require(ctx, userID, orgID, required)
	if err != nil {
		return nil, "", err
	}
	return org, userID, nil
}
