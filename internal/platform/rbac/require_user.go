// Package rbac holds the per-call authorization helpers handlers run before acting.
package rbac

import (
	"context"
	"fmt"

	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	"github.com/TobiasDeBruijn/invoicex/internal/server/interceptors"
)

// RequireUser returns the authenticated caller's user id, or apperr.ErrUnauthorized when the
// auth interceptor did not attach one.
func RequireUser(ctx context.Context) (string, error) {
	userID, ok := interceptors.GetUserID(ctx)
	if !ok || userID == "" {
		return "", fmt.Errorf("%w: user context required", apperr.ErrUnauthorized)
	}
	return userID, nil
}
