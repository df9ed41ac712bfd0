// Package authz is the single authorization decision point: every privileged operation asks the
// Gate whether the caller may exercise a scope within an organization before acting.
package authz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/TobiasDeBruijn/invoicex/internal/membership/domain"
	"github.com/TobiasDeBruijn/invoicex/internal/obs"
	orgdomain "github.com/TobiasDeBruijn/invoicex/internal/organization/domain"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	"github.com/TobiasDeBruijn/invoicex/internal/policy/engine"
	"github.com/TobiasDeBruijn/invoicex/internal/scope"
)

// Store is the read side of the membership store the Gate needs.
type Store interface {
	GetOrg(ctx context.Context, orgID string) (*orgdomain.Org, error)
	GetMembership(ctx context.Context, orgID, userID string) (*domain.Membership, error)
}

// Decision is the outcome of CanAccess. Org is set whenever the organization exists.
type Decision struct {
	Accessible bool
	Org        *orgdomain.Org
}

// Gate answers authorization questions. Membership and scopes are read through on every call.
type Gate struct {
	store     Store
	evaluator engine.Evaluator
	metrics   *obs.Metrics
	logger    *slog.Logger
}

// NewGate returns a Gate. A nil evaluator means engine.Builtin; a nil logger means slog.Default().
func NewGate(store Store, evaluator engine.Evaluator, metrics *obs.Metrics, logger *slog.Logger) *Gate {
	if evaluator == nil {
		evaluator = engine.Builtin{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{store: store, evaluator: evaluator, metrics: metrics, logger: logger}
}

// CanAccess reports whether userID may exercise required within orgID. A missing organization is
// apperr.ErrUnauthorized, indistinguishable from an invisible one. A denied decision is not an error.
func (g *Gate) CanAccess(ctx context.Context, userID, orgID string, required scope.Scope) (*Decision, error) {
	org, err := g.store.GetOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		g.metrics.AuthzDecision(required.String(), obs.AuthzUnknownOrg)
		return nil, fmt.Errorf("%w: organization not accessible", apperr.ErrUnauthorized)
	}

	in := engine.Input{Required: required}
	m, err := g.store.GetMembership(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if m != nil {
		in.IsAdmin = m.IsAdmin
		in.Granted = m.Scopes
	}

	ok, err := g.evaluator.Allow(ctx, in)
	if err != nil {
		return nil, err
	}
	if ok {
		g.metrics.AuthzDecision(required.String(), obs.AuthzAllowed)
	} else {
		g.metrics.AuthzDecision(required.String(), obs.AuthzDenied)
		g.logger.DebugContext(ctx, "authz: denied", "user_id", userID, "org_id", orgID, "scope", required.String())
	}
	return &Decision{Accessible: ok, Org: org}, nil
}

// Require is CanAccess with a denial turned into apperr.ErrForbidden. It returns the organization on success.
func (g *Gate) Require(ctx context.Context, userID, orgID string, required scope.Scope) (*orgdomain.Org, error) {
	d, err := g.CanAccess(ctx, userID, orgID, required)
	if err != nil {
		return nil, err
	}
	if !d.Accessible {
		return nil, fmt.Errorf("%w: missing scope %s", apperr.ErrForbidden, required)
	}
	return d.Org, nil
}
