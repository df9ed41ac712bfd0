package engine

import (
	"context"

	"github.com/TobiasDeBruijn/invoicex/internal/scope"
)

// Input is one authorization question: may a member holding Granted (and IsAdmin) exercise Required?
// A non-member arrives with IsAdmin false and an empty Granted set.
type Input struct {
	IsAdmin  bool
	Granted  scope.Set
	Required scope.Scope
}

// Evaluator decides authorization questions. Implementations must be safe for concurrent use.
type Evaluator interface {
	Allow(ctx context.Context, in Input) (bool, error)
}

// Builtin evaluates with the fixed rule: an admin holds every catalog scope, anyone else
// holds exactly the explicitly granted set.
type Builtin struct{}

// Allow implements Evaluator.
func (Builtin) Allow(_ context.Context, in Input) (bool, error) {
	return EffectiveScopes(in.IsAdmin, in.Granted).Has(in.Required), nil
}

// EffectiveScopes returns the permission set a member actually holds. The admin flag overrides the
// explicit grants, so removing admin-only grant rows never restricts an admin.
func EffectiveScopes(isAdmin bool, granted scope.Set) scope.Set {
	if isAdmin {
		return scope.Full()
	}
	return granted
}
