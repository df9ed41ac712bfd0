package domain

import (
	"time"

	"github.com/TobiasDeBruijn/invoicex/internal/scope"
	userdomain "github.com/TobiasDeBruijn/invoicex/internal/user/domain"
)

// Membership links a user to an organization. IsAdmin and Scopes are stored independently;
// IsAdmin overrides Scopes at decision time.
type Membership struct {
	OrgID     string
	UserID    string
	IsAdmin   bool
	Scopes    scope.Set
	CreatedAt time.Time
}

// Member is one row of an organization's user listing.
type Member struct {
	User    *userdomain.User
	IsAdmin bool
	Scopes  scope.Set
}

// ScopeChange enables or disables one scope on a membership.
type ScopeChange struct {
	Scope   scope.Scope
	Enabled bool
}

// InitialScopes returns the explicit grant set for a newly added member.
func InitialScopes(isAdmin bool) scope.Set {
	set := scope.NewSet(scope.Defaults()...)
	if isAdmin {
		set = set.Union(scope.NewSet(scope.AdminOnly()...))
	}
	return set
}
