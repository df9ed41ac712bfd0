package handler

import (
	"context"
	"fmt"
	"strings"

	apiv1 "github.com/TobiasDeBruijn/invoicex/api/v1"
	"github.com/TobiasDeBruijn/invoicex/internal/membership/domain"
	membershiprepo "github.com/TobiasDeBruijn/invoicex/internal/membership/repository"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/rbac"
	"github.com/TobiasDeBruijn/invoicex/internal/scope"
	userdomain "github.com/TobiasDeBruijn/invoicex/internal/user/domain"
	userhandler "github.com/TobiasDeBruijn/invoicex/internal/user/handler"
)

// UserGetter looks up users by id. Used to report an unknown target user as NotFound.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// Server implements MembershipService: org members, their admin flag, and their explicit scopes.
type Server struct {
	store membershiprepo.Repository
	users UserGetter
	gate  rbac.ScopeChecker
}

// NewServer returns a new Membership gRPC server.
func NewServer(store membershiprepo.Repository, users UserGetter, gate rbac.ScopeChecker) *Server {
	return &Server{store: store, users: users, gate: gate}
}

var _ apiv1.MembershipServiceServer = (*Server)(nil)

// AddUser adds a user to the org. Requires OrgUserManagement.
func (s *Server) AddUser(ctx context.Context, req *apiv1.AddUserRequest) (*apiv1.AddUserResponse, error) {
	org, _, err := rbac.RequireScope(ctx, s.gate, req.OrgId, scope.OrgUserManagement)
	if err != nil {
		return nil, err
	}
	userID, err := s.requireUser(ctx, req.UserId)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddUser(ctx, org.ID, userID, req.IsAdmin); err != nil {
		return nil, err
	}
	return &apiv1.AddUserResponse{}, nil
}

// RemoveUser removes a user and their scope grants from the org. Requires OrgUserManagement.
func (s *Server) RemoveUser(ctx context.Context, req *apiv1.RemoveUserRequest) (*apiv1.RemoveUserResponse, error) {
	org, _, err := rbac.RequireScope(ctx, s.gate, req.OrgId, scope.OrgUserManagement)
	if err != nil {
		return nil, err
	}
	userID, err := s.requireUser(ctx, req.UserId)
	if err != nil {
		return nil, err
	}
	if err := s.store.RemoveUser(ctx, org.ID, userID); err != nil {
		return nil, err
	}
	return &apiv1.RemoveUserResponse{}, nil
}

// ListUsers lists the org's members. Requires GetOrg.
func (s *Server) ListUsers(ctx context.Context, req *apiv1.ListUsersRequest) (*apiv1.ListUsersResponse, error) {
	org, _, err := rbac.RequireScope(ctx, s.gate, req.OrgId, scope.GetOrg)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListUsers(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	return &apiv1.ListUsersResponse{Users: MembersToProto(members)}, nil
}

// ListScopes returns the explicit grants of the target user (the caller when omitted) as flags over
// the whole catalog. Requires GetOrg.
func (s *Server) ListScopes(ctx context.Context, req *apiv1.ListScopesRequest) (*apiv1.ListScopesResponse, error) {
	org, callerID, err := rbac.RequireScope(ctx, s.gate, req.OrgId, scope.GetOrg)
	if err != nil {
		return nil, err
	}
	target := callerID
	if strings.TrimSpace(req.UserId) != "" {
		if target, err = s.requireUser(ctx, req.UserId); err != nil {
			return nil, err
		}
	}
	set, err := s.store.ListScopes(ctx, org.ID, target)
	if err != nil {
		return nil, err
	}
	return &apiv1.ListScopesResponse{Scopes: ScopeFlags(set)}, nil
}

// SetScopes enables or disables scopes for a member in one transaction. Every name is parsed before
// anything changes. Requires OrgUserManagement.
func (s *Server) SetScopes(ctx context.Context, req *apiv1.SetScopesRequest) (*apiv1.SetScopesResponse, error) {
	org, _, err := rbac.RequireScope(ctx, s.gate, req.OrgId, scope.OrgUserManagement)
	if err != nil {
		return nil, err
	}
	changes := make([]domain.ScopeChange, 0, len(req.Scopes))
	for _, f := range req.Scopes {
		if f == nil {
			continue
		}
		sc, err := scope.Parse(f.Name)
		if err != nil {
			return nil, err
		}
		changes = append(changes, domain.ScopeChange{Scope: sc, Enabled: f.Enabled})
	}
	userID, err := s.requireUser(ctx, req.UserId)
	if err != nil {
		return nil, err
	}
	m, err := s.store.GetMembership(ctx, org.ID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: user is not a member of the organization", apperr.ErrNotFound)
	}
	if err := s.store.SetScopes(ctx, org.ID, userID, changes); err != nil {
		return nil, err
	}
	return &apiv1.SetScopesResponse{}, nil
}

// ListCatalog returns every scope with its class and description. Any authenticated caller may list it.
func (s *Server) ListCatalog(ctx context.Context, _ *apiv1.ListCatalogRequest) (*apiv1.ListCatalogResponse, error) {
	if _, err := rbac.RequireUser(ctx); err != nil {
		return nil, err
	}
	all := scope.All()
	out := make([]*apiv1.CatalogScope, len(all))
	for i, sc := range all {
		out[i] = &apiv1.CatalogScope{Name: sc.String(), Class: sc.Class().String(), Description: sc.Description()}
	}
	return &apiv1.ListCatalogResponse{Scopes: out}, nil
}

// requireUser validates a target user id and checks the user exists.
func (s *Server) requireUser(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: user_id required", apperr.ErrBadRequest)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", fmt.Errorf("%w: user", apperr.ErrNotFound)
	}
	return userID, nil
}

// ScopeFlags expands set into one flag per catalog scope, in catalog order.
func ScopeFlags(set scope.Set) []*apiv1.ScopeFlag {
	all := scope.All()
	out := make([]*apiv1.ScopeFlag, len(all))
	for i, sc := range all {
		out[i] = &apiv1.ScopeFlag{Name: sc.String(), Enabled: set.Has(sc)}
	}
	return out
}

// MembersToProto converts a member listing for the API.
func MembersToProto(members []*domain.Member) []*apiv1.OrgUser {
	out := make([]*apiv1.OrgUser, 0, len(members))
	for _, m := range members {
		out = append(out, &apiv1.OrgUser{
			User:       userhandler.ToProto(m.User),
			IsOrgAdmin: m.IsAdmin,
			Scopes:     ScopeFlags(m.Scopes),
		})
	}
	return out
}
