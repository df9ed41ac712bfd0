package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	apiv1 "github.com/TobiasDeBruijn/invoicex/api/v1"
	"github.com/TobiasDeBruijn/invoicex/internal/authz"
	"github.com/TobiasDeBruijn/invoicex/internal/ids"
	membershiphandler "github.com/TobiasDeBruijn/invoicex/internal/membership/handler"
	membershiprepo "github.com/TobiasDeBruijn/invoicex/internal/membership/repository"
	"github.com/TobiasDeBruijn/invoicex/internal/organization/domain"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/rbac"
	"github.com/TobiasDeBruijn/invoicex/internal/scope"
)

// Gate is the authorization gate as used by this server. *authz.Gate satisfies it.
type Gate interface {
	rbac.ScopeChecker
	CanAccess(ctx context.Context, userID, orgID string, required scope.Scope) (*authz.Decision, error)
}

// Server implements OrganizationService for org lifecycle.
type Server struct {
	store membershiprepo.Repository
	gate  Gate
	now   func() time.Time
}

// NewServer returns a new Organization gRPC server.
func NewServer(store membershiprepo.Repository, gate Gate) *Server {
	return &Server{store: store, gate: gate, now: time.Now}
}

var _ apiv1.OrganizationServiceServer = (*Server)(nil)

// CreateOrg creates an organization with the caller as its first admin. Any authenticated user may create one.
func (s *Server) CreateOrg(ctx context.Context, req *apiv1.CreateOrgRequest) (*apiv1.CreateOrgResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	org := &domain.Org{ID: ids.New(), Name: req.Name, CreatedAt: s.now().UTC()}
	if err := org.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err)
	}
	if err := s.store.CreateOrg(ctx, org, userID); err != nil {
		return nil, err
	}
	return &apiv1.CreateOrgResponse{Org: orgToProto(org)}, nil
}

// GetOrg returns the org and its members. Requires GetOrg.
func (s *Server) GetOrg(ctx context.Context, req *apiv1.GetOrgRequest) (*apiv1.GetOrgResponse, error) {
	org, _, err := rbac.RequireScope(ctx, s.gate, req.OrgId, scope.GetOrg)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListUsers(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	return &apiv1.GetOrgResponse{Org: orgToProto(org), Users: membershiphandler.MembersToProto(members)}, nil
}

// ListOrgs returns the orgs the caller belongs to and may view.
func (s *Server) ListOrgs(ctx context.Context, _ *apiv1.ListOrgsRequest) (*apiv1.ListOrgsResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	orgs, err := s.store.ListOrgsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*apiv1.Org, 0, len(orgs))
	for _, o := range orgs {
		d, err := s.gate.CanAccess(ctx, userID, o.ID, scope.GetOrg)
		if err != nil {
			return nil, err
		}
		if d.Accessible {
			out = append(out, orgToProto(d.Org))
		}
	}
	return &apiv1.ListOrgsResponse{Orgs: out}, nil
}

// UpdateOrg renames the org. Requires UpdateOrg.
func (s *Server) UpdateOrg(ctx context.Context, req *apiv1.UpdateOrgRequest) (*apiv1.UpdateOrgResponse, error) {
	org, _, err := rbac.RequireScope(ctx, s.gate, req.OrgId, scope.UpdateOrg)
	if err != nil {
		return nil, err
	}
	updated := *org
	updated.Name = strings.TrimSpace(req.Name)
	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err)
	}
	if err := s.store.UpdateOrg(ctx, &updated); err != nil {
		return nil, err
	}
	return &apiv1.UpdateOrgResponse{Org: orgToProto(&updated)}, nil
}

// RemoveOrg deletes the org with its memberships, scope grants, and products. Requires RemoveOrg.
func (s *Server) RemoveOrg(ctx context.Context, req *apiv1.RemoveOrgRequest) (*apiv1.RemoveOrgResponse, error) {
	org, _, err := rbac.RequireScope(ctx, s.gate, req.OrgId, scope.RemoveOrg)
	if err != nil {
		return nil, err
	}
	if err := s.store.RemoveOrg(ctx, org.ID); err != nil {
		return nil, err
	}
	return &apiv1.RemoveOrgResponse{}, nil
}

func orgToProto(o *domain.Org) *apiv1.Org {
	return &apiv1.Org{Id: o.ID, Name: o.Name}
}
