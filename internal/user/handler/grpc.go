package handler

import (
	"context"
	"fmt"

	apiv1 "github.com/TobiasDeBruijn/invoicex/api/v1"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/rbac"
	"github.com/TobiasDeBruijn/invoicex/internal/user/domain"
)

// UserStore is the part of the user repository this server uses.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// Server implements UserService: the caller's own account.
type Server struct {
	users UserStore
}

// NewServer returns a new User gRPC server.
func NewServer(users UserStore) *Server {
	return &Server{users: users}
}

var _ apiv1.UserServiceServer = (*Server)(nil)

// GetMe returns the authenticated user.
func (s *Server) GetMe(ctx context.Context, _ *apiv1.GetMeRequest) (*apiv1.GetMeResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		// The session outlived its user; treat it like any other dead session.
		return nil, fmt.Errorf("%w: user no longer exists", apperr.ErrUnauthorized)
	}
	return &apiv1.GetMeResponse{User: ToProto(u)}, nil
}

// DeleteMe deletes the authenticated user together with their sessions, memberships, scope
// grants, and identities.
func (s *Server) DeleteMe(ctx context.Context, _ *apiv1.DeleteMeRequest) (*apiv1.DeleteMeResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return nil, err
	}
	return &apiv1.DeleteMeResponse{}, nil
}

// ToProto converts a domain user to its API form.
func ToProto(u *domain.User) *apiv1.User {
	if u == nil {
		return nil
	}
	return &apiv1.User{Id: u.ID, Name: u.Name, Email: u.Email, EmailVerified: u.EmailVerified}
}
