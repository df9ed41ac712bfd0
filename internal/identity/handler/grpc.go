package handler

import (
	"context"

	apiv1 "github.com/TobiasDeBruijn/invoicex/api/v1"
	"github.com/TobiasDeBruijn/invoicex/internal/identity/service"
)

// Authenticator is the part of the auth service this server uses.
type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (*service.RegisterResult, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	VerifyEmail(ctx context.Context, token string) error
	Logout(ctx context.Context) error
}

// AuthServer implements AuthService: registration, login, email verification, and logout.
// Register, Login, and VerifyEmail are public; Logout requires a session.
type AuthServer struct {
	auth Authenticator
}

// NewAuthServer returns a new Auth gRPC server.
func NewAuthServer(auth Authenticator) *AuthServer {
	return &AuthServer{auth: auth}
}

var _ apiv1.AuthServiceServer = (*AuthServer)(nil)

func (s *AuthServer) Register(ctx context.Context, req *apiv1.RegisterRequest) (*apiv1.RegisterResponse, error) {
	res, err := s.auth.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return &apiv1.RegisterResponse{UserId: res.UserID, VerificationToken: res.VerificationToken}, nil
}

func (s *AuthServer) Login(ctx context.Context, req *apiv1.LoginRequest) (*apiv1.LoginResponse, error) {
	res, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return &apiv1.LoginResponse{SessionToken: res.SessionToken, ExpiresAt: res.ExpiresAt, UserId: res.UserID}, nil
}

func (s *AuthServer) VerifyEmail(ctx context.Context, req *apiv1.VerifyEmailRequest) (*apiv1.VerifyEmailResponse, error) {
	if err := s.auth.VerifyEmail(ctx, req.Token); err != nil {
		return nil, err
	}
	return &apiv1.VerifyEmailResponse{}, nil
}

// Logout removes the session the call was authenticated with.
func (s *AuthServer) Logout(ctx context.Context, _ *apiv1.LogoutRequest) (*apiv1.LogoutResponse, error) {
	if err := s.auth.Logout(ctx); err != nil {
		return nil, err
	}
	return &apiv1.LogoutResponse{}, nil
}
