package handler

import (
	"context"
	"fmt"
	"strings"

	apiv1 "github.com/TobiasDeBruijn/invoicex/api/v1"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/rbac"
	"github.com/TobiasDeBruijn/invoicex/internal/security"
	"github.com/TobiasDeBruijn/invoicex/internal/server/interceptors"
	"github.com/TobiasDeBruijn/invoicex/internal/session/domain"
)

// SessionManager is the part of the session service this server uses.
type SessionManager interface {
	ListForUser(ctx context.Context, userID string) ([]*domain.Session, error)
	Remove(ctx context.Context, token string) error
	RemoveAll(ctx context.Context, userID string) error
}

// Server implements SessionService: a user's view of their own sessions.
type Server struct {
	sessions SessionManager
}

// NewServer returns a new Session gRPC server.
func NewServer(sessions SessionManager) *Server {
	return &Server{sessions: sessions}
}

var _ apiv1.SessionServiceServer = (*Server)(nil)

// ListSessions returns the caller's sessions, flagging the one making the call. A session is
// identified by the fingerprint of its token; the token itself is never listed.
func (s *Server) ListSessions(ctx context.Context, _ *apiv1.ListSessionsRequest) (*apiv1.ListSessionsResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	current, _ := interceptors.GetSessionID(ctx)
	list, err := s.sessions.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*apiv1.Session, len(list))
	for i, ses := range list {
		out[i] = &apiv1.Session{
			Id:         security.Fingerprint(ses.ID),
			ExpiresAt:  ses.ExpiresAt,
			LastUsedAt: ses.LastUsedAt,
			Current:    ses.ID == current,
		}
	}
	return &apiv1.ListSessionsResponse{Sessions: out}, nil
}

// RemoveSession logs out everywhere (All), one listed session owned by the caller (SessionId, as
// returned by ListSessions), or the current session.
func (s *Server) RemoveSession(ctx context.Context, req *apiv1.RemoveSessionRequest) (*apiv1.RemoveSessionResponse, error) {
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.All {
		if err := s.sessions.RemoveAll(ctx, userID); err != nil {
			return nil, err
		}
		return &apiv1.RemoveSessionResponse{}, nil
	}

	target := strings.TrimSpace(req.SessionId)
	if target == "" {
		current, ok := interceptors.GetSessionID(ctx)
		if !ok || current == "" {
			return nil, fmt.Errorf("%w: session context required", apperr.ErrUnauthorized)
		}
		target = current
	} else {
		token, err := s.lookup(ctx, userID, target)
		if err != nil {
			return nil, err
		}
		if token == "" {
			return nil, fmt.Errorf("%w: session", apperr.ErrNotFound)
		}
		target = token
	}
	if err := s.sessions.Remove(ctx, target); err != nil {
		return nil, err
	}
	return &apiv1.RemoveSessionResponse{}, nil
}

// lookup returns the token of the caller's session whose fingerprint is handle, or "" if none.
func (s *Server) lookup(ctx context.Context, userID, handle string) (string, error) {
	list, err := s.sessions.ListForUser(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, ses := range list {
		if security.Fingerprint(ses.ID) == handle {
			return ses.ID, nil
		}
	}
	return "", nil
}
