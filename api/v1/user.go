package apiv1

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

const (
	UserServiceName    = "invoicex.v1.UserService"
	SessionServiceName = "invoicex.v1.SessionService"
)

type User struct {
	Id            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

type GetMeRequest struct{}

type GetMeResponse struct {
	User *User `json:"user"`
}

type DeleteMeRequest struct{}

type DeleteMeResponse struct{}

// UserServiceServer is the server API for UserService.
type UserServiceServer interface {
	GetMe(context.Context, *GetMeRequest) (*GetMeResponse, error)
	DeleteMe(context.Context, *DeleteMeRequest) (*DeleteMeResponse, error)
}

var UserServiceDesc = grpc.ServiceDesc{
	ServiceName: UserServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(UserServiceName, "GetMe", UserServiceServer.GetMe),
		unary(UserServiceName, "DeleteMe", UserServiceServer.DeleteMe),
	},
	Metadata: "invoicex/v1/user",
}

func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&UserServiceDesc, srv)
}

type UserServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewUserServiceClient(cc grpc.ClientConnInterface) *UserServiceClient {
	return &UserServiceClient{cc: cc}
}

func (c *UserServiceClient) GetMe(ctx context.Context, in *GetMeRequest, opts ...grpc.CallOption) (*GetMeResponse, error) {
	return invoke[GetMeResponse](ctx, c.cc, UserServiceName, "GetMe", in, opts)
}

func (c *UserServiceClient) DeleteMe(ctx context.Context, in *DeleteMeRequest, opts ...grpc.CallOption) (*DeleteMeResponse, error) {
	return invoke[DeleteMeResponse](ctx, c.cc, UserServiceName, "DeleteMe", in, opts)
}

// Session describes one of the caller's sessions. Id is a fingerprint of the token, not the token.
type Session struct {
	Id         string    `json:"id"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastUsedAt time.Time `json:"last_used_at"`
	Current    bool      `json:"current"`
}

type ListSessionsRequest struct{}

type ListSessionsResponse struct {
	Sessions []*Session `json:"sessions"`
}

// RemoveSessionRequest removes all of the caller's sessions when All is set, the named session
// when SessionId is set, and otherwise the session making the call.
type RemoveSessionRequest struct {
	SessionId string `json:"session_id,omitempty"`
	All       bool   `json:"all,omitempty"`
}

type RemoveSessionResponse struct{}

// SessionServiceServer is the server API for SessionService.
type SessionServiceServer interface {
	ListSessions(context.Context, *ListSessionsRequest) (*ListSessionsResponse, error)
	RemoveSession(context.Context, *RemoveSessionRequest) (*RemoveSessionResponse, error)
}

var SessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(SessionServiceName, "ListSessions", SessionServiceServer.ListSessions),
		unary(SessionServiceName, "RemoveSession", SessionServiceServer.RemoveSession),
	},
	Metadata: "invoicex/v1/session",
}

func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&SessionServiceDesc, srv)
}

type SessionServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionServiceClient(cc grpc.ClientConnInterface) *SessionServiceClient {
	return &SessionServiceClient{cc: cc}
}

func (c *SessionServiceClient) ListSessions(ctx context.Context, in *ListSessionsRequest, opts ...grpc.CallOption) (*ListSessionsResponse, error) {
	return invoke[ListSessionsResponse](ctx, c.cc, SessionServiceName, "ListSessions", in, opts)
}

func (c *SessionServiceClient) RemoveSession(ctx context.Context, in *RemoveSessionRequest, opts ...grpc.CallOption) (*RemoveSessionResponse, error) {
	return invoke[RemoveSessionResponse](ctx, c.cc, SessionServiceName, "RemoveSession", in, opts)
}
