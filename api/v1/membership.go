package apiv1

import (
	"context"

	"google.golang.org/grpc"
)

const MembershipServiceName = "invoicex.v1.MembershipService"

type AddUserRequest struct {
	OrgId   string `json:"org_id"`
	UserId  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
}

func (r *AddUserRequest) GetOrgId() string { return r.OrgId }

type AddUserResponse struct{}

type RemoveUserRequest struct {
	OrgId  string `json:"org_id"`
	UserId string `json:"user_id"`
}

func (r *RemoveUserRequest) GetOrgId() string { return r.OrgId }

type RemoveUserResponse struct{}

type ListUsersRequest struct {
	OrgId string `json:"org_id"`
}

func (r *ListUsersRequest) GetOrgId() string { return r.OrgId }

type ListUsersResponse struct {
	Users []*OrgUser `json:"users"`
}

// ListScopesRequest lists the scopes of UserId, or of the caller when UserId is empty.
type ListScopesRequest struct {
	OrgId  string `json:"org_id"`
	UserId string `json:"user_id,omitempty"`
}

func (r *ListScopesRequest) GetOrgId() string { return r.OrgId }

type ListScopesResponse struct {
	Scopes []*ScopeFlag `json:"scopes"`
}

type SetScopesRequest struct {
	OrgId  string       `json:"org_id"`
	UserId string       `json:"user_id"`
	Scopes []*ScopeFlag `json:"scopes"`
}

func (r *SetScopesRequest) GetOrgId() string { return r.OrgId }

type SetScopesResponse struct{}

type CatalogScope struct {
	Name        string `json:"name"`
	Class       string `json:"class"`
	Description string `json:"description"`
}

type ListCatalogRequest struct{}

type ListCatalogResponse struct {
	Scopes []*CatalogScope `json:"scopes"`
}

// MembershipServiceServer is the server API for MembershipService.
type MembershipServiceServer interface {
	AddUser(context.Context, *AddUserRequest) (*AddUserResponse, error)
	RemoveUser(context.Context, *RemoveUserRequest) (*RemoveUserResponse, error)
	ListUsers(context.Context, *ListUsersRequest) (*ListUsersResponse, error)
	ListScopes(context.Context, *ListScopesRequest) (*ListScopesResponse, error)
	SetScopes(context.Context, *SetScopesRequest) (*SetScopesResponse, error)
	ListCatalog(context.Context, *ListCatalogRequest) (*ListCatalogResponse, error)
}

var MembershipServiceDesc = grpc.ServiceDesc{
	ServiceName: MembershipServiceName,
	HandlerType: (*MembershipServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MembershipServiceName, "AddUser", MembershipServiceServer.AddUser),
		unary(MembershipServiceName, "RemoveUser", MembershipServiceServer.RemoveUser),
		unary(MembershipServiceName, "ListUsers", MembershipServiceServer.ListUsers),
		unary(MembershipServiceName, "ListScopes", MembershipServiceServer.ListScopes),
		unary(MembershipServiceName, "SetScopes", MembershipServiceServer.SetScopes),
		unary(MembershipServiceName, "ListCatalog", MembershipServiceServer.ListCatalog),
	},
	Metadata: "invoicex/v1/membership",
}

func RegisterMembershipServiceServer(s grpc.ServiceRegistrar, srv MembershipServiceServer) {
	s.RegisterService(&MembershipServiceDesc, srv)
}

type MembershipServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMembershipServiceClient(cc grpc.ClientConnInterface) *MembershipServiceClient {
	return &MembershipServiceClient{cc: cc}
}

func (c *MembershipServiceClient) AddUser(ctx context.Context, in *AddUserRequest, opts ...grpc.CallOption) (*AddUserResponse, error) {
	return invoke[AddUserResponse](ctx, c.cc, MembershipServiceName, "AddUser", in, opts)
}

func (c *MembershipServiceClient) RemoveUser(ctx context.Context, in *RemoveUserRequest, opts ...grpc.CallOption) (*RemoveUserResponse, error) {
	return invoke[RemoveUserResponse](ctx, c.cc, MembershipServiceName, "RemoveUser", in, opts)
}

func (c *MembershipServiceClient) ListUsers(ctx context.Context, in *ListUsersRequest, opts ...grpc.CallOption) (*ListUsersResponse, error) {
	return invoke[ListUsersResponse](ctx, c.cc, MembershipServiceName, "ListUsers", in, opts)
}

func (c *MembershipServiceClient) ListScopes(ctx context.Context, in *ListScopesRequest, opts ...grpc.CallOption) (*ListScopesResponse, error) {
	return invoke[ListScopesResponse](ctx, c.cc, MembershipServiceName, "ListScopes", in, opts)
}

func (c *MembershipServiceClient) SetScopes(ctx context.Context, in *SetScopesRequest, opts ...grpc.CallOption) (*SetScopesResponse, error) {
	return invoke[SetScopesResponse](ctx, c.cc, MembershipServiceName, "SetScopes", in, opts)
}

func (c *MembershipServiceClient) ListCatalog(ctx context.Context, in *ListCatalogRequest, opts ...grpc.CallOption) (*ListCatalogResponse, error) {
	return invoke[ListCatalogResponse](ctx, c.cc, MembershipServiceName, "ListCatalog", in, opts)
}
