package apiv1

import (
	"context"

	"google.golang.org/grpc"
)

const OrganizationServiceName = "invoicex.v1.OrganizationService"

type Org struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// ScopeFlag is one catalog scope and whether it is granted.
type ScopeFlag struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type OrgUser struct {
	User       *User        `json:"user"`
	IsOrgAdmin bool         `json:"is_org_admin"`
	Scopes     []*ScopeFlag `json:"scopes"`
}

type CreateOrgRequest struct {
	Name string `json:"name"`
}

type CreateOrgResponse struct {
	Org *Org `json:"org"`
}

type GetOrgRequest struct {
	OrgId string `json:"org_id"`
}

func (r *GetOrgRequest) GetOrgId() string { return r.OrgId }

type GetOrgResponse struct {
	Org   *Org       `json:"org"`
	Users []*OrgUser `json:"users"`
}

type ListOrgsRequest struct{}

type ListOrgsResponse struct {
	Orgs []*Org `json:"orgs"`
}

type UpdateOrgRequest struct {
	OrgId string `json:"org_id"`
	Name  string `json:"name"`
}

func (r *UpdateOrgRequest) GetOrgId() string { return r.OrgId }

type UpdateOrgResponse struct {
	Org *Org `json:"org"`
}

type RemoveOrgRequest struct {
	OrgId string `json:"org_id"`
}

func (r *RemoveOrgRequest) GetOrgId() string { return r.OrgId }

type RemoveOrgResponse struct{}

// OrganizationServiceServer is the server API for OrganizationService.
type OrganizationServiceServer interface {
	CreateOrg(context.Context, *CreateOrgRequest) (*CreateOrgResponse, error)
	GetOrg(context.Context, *GetOrgRequest) (*GetOrgResponse, error)
	ListOrgs(context.Context, *ListOrgsRequest) (*ListOrgsResponse, error)
	UpdateOrg(context.Context, *UpdateOrgRequest) (*UpdateOrgResponse, error)
	RemoveOrg(context.Context, *RemoveOrgRequest) (*RemoveOrgResponse, error)
}

var OrganizationServiceDesc = grpc.ServiceDesc{
	ServiceName: OrganizationServiceName,
	HandlerType: (*OrganizationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(OrganizationServiceName, "CreateOrg", OrganizationServiceServer.CreateOrg),
		unary(OrganizationServiceName, "GetOrg", OrganizationServiceServer.GetOrg),
		unary(OrganizationServiceName, "ListOrgs", OrganizationServiceServer.ListOrgs),
		unary(OrganizationServiceName, "UpdateOrg", OrganizationServiceServer.UpdateOrg),
		unary(OrganizationServiceName, "RemoveOrg", OrganizationServiceServer.RemoveOrg),
	},
	Metadata: "invoicex/v1/org",
}

func RegisterOrganizationServiceServer(s grpc.ServiceRegistrar, srv OrganizationServiceServer) {
	s.RegisterService(&OrganizationServiceDesc, srv)
}

type OrganizationServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOrganizationServiceClient(cc grpc.ClientConnInterface) *OrganizationServiceClient {
	return &OrganizationServiceClient{cc: cc}
}

func (c *OrganizationServiceClient) CreateOrg(ctx context.Context, in *CreateOrgRequest, opts ...grpc.CallOption) (*CreateOrgResponse, error) {
	return invoke[CreateOrgResponse](ctx, c.cc, OrganizationServiceName, "CreateOrg", in, opts)
}

func (c *OrganizationServiceClient) GetOrg(ctx context.Context, in *GetOrgRequest, opts ...grpc.CallOption) (*GetOrgResponse, error) {
	return invoke[GetOrgResponse](ctx, c.cc, OrganizationServiceName, "GetOrg", in, opts)
}

func (c *OrganizationServiceClient) ListOrgs(ctx context.Context, in *ListOrgsRequest, opts ...grpc.CallOption) (*ListOrgsResponse, error) {
	return invoke[ListOrgsResponse](ctx, c.cc, OrganizationServiceName, "ListOrgs", in, opts)
}

func (c *OrganizationServiceClient) UpdateOrg(ctx context.Context, in *UpdateOrgRequest, opts ...grpc.CallOption) (*UpdateOrgResponse, error) {
	return invoke[UpdateOrgResponse](ctx, c.cc, OrganizationServiceName, "UpdateOrg", in, opts)
}

func (c *OrganizationServiceClient) RemoveOrg(ctx context.Context, in *RemoveOrgRequest, opts ...grpc.CallOption) (*RemoveOrgResponse, error) {
	return invoke[RemoveOrgResponse](ctx, c.cc, OrganizationServiceName, "RemoveOrg", in, opts)
}
