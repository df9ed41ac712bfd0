package apiv1

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

const ProductServiceName = "invoicex.v1.ProductService"

type Product struct {
	Id            string    `json:"id"`
	OrgId         string    `json:"org_id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	ProductCode   *string   `json:"product_code,omitempty"`
	PricePerUnit  float64   `json:"price_per_unit"`
	TaxPercentage *float64  `json:"tax_percentage,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type CreateProductRequest struct {
	OrgId         string   `json:"org_id"`
	Name          string   `json:"name"`
	Description   *string  `json:"description,omitempty"`
	ProductCode   *string  `json:"product_code,omitempty"`
	PricePerUnit  float64  `json:"price_per_unit"`
	TaxPercentage *float64 `json:"tax_percentage,omitempty"`
}

func (r *CreateProductRequest) GetOrgId() string { return r.OrgId }

type CreateProductResponse struct {
	Product *Product `json:"product"`
}

type GetProductRequest struct {
	ProductId string `json:"product_id"`
}

type GetProductResponse struct {
	Product *Product `json:"product"`
}

type ListProductsRequest struct {
	OrgId string `json:"org_id"`
}

func (r *ListProductsRequest) GetOrgId() string { return r.OrgId }

type ListProductsResponse struct {
	Products []*Product `json:"products"`
}

// UpdateProductRequest changes only the fields that are set.
type UpdateProductRequest struct {
	ProductId     string   `json:"product_id"`
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	ProductCode   *string  `json:"product_code,omitempty"`
	PricePerUnit  *float64 `json:"price_per_unit,omitempty"`
	TaxPercentage *float64 `json:"tax_percentage,omitempty"`
}

type UpdateProductResponse struct {
	Product *Product `json:"product"`
}

type RemoveProductRequest struct {
	ProductId string `json:"product_id"`
}

type RemoveProductResponse struct{}

// ProductServiceServer is the server API for ProductService.
type ProductServiceServer interface {
	CreateProduct(context.Context, *CreateProductRequest) (*CreateProductResponse, error)
	GetProduct(context.Context, *GetProductRequest) (*GetProductResponse, error)
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error)
	UpdateProduct(context.Context, *UpdateProductRequest) (*UpdateProductResponse, error)
	RemoveProduct(context.Context, *RemoveProductRequest) (*RemoveProductResponse, error)
}

var ProductServiceDesc = grpc.ServiceDesc{
	ServiceName: ProductServiceName,
	HandlerType: (*ProductServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ProductServiceName, "CreateProduct", ProductServiceServer.CreateProduct),
		unary(ProductServiceName, "GetProduct", ProductServiceServer.GetProduct),
		unary(ProductServiceName, "ListProducts", ProductServiceServer.ListProducts),
		unary(ProductServiceName, "UpdateProduct", ProductServiceServer.UpdateProduct),
		unary(ProductServiceName, "RemoveProduct", ProductServiceServer.RemoveProduct),
	},
	Metadata: "invoicex/v1/product",
}

func RegisterProductServiceServer(s grpc.ServiceRegistrar, srv ProductServiceServer) {
	s.RegisterService(&ProductServiceDesc, srv)
}

type ProductServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProductServiceClient(cc grpc.ClientConnInterface) *ProductServiceClient {
	return &ProductServiceClient{cc: cc}
}

func (c *ProductServiceClient) CreateProduct(ctx context.Context, in *CreateProductRequest, opts ...grpc.CallOption) (*CreateProductResponse, error) {
	return invoke[CreateProductResponse](ctx, c.cc, ProductServiceName, "CreateProduct", in, opts)
}

func (c *ProductServiceClient) GetProduct(ctx context.Context, in *GetProductRequest, opts ...grpc.CallOption) (*GetProductResponse, error) {
	return invoke[GetProductResponse](ctx, c.cc, ProductServiceName, "GetProduct", in, opts)
}

func (c *ProductServiceClient) ListProducts(ctx context.Context, in *ListProductsRequest, opts ...grpc.CallOption) (*ListProductsResponse, error) {
	return invoke[ListProductsResponse](ctx, c.cc, ProductServiceName, "ListProducts", in, opts)
}

func (c *ProductServiceClient) UpdateProduct(ctx context.Context, in *UpdateProductRequest, opts ...grpc.CallOption) (*UpdateProductResponse, error) {
	return invoke[UpdateProductResponse](ctx, c.cc, ProductServiceName, "UpdateProduct", in, opts)
}

func (c *ProductServiceClient) RemoveProduct(ctx context.Context, in *RemoveProductRequest, opts ...grpc.CallOption) (*RemoveProductResponse, error) {
	return invoke[RemoveProductResponse](ctx, c.cc, ProductServiceName, "RemoveProduct", in, opts)
}
