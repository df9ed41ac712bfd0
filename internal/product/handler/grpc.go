package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	apiv1 "github.com/TobiasDeBruijn/invoicex/api/v1"
	"github.com/TobiasDeBruijn/invoicex/internal/ids"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/rbac"
	"github.com/TobiasDeBruijn/invoicex/internal/product/domain"
	productrepo "github.com/TobiasDeBruijn/invoicex/internal/product/repository"
	"github.com/TobiasDeBruijn/invoicex/internal/scope"
)

// Server implements ProductService. Every call is authorized against the product's organization.
type Server struct {
	repo productrepo.Repository
	gate rbac.ScopeChecker
	now  func() time.Time
}

// NewServer returns a new Product gRPC server.
func NewServer(repo productrepo.Repository, gate rbac.ScopeChecker) *Server {
	return &Server{repo: repo, gate: gate, now: time.Now}
}

var _ apiv1.ProductServiceServer = (*Server)(nil)

// CreateProduct adds a product to the org. Requires CreateProduct.
func (s *Server) CreateProduct(ctx context.Context, req *apiv1.CreateProductRequest) (*apiv1.CreateProductResponse, error) {
	org, _, err := rbac.RequireScope(ctx, s.gate, req.OrgId, scope.CreateProduct)
	if err != nil {
		return nil, err
	}
	p := &domain.Product{
		ID:            ids.New(),
		OrgID:         org.ID,
		Name:          req.Name,
		Description:   req.Description,
		ProductCode:   req.ProductCode,
		PricePerUnit:  req.PricePerUnit,
		TaxPercentage: req.TaxPercentage,
		CreatedAt:     s.now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err)
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return &apiv1.CreateProductResponse{Product: productToProto(p)}, nil
}

// GetProduct returns one product. Requires GetProduct in the product's org.
func (s *Server) GetProduct(ctx context.Context, req *apiv1.GetProductRequest) (*apiv1.GetProductResponse, error) {
	p, err := s.load(ctx, req.ProductId, scope.GetProduct)
	if err != nil {
		return nil, err
	}
	return &apiv1.GetProductResponse{Product: productToProto(p)}, nil
}

// ListProducts lists the org's products. Requires GetProduct.
func (s *Server) ListProducts(ctx context.Context, req *apiv1.ListProductsRequest) (*apiv1.ListProductsResponse, error) {
	org, _, err := rbac.RequireScope(ctx, s.gate, req.OrgId, scope.GetProduct)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListByOrg(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*apiv1.Product, len(list))
	for i, p := range list {
		out[i] = productToProto(p)
	}
	return &apiv1.ListProductsResponse{Products: out}, nil
}

// UpdateProduct changes the fields set in the request. Requires UpdateProduct.
func (s *Server) UpdateProduct(ctx context.Context, req *apiv1.UpdateProductRequest) (*apiv1.UpdateProductResponse, error) {
	p, err := s.load(ctx, req.ProductId, scope.UpdateProduct)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.ProductCode != nil {
		p.ProductCode = req.ProductCode
	}
	if req.PricePerUnit != nil {
		p.PricePerUnit = *req.PricePerUnit
	}
	if req.TaxPercentage != nil {
		p.TaxPercentage = req.TaxPercentage
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err)
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return &apiv1.UpdateProductResponse{Product: productToProto(p)}, nil
}

// RemoveProduct deletes a product. Requires RemoveProduct.
func (s *Server) RemoveProduct(ctx context.Context, req *apiv1.RemoveProductRequest) (*apiv1.RemoveProductResponse, error) {
	p, err := s.load(ctx, req.ProductId, scope.RemoveProduct)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return nil, err
	}
	return &apiv1.RemoveProductResponse{}, nil
}

// load fetches a product and authorizes required against its organization. The caller's identity is
// checked before the lookup so an unauthenticated caller cannot enumerate product ids.
func (s *Server) load(ctx context.Context, productID string, required scope.Scope) (*domain.Product, error) {
	if _, err := rbac.RequireUser(ctx); err != nil {
		return nil, err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, fmt.Errorf("%w: product_id required", apperr.ErrBadRequest)
	}
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: product", apperr.ErrNotFound)
	}
	if _, _, err := rbac.RequireScope(ctx, s.gate, p.OrgID, required); err != nil {
		return nil, err
	}
	return p, nil
}

func productToProto(p *domain.Product) *apiv1.Product {
	return &apiv1.Product{
		Id:            p.ID,
		OrgId:         p.OrgID,
		Name:          p.Name,
		Description:   p.Description,
		ProductCode:   p.ProductCode,
		PricePerUnit:  p.PricePerUnit,
		TaxPercentage: p.TaxPercentage,
		CreatedAt:     p.CreatedAt,
	}
}
