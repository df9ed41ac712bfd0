package server

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthgrpc "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	apiv1 "github.com/TobiasDeBruijn/invoicex/api/v1"
	"github.com/TobiasDeBruijn/invoicex/internal/audit"
	identityhandler "github.com/TobiasDeBruijn/invoicex/internal/identity/handler"
	membershiphandler "github.com/TobiasDeBruijn/invoicex/internal/membership/handler"
	membershiprepo "github.com/TobiasDeBruijn/invoicex/internal/membership/repository"
	"github.com/TobiasDeBruijn/invoicex/internal/obs"
	organizationhandler "github.com/TobiasDeBruijn/invoicex/internal/organization/handler"
	producthandler "github.com/TobiasDeBruijn/invoicex/internal/product/handler"
	productrepo "github.com/TobiasDeBruijn/invoicex/internal/product/repository"
	"github.com/TobiasDeBruijn/invoicex/internal/server/interceptors"
	sessionhandler "github.com/TobiasDeBruijn/invoicex/internal/session/handler"
	userhandler "github.com/TobiasDeBruijn/invoicex/internal/user/handler"
)

// Sessions is what the server needs from the session manager: resolving tokens in the auth
// interceptor and the user-facing session operations.
type Sessions interface {
	interceptors.SessionResolver
	sessionhandler.SessionManager
}

// Deps holds the collaborators of the gRPC services.
type Deps struct {
	Auth        identityhandler.Authenticator
	Users       userhandler.UserStore
	Sessions    Sessions
	Memberships membershiprepo.Repository
	Products    productrepo.Repository
	// Gate is the AuthorizationGate every org-scoped operation goes through.
	Gate organizationhandler.Gate
	// Health backs the standard grpc.health.v1 service. If nil, it is not registered.
	Health *healthgrpc.Server
}

// Options configures the interceptor chain.
type Options struct {
	Logger *slog.Logger
	// Audit records authenticated RPCs. If nil, nothing is audited by the interceptor.
	Audit audit.AuditLogger
	// Limiter throttles Register and Login per client IP. If nil, they are not limited.
	Limiter *interceptors.IPLimiter
	// ClientIP keys the limiter. If nil, the connected peer's address is used.
	ClientIP func(context.Context) string
	Metrics *obs.Metrics
}

// NewGRPCServer returns a gRPC server with every service registered behind the interceptor
// chain: status mapping (outermost), rate limiting, session authentication, audit.
func NewGRPCServer(deps Deps, opts Options) *grpc.Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	rateLimited := map[string]bool{
		apiv1.FullMethod(apiv1.AuthServiceName, "Register"): true,
		apiv1.FullMethod(apiv1.AuthServiceName, "Login"):    true,
	}
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.StatusUnary(opts.Logger),
			interceptors.RateLimitUnary(opts.Limiter, opts.ClientIP, rateLimited, apiv1.FullMethod(apiv1.AuthServiceName, "Login"), opts.Metrics),
			interceptors.AuthUnary(deps.Sessions, PublicMethods()),
			interceptors.AuditUnary(opts.Audit, AuditSkipMethods()),
		),
	)
	RegisterServices(s, deps)
	return s
}

// PublicMethods is the set of full method names callable without a session.
func PublicMethods() map[string]bool {
	return map[string]bool{
		apiv1.FullMethod(apiv1.AuthServiceName, "Register"):    true,
		apiv1.FullMethod(apiv1.AuthServiceName, "Login"):       true,
		apiv1.FullMethod(apiv1.AuthServiceName, "VerifyEmail"): true,
		healthpb.Health_Check_FullMethodName:                   true,
		healthpb.Health_Watch_FullMethodName:                   true,
	}
}

// AuditSkipMethods is the set of full method names the audit interceptor ignores.
// AuthService writes its own audit events.
func AuditSkipMethods() map[string]bool {
	skip := map[string]bool{healthpb.Health_Check_FullMethodName: true}
	skip[apiv1.FullMethod(apiv1.MembershipServiceName, "ListCatalog")] = true
	for _, m := range apiv1.AuthServiceDesc.Methods {
		skip[apiv1.FullMethod(apiv1.AuthServiceName, m.MethodName)] = true
	}
	return skip
}

// RegisterServices registers all gRPC services with the given server.
//
// Service → handler mapping:
//   - AuthService         → internal/identity/handler
//   - UserService         → internal/user/handler
//   - SessionService      → internal/session/handler
//   - OrganizationService → internal/organization/handler
//   - MembershipService   → internal/membership/handler
//   - ProductService      → internal/product/handler
//   - grpc.health.v1      → google.golang.org/grpc/health
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	apiv1.RegisterAuthServiceServer(s, identityhandler.NewAuthServer(deps.Auth))
	apiv1.RegisterUserServiceServer(s, userhandler.NewServer(deps.Users))
	apiv1.RegisterSessionServiceServer(s, sessionhandler.NewServer(deps.Sessions))
	apiv1.RegisterOrganizationServiceServer(s, organizationhandler.NewServer(deps.Memberships, deps.Gate))
	apiv1.RegisterMembershipServiceServer(s, membershiphandler.NewServer(deps.Memberships, deps.Users, deps.Gate))
	apiv1.RegisterProductServiceServer(s, producthandler.NewServer(deps.Products, deps.Gate))
	if deps.Health != nil {
		healthpb.RegisterHealthServer(s, deps.Health)
	}
}
