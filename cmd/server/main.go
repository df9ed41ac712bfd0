package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	healthgrpc "google.golang.org/grpc/health"

	"github.com/TobiasDeBruijn/invoicex/internal/audit"
	auditrepo "github.com/TobiasDeBruijn/invoicex/internal/audit/repository"
	"github.com/TobiasDeBruijn/invoicex/internal/authz"
	"github.com/TobiasDeBruijn/invoicex/internal/config"
	"github.com/TobiasDeBruijn/invoicex/internal/db"
	"github.com/TobiasDeBruijn/invoicex/internal/health"
	identityrepo "github.com/TobiasDeBruijn/invoicex/internal/identity/repository"
	identityservice "github.com/TobiasDeBruijn/invoicex/internal/identity/service"
	membershiprepo "github.com/TobiasDeBruijn/invoicex/internal/membership/repository"
	"github.com/TobiasDeBruijn/invoicex/internal/obs"
	"github.com/TobiasDeBruijn/invoicex/internal/policy/engine"
	productrepo "github.com/TobiasDeBruijn/invoicex/internal/product/repository"
	"github.com/TobiasDeBruijn/invoicex/internal/security"
	"github.com/TobiasDeBruijn/invoicex/internal/server"
	"github.com/TobiasDeBruijn/invoicex/internal/server/interceptors"
	sessionrepo "github.com/TobiasDeBruijn/invoicex/internal/session/repository"
	sessionservice "github.com/TobiasDeBruijn/invoicex/internal/session/service"
	telemetryotel "github.com/TobiasDeBruijn/invoicex/internal/telemetry/otel"
	userrepo "github.com/TobiasDeBruijn/invoicex/internal/user/repository"
)

const (
	verificationIssuer = "invoicex"
	healthSyncInterval = 10 * time.Second
	shutdownTimeout    = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	if err := run(cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	base := newBaseHandler(cfg)
	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Insecure:    cfg.OTLPInsecure,
		Logger:      slog.New(base),
	})
	if err != nil {
		return err
	}
	providers.SetGlobal()
	logger := slog.New(telemetryotel.NewSlogHandler(base, providers.LoggerProvider))
	slog.SetDefault(logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set; create a .env or export DATABASE_URL")
	}
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := obs.NewMetrics(reg)
	if err != nil {
		return err
	}

	evaluator, policyCheck, err := newEvaluator(ctx, cfg)
	if err != nil {
		return err
	}

	users := userrepo.NewPostgresRepository(database)
	memberships := membershiprepo.NewPostgresRepository(database)
	sessions := sessionservice.NewManager(
		sessionrepo.NewPostgresRepository(database),
		sessionservice.WithTTL(cfg.SessionTTL()),
		sessionservice.WithLogger(logger),
		sessionservice.WithMetrics(metrics),
	)
	proxies, err := interceptors.NewTrustedProxies(cfg.TrustedProxies())
	if err != nil {
		return err
	}
	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(database), proxies.ClientIP, logger)
	authSvc := identityservice.NewAuthService(
		users,
		identityrepo.NewPostgresRepository(database),
		sessions,
		security.NewHasher(cfg.BcryptCost, cfg.PasswordPepper),
		security.NewVerificationTokens(cfg.VerificationSecret, verificationIssuer, cfg.VerificationTTL()),
		identityservice.WithAuditLogger(auditLogger),
		identityservice.WithMetrics(metrics),
		identityservice.WithLogger(logger),
		identityservice.ReturnVerificationToken(cfg.VerificationReturnToClient),
	)

	healthSrv := healthgrpc.NewServer()
	checker := health.NewChecker(database, policyCheck)
	if err := checker.Sync(ctx, healthSrv); err != nil {
		logger.Warn("initial readiness check failed", "error", err)
	}
	go syncHealth(ctx, checker, healthSrv, logger)

	var limiter *interceptors.IPLimiter
	if cfg.LoginRatePerMinute > 0 {
		limiter = interceptors.NewIPLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst)
	}

	grpcSrv := server.NewGRPCServer(server.Deps{
		Auth:        authSvc,
		Users:       users,
		Sessions:    sessions,
		Memberships: memberships,
		Products:    productrepo.NewPostgresRepository(database),
		Gate:        authz.NewGate(memberships, evaluator, metrics, logger),
		Health:      healthSrv,
	}, server.Options{
		Logger:   logger,
		Audit:    auditLogger,
		Limiter:  limiter,
		ClientIP: proxies.ClientIP,
		Metrics:  metrics,
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	errCh := make(chan error, 2)
	go func() {
		logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		errCh <- grpcSrv.Serve(lis)
	}()

	var opsSrv *http.Server
	if cfg.OpsAddr != "" {
		opsSrv = &http.Server{
			Addr:              cfg.OpsAddr,
			Handler:           server.NewOpsHandler(reg, checker.Ready, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("ops server listening", "addr", cfg.OpsAddr)
			if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("listener failed", "error", err)
		}
	}

	logger.Info("shutting down")
	healthSrv.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if opsSrv != nil {
		_ = opsSrv.Shutdown(shutdownCtx)
	}
	stopped := make(chan struct{})
	go func() {
		grpcSrv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcSrv.Stop()
	}
	logger.Info("server stopped")
	return nil
}

// newBaseHandler builds the stdout slog handler from LOG_LEVEL and LOG_FORMAT.
func newBaseHandler(cfg *config.Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "text" {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}

// newEvaluator returns the decision engine selected by AUTHZ_ENGINE. The health check is nil for the
// built-in engine, which cannot fail.
func newEvaluator(ctx context.Context, cfg *config.Config) (engine.Evaluator, health.PolicyChecker, error) {
	if cfg.AuthzEngine != config.AuthzEngineOPA {
		return engine.Builtin{}, nil, nil
	}
	var policy string
	if cfg.AuthzPolicyFile != "" {
		b, err := os.ReadFile(cfg.AuthzPolicyFile)
		if err != nil {
			return nil, nil, err
		}
		policy = string(b)
	}
	opa, err := engine.NewOPAEvaluator(ctx, policy)
	if err != nil {
		return nil, nil, err
	}
	return opa, opa, nil
}

func syncHealth(ctx context.Context, checker *health.Checker, srv *healthgrpc.Server, logger *slog.Logger) {
	ticker := time.NewTicker(healthSyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := checker.Sync(ctx, srv); err != nil {
				logger.Warn("readiness check failed", "error", err)
			}
		}
	}
}
