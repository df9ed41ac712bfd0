// Package health reports readiness: the database answers and the decision engine evaluates.
package health

import (
	"context"
	"fmt"
	"time"

	healthgrpc "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger checks a dependency is reachable, e.g. *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker checks the decision engine can evaluate, e.g. the OPA evaluator.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

const checkTimeout = 2 * time.Second

// Checker aggregates readiness checks. Nil dependencies are skipped.
type Checker struct {
	db     Pinger
	policy PolicyChecker
}

// NewChecker returns a Checker over db and policy; either may be nil.
func NewChecker(db Pinger, policy PolicyChecker) *Checker {
	return &Checker{db: db, policy: policy}
}

// Ready returns nil when every configured dependency is healthy.
func (c *Checker) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if c.db != nil {
		if err := c.db.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if c.policy != nil {
		if err := c.policy.HealthCheck(ctx); err != nil {
			return fmt.Errorf("policy engine: %w", err)
		}
	}
	return nil
}

// Sync sets the serving status of the overall server ("") on srv from Ready.
func (c *Checker) Sync(ctx context.Context, srv *healthgrpc.Server) error {
	err := c.Ready(ctx)
	if err != nil {
		srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		return err
	}
	srv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return nil
}
