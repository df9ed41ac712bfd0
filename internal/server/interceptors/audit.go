package interceptors

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"

	apiv1 "github.com/TobiasDeBruijn/invoicex/api/v1"
	"github.com/TobiasDeBruijn/invoicex/internal/audit"
	auditdomain "github.com/TobiasDeBruijn/invoicex/internal/audit/domain"
	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
)

// AuditUnary returns a unary server interceptor that records an audit log entry after each
// authenticated RPC. The org is taken from requests that target one (apiv1.OrgScoped); other calls
// are recorded under audit.SentinelOrgID. skipMethods is the set of full method names to not audit
// (e.g. the health service, and AuthService, which audits itself).
// LogEvent is best-effort: failures are logged and do not fail the RPC.
func AuditUnary(logger audit.AuditLogger, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if logger == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		userID, _ := GetUserID(ctx)
		if userID == "" {
			return resp, err
		}
		orgID := audit.SentinelOrgID
		if scoped, ok := req.(apiv1.OrgScoped); ok {
			if id := strings.TrimSpace(scoped.GetOrgId()); id != "" {
				orgID = id
			}
		}
		ar := audit.ParseFullMethod(info.FullMethod)
		logger.LogEvent(ctx, orgID, userID, ar.Action, ar.Resource, outcome(err).Metadata())
		return resp, err
	}
}

func outcome(err error) auditdomain.Outcome {
	switch {
	case err == nil:
		return auditdomain.OutcomeOK
	case errors.Is(err, apperr.ErrForbidden), errors.Is(err, apperr.ErrUnauthorized):
		return auditdomain.OutcomeDenied
	default:
		return auditdomain.OutcomeError
	}
}
