package interceptors

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
	sessiondomain "github.com/TobiasDeBruijn/invoicex/internal/session/domain"
)

const bearerPrefix = "bearer "

// SessionResolver resolves an opaque session token to its live session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*sessiondomain.Session, error)
}

// AuthUnary returns a unary server interceptor that resolves the Bearer session token from gRPC
// metadata and sets user_id and session_id in context for protected RPCs.
// publicMethods is the set of full method names that do not require a session
// (e.g. AuthService Register, Login, VerifyEmail; the health service). On a public method a
// missing or dead token is ignored and the call proceeds anonymously.
func AuthUnary(sessions SessionResolver, publicMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		token := extractBearer(ctx)
		public := publicMethods[info.FullMethod]

		if token == "" {
			if public {
				return handler(ctx, req)
			}
			return nil, fmt.Errorf("%w: missing or invalid authorization", apperr.ErrUnauthorized)
		}

		sess, err := sessions.Resolve(ctx, token)
		if err != nil {
			if public {
				return handler(ctx, req)
			}
			return nil, err
		}

		ctx = WithIdentity(ctx, sess.UserID, sess.ID)
		return handler(ctx, req)
	}
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
