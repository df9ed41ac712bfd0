package interceptors

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"

	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
)

// StatusUnary returns a unary server interceptor that converts the apperr kinds returned by
// handlers and inner interceptors into gRPC status errors. It must be the outermost interceptor.
func StatusUnary(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return nil, apperr.ToStatus(ctx, logger.With("method", info.FullMethod), err)
		}
		return resp, nil
	}
}
