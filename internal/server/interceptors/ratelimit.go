package interceptors

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/TobiasDeBruijn/invoicex/internal/obs"
)

const limiterIdleTTL = 10 * time.Minute

// IPLimiter hands out one token bucket per client IP. Buckets idle for longer than
// limiterIdleTTL are dropped on the next sweep.
type IPLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	buckets   map[string]*ipBucket
	lastSweep time.Time
	now       func() time.Time
}

type ipBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewIPLimiter allows perMinute events per IP with the given burst.
func NewIPLimiter(perMinute, burst int) *IPLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		buckets: make(map[string]*ipBucket),
		now:     time.Now,
	}
}

// Allow reports whether ip may make one more call now.
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > limiterIdleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}
	b, ok := l.buckets[ip]
	if !ok {
		b = &ipBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// RateLimitUnary returns a unary server interceptor that applies limiter per client IP to the
// given full methods (Register and Login). Other methods pass through. clientIP keys the buckets;
// nil means ClientIP, the connected peer. A rejected call is ResourceExhausted and, for Login,
// counted as a rate-limited login.
func RateLimitUnary(limiter *IPLimiter, clientIP func(context.Context) string, methods map[string]bool, loginMethod string, metrics *obs.Metrics) grpc.UnaryServerInterceptor {
	if clientIP == nil {
		clientIP = ClientIP
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if limiter == nil || !methods[info.FullMethod] {
			return handler(ctx, req)
		}
		if !limiter.Allow(clientIP(ctx)) {
			if info.FullMethod == loginMethod {
				metrics.Login(obs.LoginRateLimited)
			}
			return nil, status.Error(codes.ResourceExhausted, "too many requests, retry later")
		}
		return handler(ctx, req)
	}
}
