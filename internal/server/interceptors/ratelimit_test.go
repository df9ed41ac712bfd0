package interceptors

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/TobiasDeBruijn/invoicex/internal/obs"
)

const (
	loginMethod    = "/invoicex.v1.AuthService/Login"
	registerMethod = "/invoicex.v1.AuthService/Register"
)

// fromIP returns a context whose connected peer is ip.
func fromIP(ip string) context.Context {
	return peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.ParseIP(ip), Port: 40000}})
}

func TestIPLimiter_BurstPerIP(t *testing.T) {
	l := NewIPLimiter(1, 2)
	fixed := time.Unix(1700000000, 0)
	l.now = func() time.Time { return fixed }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.Allow("a") {
		t.Error("third call within the same instant should be rejected")
	}
	if !l.Allow("b") {
		t.Error("another IP has its own bucket")
	}
	fixed = fixed.Add(2 * time.Minute)
	if !l.Allow("a") {
		t.Error("tokens should refill over time")
	}
}

func TestIPLimiter_SweepsIdleBuckets(t *testing.T) {
	l := NewIPLimiter(60, 1)
	fixed := time.Unix(1700000000, 0)
	l.now = func() time.Time { return fixed }
	l.Allow("a")
	fixed = fixed.Add(2 * limiterIdleTTL)
	l.Allow("b")
	if _, ok := l.buckets["a"]; ok {
		t.Error("idle bucket should be swept")
	}
	if len(l.buckets) != 1 {
		t.Errorf("buckets = %d, want 1", len(l.buckets))
	}
}

func TestRateLimitUnary(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := obs.NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	limiter := NewIPLimiter(1, 1)
	interceptor := RateLimitUnary(limiter, nil, map[string]bool{loginMethod: true, registerMethod: true}, loginMethod, metrics)
	login := &grpc.UnaryServerInfo{FullMethod: loginMethod}

	if _, err := interceptor(fromIP("1.1.1.1"), "req", login, okHandler); err != nil {
		t.Fatalf("first login: %v", err)
	}
	_, err = interceptor(fromIP("1.1.1.1"), "req", login, okHandler)
	if status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("second login err = %v, want ResourceExhausted", err)
	}
	if _, err := interceptor(fromIP("2.2.2.2"), "req", login, okHandler); err != nil {
		t.Errorf("other IP should pass: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := interceptor(fromIP("1.1.1.1"), "req", &grpc.UnaryServerInfo{FullMethod: "/invoicex.v1.ProductService/GetProduct"}, okHandler); err != nil {
			t.Fatalf("unlimited method rejected: %v", err)
		}
	}
	n, err := testutil.GatherAndCount(reg, "invoicex_logins_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Errorf("logins_total series = %d, want 1 (rate_limited)", n)
	}
}

func TestRateLimitUnary_NilLimiter(t *testing.T) {
	interceptor := RateLimitUnary(nil, nil, map[string]bool{loginMethod: true}, loginMethod, nil)
	for i := 0; i < 5; i++ {
		if _, err := interceptor(fromIP("1.1.1.1"), "req", &grpc.UnaryServerInfo{FullMethod: loginMethod}, okHandler); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
}

func TestRateLimitUnary_IgnoresForwardedHeadersFromUntrustedPeer(t *testing.T) {
	interceptor := RateLimitUnary(NewIPLimiter(1, 1), nil, map[string]bool{loginMethod: true}, loginMethod, nil)
	login := &grpc.UnaryServerInfo{FullMethod: loginMethod}

	allowed := 0
	for i := 0; i < 50; i++ {
		md := metadata.Pairs("x-forwarded-for", fmt.Sprintf("198.51.100.%d", i), "x-real-ip", fmt.Sprintf("203.0.113.%d", i))
		ctx := metadata.NewIncomingContext(fromIP("192.0.2.10"), md)
		if _, err := interceptor(ctx, "req", login, okHandler); err == nil {
			allowed++
		} else if status.Code(err) != codes.ResourceExhausted {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if allowed != 1 {
		t.Errorf("allowed %d of 50 logins from one peer with burst 1, want 1", allowed)
	}
}

func TestRateLimitUnary_TrustedProxyKeysOnForwardedClient(t *testing.T) {
	proxies, err := NewTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("NewTrustedProxies: %v", err)
	}
	interceptor := RateLimitUnary(NewIPLimiter(1, 1), proxies.ClientIP, map[string]bool{loginMethod: true}, loginMethod, nil)
	login := &grpc.UnaryServerInfo{FullMethod: loginMethod}
	via := func(client string) context.Context {
		return metadata.NewIncomingContext(fromIP("10.0.0.2"), metadata.Pairs("x-forwarded-for", client))
	}

	if _, err := interceptor(via("198.51.100.1"), "req", login, okHandler); err != nil {
		t.Fatalf("first client: %v", err)
	}
	if _, err := interceptor(via("198.51.100.2"), "req", login, okHandler); err != nil {
		t.Errorf("second client behind the same proxy should have its own bucket: %v", err)
	}
	if _, err := interceptor(via("198.51.100.1"), "req", login, okHandler); status.Code(err) != codes.ResourceExhausted {
		t.Errorf("repeat from first client err = %v, want ResourceExhausted", err)
	}
}
