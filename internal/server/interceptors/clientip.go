package interceptors

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

const unknownIP = "unknown"

// ClientIP returns the IP of the connected peer, or "unknown". Forwarding metadata is ignored:
// any caller can set it.
func ClientIP(ctx context.Context) string {
	if addr, ok := peerAddr(ctx); ok {
		return addr.String()
	}
	return unknownIP
}

// TrustedProxies resolves the client IP for a server deployed behind reverse proxies. Forwarding
// metadata (x-forwarded-for, x-real-ip) is only honored when the connected peer is one of the
// configured proxies.
type TrustedProxies struct {
	prefixes []netip.Prefix
}

// NewTrustedProxies parses entries as IP addresses or CIDR prefixes. No entries means no proxy is
// trusted and ClientIP behaves like the package-level ClientIP.
func NewTrustedProxies(entries []string) (*TrustedProxies, error) {
	t := &TrustedProxies{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
			}
			t.prefixes = append(t.prefixes, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		a = a.Unmap()
		t.prefixes = append(t.prefixes, netip.PrefixFrom(a, a.BitLen()))
	}
	return t, nil
}

// ClientIP returns the peer IP unless the peer is a trusted proxy. Behind a trusted proxy it walks
// x-forwarded-for from the nearest hop outwards and returns the first address that is not itself a
// trusted proxy, falling back to x-real-ip and then to the peer.
func (t *TrustedProxies) ClientIP(ctx context.Context) string {
	addr, ok := peerAddr(ctx)
	if !ok {
		return unknownIP
	}
	if t == nil || !t.trusted(addr) {
		return addr.String()
	}
	md, _ := metadata.FromIncomingContext(ctx)
	var hops []string
	for _, v := range md.Get("x-forwarded-for") {
		hops = append(hops, strings.Split(v, ",")...)
	}
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		hop = hop.Unmap()
		if !t.trusted(hop) {
			return hop.String()
		}
	}
	if vals := md.Get("x-real-ip"); len(vals) > 0 {
		if real, err := netip.ParseAddr(strings.TrimSpace(vals[0])); err == nil {
			return real.Unmap().String()
		}
	}
	return addr.String()
}

func (t *TrustedProxies) trusted(addr netip.Addr) bool {
	for _, p := range t.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func peerAddr(ctx context.Context) (netip.Addr, bool) {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(p.Addr.String()); err == nil {
		return ap.Addr().Unmap(), true
	}
	if a, err := netip.ParseAddr(p.Addr.String()); err == nil {
		return a.Unmap(), true
	}
	return netip.Addr{}, false
}
