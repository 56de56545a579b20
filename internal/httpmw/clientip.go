package httpmw

import (
	"context"
	"net/http"
	"net/netip"
	"strings"
)

type clientIPKey struct{}

// unknownIP is stored when the peer address cannot be parsed, so all such
// requests share one limiter bucket instead of each getting a fresh one.
const unknownIP = "0.0.0.0"

// ClientIPOptions configures client IP extraction.
type ClientIPOptions struct {
	// TrustedHops is the number of reverse proxies in front of the gate.
	// 0 ignores forwarding headers, 1 takes the rightmost X-Forwarded-For
	// entry (single ALB), 2 the second from the right (CDN + ALB), etc.
	TrustedHops int
}

// ClientIPWithOptions returns middleware that resolves the client IP per opts
// and stores it in the request context for the rate limiter and logs.
func ClientIPWithOptions(opts ClientIPOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolveClientIP(r, opts.TrustedHops)
			next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), ip)))
		})
	}
}

// resolveClientIP returns the peer address unless the peer is a private
// address and proxies are trusted, in which case the forwarding headers are
// consulted. Untrusted forwarding headers are removed from the request so
// nothing downstream (including the upstream proxy) acts on them.
func resolveClientIP(r *http.Request, trustedHops int) string {
	peer, err := netip.ParseAddrPort(r.RemoteAddr)
	var addr netip.Addr
	if err == nil {
		addr = peer.Addr().Unmap()
	} else if a, aerr := netip.ParseAddr(r.RemoteAddr); aerr == nil {
		// RemoteAddr without a port, seen with some test harnesses and unix sockets
		addr = a.Unmap()
	} else {
		stripForwarded(r.Header)
		return unknownIP
	}

	if trustedHops <= 0 || !addr.IsPrivate() {
		stripForwarded(r.Header)
		return addr.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		idx := len(parts) - trustedHops
		if idx < 0 {
			// fewer hops than configured proxies, fail closed
			stripForwarded(r.Header)
			return addr.String()
		}
		if fwd, err := netip.ParseAddr(strings.TrimSpace(parts[idx])); err == nil {
			return fwd.Unmap().String()
		}
		return addr.String()
	}

	// single proxy setups (nginx) often only send X-Real-IP
	if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
		if fwd, err := netip.ParseAddr(xr); err == nil {
			return fwd.Unmap().String()
		}
	}
	return addr.String()
}

func stripForwarded(h http.Header) {
	h.Del("X-Forwarded-For")
	h.Del("X-Forwarded-Proto")
	h.Del("X-Real-IP")
}

// ClientIPFromContext returns the IP stored by ClientIP, or "".
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// WithClientIP stores ip in ctx. An empty ip leaves ctx unchanged.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}
