package ratelimit

import (
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/keithlinneman/linnemanlabs-gate/internal/cryptoutil"
	"github.com/keithlinneman/linnemanlabs-gate/internal/httpmw"
)

// APIKeyHeader carries an optional client credential. When present it keys the
// limiter instead of the client IP.
const APIKeyHeader = "X-API-Key"

// retryAfterSeconds is a static hint, the limiter does not compute when quota frees up
const retryAfterSeconds = "60"

// KeyFunc derives the client id used to bucket a request.
type KeyFunc func(r *http.Request) string

// ClientKey keys requests by a fingerprint of the API key when one is sent,
// otherwise by the client IP resolved by httpmw.ClientIP.
// The raw key is never stored, only the first 16 hex chars of its sha256.
func ClientKey(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get(APIKeyHeader)); k != "" {
		return "key_" + cryptoutil.Fingerprint(k)
	}
	return "ip_" + httpmw.ClientIPFromContext(r.Context())
}

// Middleware rejects requests over either limit with 429, keyed by ClientKey.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return l.MiddlewareWithKey(ClientKey)(next)
}

// MiddlewareWithKey is Middleware with a custom KeyFunc (nil means ClientKey).
func (l *Limiter) MiddlewareWithKey(key KeyFunc) func(http.Handler) http.Handler {
	if key == nil {
		key = ClientKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := key(r)
			allowed, rem := l.decide(id)

			if span := trace.SpanFromContext(r.Context()); span.IsRecording() {
				span.SetAttributes(
					attribute.Bool("ratelimit.allowed", allowed),
					attribute.Int("ratelimit.remaining.minute", rem.PerMinute),
					attribute.Int("ratelimit.remaining.hour", rem.PerHour),
				)
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.perMinute)+" requests per minute")

			if !allowed {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.Header().Set("Retry-After", retryAfterSeconds)
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", retryAfterSeconds)
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"Rate limit exceeded. Please try again later."}`))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(min(rem.PerMinute, rem.PerHour), 0)))
			next.ServeHTTP(w, r)
		})
	}
}
