package httpmw

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func timeNow() time.Time { return time.Now() }

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":         "no-referrer",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if !strings.HasPrefix(rec.Header().Get("Strict-Transport-Security"), "max-age=") {
		t.Error("HSTS missing")
	}
}

func TestMaxBody(t *testing.T) {
	var readErr error
	h := MaxBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	// declared length over the cap is rejected before the handler runs
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}

	// unknown length is cut off while reading
	r := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader("0123456789")))
	r.ContentLength = -1
	h.ServeHTTP(httptest.NewRecorder(), r)
	if readErr == nil {
		t.Fatal("reading past the cap should fail")
	}

	readErr = nil
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	if readErr != nil {
		t.Fatalf("small body: %v", readErr)
	}
}

func sampledContext(t *testing.T) (context.Context, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, _ := tp.Tracer("test").Start(context.Background(), "server")
	return ctx, sr
}

func TestTraceResponseHeaders(t *testing.T) {
	h := TraceResponseHeaders("", "")(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Trace-Id") != "" {
		t.Fatal("no span, no header")
	}

	ctx, _ := sampledContext(t)
	sc := trace.SpanContextFromContext(ctx)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	if rec.Header().Get("X-Trace-Id") != sc.TraceID().String() {
		t.Fatalf("X-Trace-Id = %q", rec.Header().Get("X-Trace-Id"))
	}
	if rec.Header().Get("X-Span-Id") != sc.SpanID().String() {
		t.Fatalf("X-Span-Id = %q", rec.Header().Get("X-Span-Id"))
	}
}

func TestAnnotateHTTPRoute(t *testing.T) {
	ctx, sr := sampledContext(t)

	router := chi.NewRouter()
	router.Use(AnnotateHTTPRoute)
	router.Get("/api/*", func(w http.ResponseWriter, r *http.Request) {})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/users/7", nil).WithContext(ctx))
	trace.SpanFromContext(ctx).End()

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d", len(spans))
	}
	if spans[0].Name() != "GET /api/*" {
		t.Fatalf("span name = %q, want GET /api/*", spans[0].Name())
	}
}

func TestRoutePattern_NoRouter(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/raw/path", nil)
	if got := RoutePattern(r); got != "/raw/path" {
		t.Fatalf("RoutePattern = %q", got)
	}
}
