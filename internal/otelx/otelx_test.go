package otelx

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Options{Enabled: false, Sample: 99})
	if err != nil {
		t.Fatalf("Init disabled: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatalf("TracerProvider type = %T, want *sdktrace.TracerProvider", otel.GetTracerProvider())
	}
}

func TestInit_Disabled_SpansHaveIDs(t *testing.T) {
	_, _ = Init(context.Background(), Options{Enabled: false})

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	if !span.SpanContext().TraceID().IsValid() {
		t.Fatal("disabled tracing should still produce valid trace ids for log correlation")
	}
}

func TestInit_SetsPropagator(t *testing.T) {
	_, _ = Init(context.Background(), Options{Enabled: false})

	fields := map[string]bool{}
	for _, f := range otel.GetTextMapPropagator().Fields() {
		fields[f] = true
	}
	for _, want := range []string{"traceparent", "baggage"} {
		if !fields[want] {
			t.Errorf("propagator missing %s field", want)
		}
	}
}

func TestInit_Enabled_RequiresEndpoint(t *testing.T) {
	if _, err := Init(context.Background(), Options{Enabled: true}); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}

func TestInit_Enabled_ReturnsPromptly(t *testing.T) {
	// gRPC defers the connection, so an unreachable collector must not
	// block startup past the dial timeout.
	start := time.Now()
	shutdown, err := Init(context.Background(), Options{
		Enabled:     true,
		Endpoint:    "localhost:1",
		Insecure:    true,
		Sample:      1.0,
		Service:     "test",
		Component:   "server",
		Version:     "v0.0.0-test",
		DialTimeout: time.Second,
	})
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("Init took %v", elapsed)
	}
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(ctx)
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1, "root:AlwaysOnSampler"},
		{2.5, "root:AlwaysOnSampler"},
		{0, "root:AlwaysOffSampler"},
		{-1, "root:AlwaysOffSampler"},
		{0.25, "root:TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		desc := sampler(tt.ratio).Description()
		if !strings.HasPrefix(desc, "ParentBased{") || !strings.Contains(desc, tt.want) {
			t.Errorf("sampler(%v) = %q, want ParentBased with %s", tt.ratio, desc, tt.want)
		}
	}
}

func TestServiceName(t *testing.T) {
	tests := []struct {
		o    Options
		want string
	}{
		{Options{Service: "linnemanlabs-gate", Component: "server"}, "linnemanlabs-gate.server"},
		{Options{Service: "linnemanlabs-gate"}, "linnemanlabs-gate"},
		{Options{Component: "server"}, "server"},
	}
	for _, tt := range tests {
		if got := serviceName(tt.o); got != tt.want {
			t.Errorf("serviceName(%+v) = %q, want %q", tt.o, got, tt.want)
		}
	}
}

func TestExporterOptions(t *testing.T) {
	base := exporterOptions(Options{Endpoint: "collector:4317"})
	if len(base) != 2 {
		t.Fatalf("base options = %d, want endpoint and user agent", len(base))
	}

	full := exporterOptions(Options{
		Endpoint: "collector:4317",
		Insecure: true,
		Headers:  map[string]string{"x-scope-orgid": "gate"},
	})
	if len(full) != 4 {
		t.Fatalf("full options = %d, want 4", len(full))
	}
}
