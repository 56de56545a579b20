package opshttp

import (
	"net/http"

	"github.com/keithlinneman/linnemanlabs-gate/internal/health"
	"github.com/keithlinneman/linnemanlabs-gate/internal/ratelimit"
)

// QuotaReader is the read side of the limiter exposed to operators.
type QuotaReader interface {
	Status(clientID string) ratelimit.Status
	Clients() int
}

type Options struct {
	Port         int
	Metrics      http.Handler
	EnablePprof  bool
	Health       health.Probe
	Readiness    health.Probe
	UseRecoverMW bool
	OnPanic      func() // Optional callback for recovered panics, e.g. to increment prometheus counters

	// Limiter enables GET /ratelimit/remaining?client=<id> when set
	Limiter QuotaReader
}
