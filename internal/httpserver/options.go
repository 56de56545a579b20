package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/linnemanlabs-gate/internal/health"
	"github.com/keithlinneman/linnemanlabs-gate/internal/httpmw"
	"github.com/keithlinneman/linnemanlabs-gate/internal/log"
)

type Options struct {
	Logger       log.Logger
	Port         int
	UseRecoverMW bool
	OnPanic      func()
	MetricsMW    func(http.Handler) http.Handler
	Health       health.Probe
	Readiness    health.Probe

	// APIRoutes registers the gate routes, rate limiting is applied there
	APIRoutes func(chi.Router)

	ClientIPOpts httpmw.ClientIPOptions

	// MaxBodyBytes caps request bodies, 0 means DefaultMaxBodyBytes
	MaxBodyBytes int64
}
