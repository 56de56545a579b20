package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keithlinneman/linnemanlabs-gate/internal/version"
)

// Decision label values for ratelimit_decisions_total.
const (
	DecisionAllowed = "allowed"
	DecisionDenied  = "denied"
)

type ServerMetrics struct {
	reg     *prometheus.Registry
	handler http.Handler

	inflight       prometheus.Gauge
	reqTotal       *prometheus.CounterVec
	reqDur         *prometheus.HistogramVec
	respBytes      *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
	httpPanicTotal prometheus.Counter
	buildInfo      *prometheus.GaugeVec

	profilingActive prometheus.Gauge

	// rate limiter
	ratelimitDecisions *prometheus.CounterVec
	ratelimitEvicted   prometheus.Counter
	ratelimitLimit     *prometheus.GaugeVec

	// upstream proxy
	upstreamErrors   *prometheus.CounterVec
	upstreamDuration prometheus.Histogram
}

// New returns a fresh registry with the go/process collectors and the gate's
// metrics. Labels are bounded (method, route, status, reason), client ids
// never become labels.
func New() *ServerMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &ServerMetrics{
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests",
		}),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		}, []string{"method", "route", "status"}),
		reqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency by method and route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"}),
		respBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Response size by method and route",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"method", "route"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total 5xx HTTP server errors by method and route (SLI)",
		}, []string{"method", "route"}),
		httpPanicTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_panic_total",
			Help: "Total number of recovered httpserver panics",
		}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build metadata (value is always 1)",
		}, []string{"app", "component", "version", "commit", "commit_date", "build_id", "build_date", "vcs_dirty", "go_version"}),
		profilingActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "profiling_active",
			Help: "Whether continuous profiling is active (1) or disabled/failed (0)",
		}),
		ratelimitDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ratelimit_decisions_total",
			Help: "Rate limiter decisions by outcome and, for denials, the window that rejected",
		}, []string{"decision", "reason"}),
		ratelimitEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ratelimit_evicted_clients_total",
			Help: "Client windows removed by the idle sweep",
		}),
		ratelimitLimit: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ratelimit_limit_requests",
			Help: "Configured request ceiling per window",
		}, []string{"window"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upstream_errors_total",
			Help: "Proxied requests that failed before a response was received from the upstream",
		}, []string{"kind"}),
		upstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Time from forwarding a request to receiving the upstream response headers",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.inflight,
		m.reqTotal,
		m.reqDur,
		m.respBytes,
		m.errorsTotal,
		m.httpPanicTotal,
		m.buildInfo,
		m.profilingActive,
		m.ratelimitDecisions,
		m.ratelimitEvicted,
		m.ratelimitLimit,
		m.upstreamErrors,
		m.upstreamDuration,
	)

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	m.reg = reg
	return m
}

func (m *ServerMetrics) Handler() http.Handler { return m.handler }

func (m *ServerMetrics) IncHTTPPanic() { m.httpPanicTotal.Inc() }

// SetBuildInfoFromVersion is called once at startup.
func (m *ServerMetrics) SetBuildInfoFromVersion(component string, vi *version.Info) {
	dirty := "unknown"
	if vi.VCSDirty != nil {
		dirty = strconv.FormatBool(*vi.VCSDirty)
	}
	m.buildInfo.With(prometheus.Labels{
		"app":         vi.AppName,
		"component":   component,
		"version":     vi.Version,
		"commit":      vi.Commit,
		"commit_date": vi.CommitDate,
		"build_id":    vi.BuildId,
		"build_date":  vi.BuildDate,
		"go_version":  vi.GoVersion,
		"vcs_dirty":   dirty,
	}).Set(1)
}

func (m *ServerMetrics) SetProfilingActive(active bool) {
	if active {
		m.profilingActive.Set(1)
	} else {
		m.profilingActive.Set(0)
	}
}

// IncRateLimitAllowed counts an admitted request.
func (m *ServerMetrics) IncRateLimitAllowed() {
	m.ratelimitDecisions.WithLabelValues(DecisionAllowed, "").Inc()
}

// IncRateLimitDenied counts a rejection. reason is the window that rejected
// ("minute" or "hour").
func (m *ServerMetrics) IncRateLimitDenied(reason string) {
	m.ratelimitDecisions.WithLabelValues(DecisionDenied, reason).Inc()
}

func (m *ServerMetrics) AddRateLimitEvicted(n int) {
	m.ratelimitEvicted.Add(float64(n))
}

// SetRateLimitLimits publishes the configured thresholds.
func (m *ServerMetrics) SetRateLimitLimits(perMinute, perHour int) {
	m.ratelimitLimit.WithLabelValues("minute").Set(float64(perMinute))
	m.ratelimitLimit.WithLabelValues("hour").Set(float64(perHour))
}

// TrackClients exposes ratelimit_tracked_clients, read from fn at scrape time.
// Calling it twice panics on duplicate registration.
func (m *ServerMetrics) TrackClients(fn func() int) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "ratelimit_tracked_clients",
		Help: "Number of client windows held in memory by the rate limiter",
	}, func() float64 { return float64(fn()) }))
}

// IncUpstreamError counts a proxy failure. kind is a small fixed set
// (timeout, canceled, refused, other).
func (m *ServerMetrics) IncUpstreamError(kind string) {
	m.upstreamErrors.WithLabelValues(kind).Inc()
}

func (m *ServerMetrics) ObserveUpstreamDuration(seconds float64) {
	m.upstreamDuration.Observe(seconds)
}
