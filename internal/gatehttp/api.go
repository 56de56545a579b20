package gatehttp

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/linnemanlabs-gate/internal/httpmw"
	"github.com/keithlinneman/linnemanlabs-gate/internal/log"
	"github.com/keithlinneman/linnemanlabs-gate/internal/pathutil"
	"github.com/keithlinneman/linnemanlabs-gate/internal/ratelimit"
	"github.com/keithlinneman/linnemanlabs-gate/internal/xerrors"
)

// UpstreamMetrics receives proxy outcomes. *metrics.ServerMetrics satisfies it.
type UpstreamMetrics interface {
	IncUpstreamError(kind string)
	ObserveUpstreamDuration(seconds float64)
}

type Options struct {
	Logger  log.Logger
	Limiter *ratelimit.Limiter

	// KeyFunc buckets requests, nil means ratelimit.ClientKey
	KeyFunc ratelimit.KeyFunc

	Upstream *url.URL

	// Timeout bounds the wait for upstream response headers
	Timeout time.Duration

	// Transport overrides the upstream transport, mainly for tests
	Transport http.RoundTripper

	Metrics UpstreamMetrics
}

type API struct {
	logger  log.Logger
	limiter *ratelimit.Limiter
	key     ratelimit.KeyFunc
	proxy   http.Handler
}

func New(opts Options) (*API, error) {
	if opts.Limiter == nil {
		return nil, xerrors.New("gatehttp: limiter is required")
	}
	if opts.Upstream == nil || opts.Upstream.Scheme == "" || opts.Upstream.Host == "" {
		return nil, xerrors.New("gatehttp: absolute upstream URL is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.KeyFunc == nil {
		opts.KeyFunc = ratelimit.ClientKey
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}

	return &API{
		logger:  opts.Logger,
		limiter: opts.Limiter,
		key:     opts.KeyFunc,
		proxy:   newProxy(opts),
	}, nil
}

// RegisterRoutes mounts /api. The status route is not rate limited and never
// consumes quota; everything else under /api is limited then proxied.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.With(httpmw.Scope("ratelimit_status")).Get("/v1/ratelimit", a.handleStatus)
		r.With(httpmw.Scope("proxy"), a.limiter.MiddlewareWithKey(a.key), rejectDotSegments).Handle("/*", a.proxy)
	})
}

// rejectDotSegments refuses paths the upstream could resolve outside /api.
// It runs after the limiter so probing still spends quota.
func rejectDotSegments(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if pathutil.HasDotSegments(r.URL.EscapedPath()) {
			httpmw.WriteError(w, http.StatusBadRequest, "invalid path")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	httpmw.WriteJSON(w, http.StatusOK, a.limiter.Status(a.key(r)))
}

type nopMetrics struct{}

func (nopMetrics) IncUpstreamError(string)         {}
func (nopMetrics) ObserveUpstreamDuration(float64) {}
