package gatehttp

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httputil"
	"syscall"
	"time"

	"github.com/keithlinneman/linnemanlabs-gate/internal/httpmw"
	"github.com/keithlinneman/linnemanlabs-gate/internal/log"
)

// Upstream error kinds, used as the upstream_errors_total label.
const (
	kindTimeout  = "timeout"
	kindCanceled = "canceled"
	kindRefused  = "refused"
	kindOther    = "other"
)

func newProxy(opts Options) http.Handler {
	upstream := opts.Upstream
	transport := opts.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.ResponseHeaderTimeout = opts.Timeout
		transport = t
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
			// the resolved client, not the immediate peer
			if ip := httpmw.ClientIPFromContext(pr.In.Context()); ip != "" {
				pr.Out.Header.Set("X-Forwarded-For", ip)
			}
		},
		Transport:    &timedTransport{next: transport, metrics: opts.Metrics},
		ErrorHandler: errorHandler(opts.Metrics),
	}
}

// timedTransport observes the time to upstream response headers.
type timedTransport struct {
	next    http.RoundTripper
	metrics UpstreamMetrics
}

func (t *timedTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(r)
	if err == nil {
		t.metrics.ObserveUpstreamDuration(time.Since(start).Seconds())
	}
	return resp, err
}

func errorHandler(m UpstreamMetrics) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		ctx := r.Context()
		kind := classify(ctx, err)
		m.IncUpstreamError(kind)

		L := log.FromContext(ctx)
		if kind == kindCanceled {
			// client went away, nobody reads the response
			L.Debug(ctx, "upstream request canceled by client", "err", err)
		} else {
			L.Error(ctx, err, "upstream request failed", "upstream.error_kind", kind)
		}
		httpmw.WriteError(w, http.StatusBadGateway, "upstream unavailable")
	}
}

func classify(ctx context.Context, err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return kindCanceled
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return kindTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return kindRefused
	}
	return kindOther
}
