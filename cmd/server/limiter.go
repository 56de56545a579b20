package main

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/keithlinneman/linnemanlabs-gate/internal/log"
	"github.com/keithlinneman/linnemanlabs-gate/internal/ratelimit"
)

// limiterMetrics is the slice of *metrics.ServerMetrics the limiter hooks feed.
type limiterMetrics interface {
	IncRateLimitAllowed()
	IncRateLimitDenied(reason string)
	AddRateLimitEvicted(n int)
}

// denialMessage is the log text for a rejection by reason.
func denialMessage(r ratelimit.Reason) string {
	if r == ratelimit.ReasonHour {
		return "hourly limit"
	}
	return "minute limit"
}

// newLimiter builds the limiter with hooks wired to metrics and logs.
// Every denial is counted, the first denial of each client streak is logged,
// and a summary warning is logged at most once per summaryEvery.
func newLimiter(ctx context.Context, L log.Logger, m limiterMetrics, perMinute, perHour int, sweep, summaryEvery time.Duration, extra ...ratelimit.Option) *ratelimit.Limiter {
	var sinceSummary atomic.Int64
	summary := &rate.Sometimes{First: 1, Interval: summaryEvery}

	opts := []ratelimit.Option{
		ratelimit.WithSweepInterval(sweep),
		ratelimit.WithOnAllowed(func(string) {
			m.IncRateLimitAllowed()
		}),
		ratelimit.WithOnDenied(func(client string, reason ratelimit.Reason) {
			m.IncRateLimitDenied(string(reason))
			sinceSummary.Add(1)
			summary.Do(func() {
				L.Warn(ctx, "rate limit rejecting requests",
					"denied", sinceSummary.Swap(0),
					"last_client", client,
					"last_reason", denialMessage(reason),
				)
			})
		}),
		ratelimit.WithOnFirstDenied(func(client string, reason ratelimit.Reason) {
			L.Info(ctx, "rate limit exceeded", "client", client, "reason", denialMessage(reason))
		}),
		ratelimit.WithOnEvicted(func(n int) {
			m.AddRateLimitEvicted(n)
			L.Debug(ctx, "evicted idle rate limit clients", "evicted", n)
		}),
	}
	return ratelimit.New(ctx, perMinute, perHour, append(opts, extra...)...)
}
