package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Reason names the window that rejected a request.
type Reason string

const (
	ReasonHour   Reason = "hour"
	ReasonMinute Reason = "minute"
)

// Remaining is the quota left for a client in each window.
// Values are not clamped, callers should treat <= 0 as exhausted.
type Remaining struct {
	PerMinute int `json:"per_minute"`
	PerHour   int `json:"per_hour"`
}

// Limiter admits or rejects requests per client id under two sliding windows:
// a 60 second window capped at perMinute and a 3600 second window capped at perHour.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*window

	perMinute int
	perHour   int

	// now is the time source, swapped out in tests
	now func() time.Time

	// sweepInterval controls how often empty client windows are evicted, 0 disables the sweep
	sweepInterval time.Duration

	// OnAllowed is called on every admitted request
	OnAllowed func(clientID string)

	// OnDenied is called on every rejected request, used for incrementing prometheus counters
	OnDenied func(clientID string, reason Reason)

	// OnFirstDenied is called once per client per denial streak, used for logging
	OnFirstDenied func(clientID string, reason Reason)

	// OnEvicted is called after a sweep removed at least one client
	OnEvicted func(n int)
}

type Option func(*Limiter)

// WithClock replaces time.Now as the limiter's time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithSweepInterval controls how often clients with empty windows are evicted.
// A zero or negative interval disables the background sweep.
func WithSweepInterval(d time.Duration) Option {
	return func(l *Limiter) {
		l.sweepInterval = d
	}
}

// WithOnAllowed sets a callback for every admitted request.
func WithOnAllowed(fn func(clientID string)) Option {
	return func(l *Limiter) {
		l.OnAllowed = fn
	}
}

// WithOnDenied sets a callback for every denied request.
func WithOnDenied(fn func(clientID string, reason Reason)) Option {
	return func(l *Limiter) {
		l.OnDenied = fn
	}
}

// WithOnFirstDenied sets a callback for the first denial of each streak per client.
// Separate from OnDenied so we can log once but count every denial.
func WithOnFirstDenied(fn func(clientID string, reason Reason)) Option {
	return func(l *Limiter) {
		l.OnFirstDenied = fn
	}
}

// WithOnEvicted sets a callback reporting how many clients a sweep removed.
func WithOnEvicted(fn func(n int)) Option {
	return func(l *Limiter) {
		l.OnEvicted = fn
	}
}

// New creates a Limiter with the given thresholds. Both must be positive, the
// config layer validates them before we get here.
// If the sweep is enabled it runs until ctx is cancelled.
func New(ctx context.Context, perMinute, perHour int, opts ...Option) *Limiter {
	l := &Limiter{
		clients:       make(map[string]*window),
		perMinute:     perMinute,
		perHour:       perHour,
		now:           time.Now,
		sweepInterval: 5 * time.Minute,
	}
	for _, o := range opts {
		o(l)
	}
	if l.sweepInterval > 0 {
		go l.sweepLoop(ctx)
	}
	return l
}

// Limits returns the configured per-minute and per-hour thresholds.
func (l *Limiter) Limits() (perMinute, perHour int) {
	return l.perMinute, l.perHour
}

// Allow reports whether clientID may make a request now, and records it if so.
func (l *Limiter) Allow(clientID string) bool {
	allowed, _ := l.decide(clientID)
	return allowed
}

// decide runs prune, hour check, minute check and append as one critical
// section and returns the quota left afterwards. Hooks run after the lock is
// released since they may do slow work.
func (l *Limiter) decide(clientID string) (bool, Remaining) {
	l.mu.Lock()
	now := l.now()
	w, ok := l.clients[clientID]
	if !ok {
		w = &window{}
		l.clients[clientID] = w
	}
	w.prune(now)

	var reason Reason
	minute := w.within(now, minuteWindow)
	switch {
	case w.size() >= l.perHour:
		reason = ReasonHour
	case minute >= l.perMinute:
		reason = ReasonMinute
	default:
		w.add(now)
		w.denied = false
		rem := Remaining{PerMinute: l.perMinute - (minute + 1), PerHour: l.perHour - w.size()}
		l.mu.Unlock()
		if l.OnAllowed != nil {
			l.OnAllowed(clientID)
		}
		return true, rem
	}

	first := !w.denied
	w.denied = true
	rem := Remaining{PerMinute: l.perMinute - minute, PerHour: l.perHour - w.size()}
	l.mu.Unlock()

	if first && l.OnFirstDenied != nil {
		l.OnFirstDenied(clientID, reason)
	}
	if l.OnDenied != nil {
		l.OnDenied(clientID, reason)
	}
	return false, rem
}

// Remaining prunes expired entries for clientID and reports the quota left in
// each window. It never records a request. Unknown clients get full quota and
// are not added to the map.
func (l *Limiter) Remaining(clientID string) Remaining {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.clients[clientID]
	if !ok {
		return Remaining{PerMinute: l.perMinute, PerHour: l.perHour}
	}
	now := l.now()
	w.prune(now)
	return Remaining{
		PerMinute: l.perMinute - w.within(now, minuteWindow),
		PerHour:   l.perHour - w.size(),
	}
}

// Clients returns the number of client windows currently tracked.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Status is a read-only view of one client's quota, served by the status
// endpoints.
type Status struct {
	Client         string    `json:"client"`
	LimitPerMinute int       `json:"limit_per_minute"`
	LimitPerHour   int       `json:"limit_per_hour"`
	Remaining      Remaining `json:"remaining"`
}

// Status reports clientID's quota without recording a request.
func (l *Limiter) Status(clientID string) Status {
	return Status{
		Client:         clientID,
		LimitPerMinute: l.perMinute,
		LimitPerHour:   l.perHour,
		Remaining:      l.Remaining(clientID),
	}
}
