package ratelimit

import (
	"context"
	"time"
)

// Sweep prunes every window and evicts clients left with no entries.
// Returns the number of evicted clients. An evicted client behaves exactly
// like one that was never seen, so this only bounds memory.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	now := l.now()
	evicted := 0
	for id, w := range l.clients {
		w.prune(now)
		if w.size() == 0 {
			delete(l.clients, id)
			evicted++
		}
	}
	l.mu.Unlock()

	if evicted > 0 && l.OnEvicted != nil {
		l.OnEvicted(evicted)
	}
	return evicted
}

// sweepLoop runs Sweep every sweepInterval until ctx is cancelled (app shutdown).
func (l *Limiter) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
