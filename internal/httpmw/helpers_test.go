package httpmw

import (
	"context"
	"net/http"
	"sync"

	"github.com/keithlinneman/linnemanlabs-gate/internal/log"
)

type logEntry struct {
	level string
	msg   string
	err   error
	kv    map[string]any
}

// spyLogger records every call, With() attrs are merged into later entries.
type spyLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
	attrs   map[string]any
}

func newSpyLogger() *spyLogger {
	return &spyLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}, attrs: map[string]any{}}
}

func (s *spyLogger) With(kv ...any) log.Logger {
	next := make(map[string]any, len(s.attrs)+len(kv)/2)
	for k, v := range s.attrs {
		next[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			next[k] = kv[i+1]
		}
	}
	return &spyLogger{mu: s.mu, entries: s.entries, attrs: next}
}

func (s *spyLogger) record(level string, err error, msg string, kv []any) {
	m := make(map[string]any, len(s.attrs)+len(kv)/2)
	for k, v := range s.attrs {
		m[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			m[k] = kv[i+1]
		}
	}
	s.mu.Lock()
	*s.entries = append(*s.entries, logEntry{level: level, msg: msg, err: err, kv: m})
	s.mu.Unlock()
}

func (s *spyLogger) Debug(_ context.Context, msg string, kv ...any) { s.record("debug", nil, msg, kv) }
func (s *spyLogger) Info(_ context.Context, msg string, kv ...any)  { s.record("info", nil, msg, kv) }
func (s *spyLogger) Warn(_ context.Context, msg string, kv ...any)  { s.record("warn", nil, msg, kv) }
func (s *spyLogger) Error(_ context.Context, err error, msg string, kv ...any) {
	s.record("error", err, msg, kv)
}
func (s *spyLogger) Sync() error { return nil }

func (s *spyLogger) all() []logEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]logEntry(nil), *s.entries...)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
