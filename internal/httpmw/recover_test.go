package httpmw

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecover_NoPanic(t *testing.T) {
	spy := newSpyLogger()
	rec := httptest.NewRecorder()
	Recover(spy, nil)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(spy.all()) != 0 {
		t.Fatal("nothing should be logged without a panic")
	}
}

func TestRecover_Panics(t *testing.T) {
	errLost := errors.New("upstream pool exhausted")
	tests := []struct {
		name  string
		value any
	}{
		{"string", "something broke"},
		{"error", errLost},
		{"int", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := newSpyLogger()
			var panics int
			h := Recover(spy, func() { panics++ })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(tt.value)
			}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/submit", nil))

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", rec.Code)
			}
			if rec.Body.String() != "{\"error\":\"internal server error\"}\n" {
				t.Fatalf("body = %q", rec.Body.String())
			}
			if panics != 1 {
				t.Fatalf("onPanic called %d times", panics)
			}

			entries := spy.all()
			if len(entries) != 1 || entries[0].msg != "httpserver panic recovered" {
				t.Fatalf("entries = %+v", entries)
			}
			if entries[0].kv["url.path"] != "/api/submit" {
				t.Fatalf("url.path = %v", entries[0].kv["url.path"])
			}
			if err, ok := tt.value.(error); ok && !errors.Is(entries[0].err, err) {
				t.Fatal("logged error should wrap the panic value")
			}
		})
	}
}

func TestRecover_NilLoggerAndCallback(t *testing.T) {
	h := Recover(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRecover_RepanicsAbortHandler(t *testing.T) {
	h := Recover(newSpyLogger(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("recovered %v, want http.ErrAbortHandler", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	t.Fatal("ErrAbortHandler should propagate")
}
