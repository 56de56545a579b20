package httpmw

import (
	"net/http"
	"time"
)

// statusRecorder captures the status code, body size and time to first byte
// of a response.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int64
	start   time.Time
	firstAt time.Duration
}

func newStatusRecorder(w http.ResponseWriter, start time.Time) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, start: start}
}

func (rw *statusRecorder) markFirst() {
	if rw.firstAt == 0 {
		rw.firstAt = time.Since(rw.start)
	}
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.markFirst()
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.markFirst()
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// Status returns the response code, 200 if the handler never wrote one.
func (rw *statusRecorder) Status() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

// Flush keeps streamed upstream responses (SSE, chunked) flowing through the proxy.
func (rw *statusRecorder) Flush() {
	rw.markFirst()
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer (hijack
// for upgraded connections, deadlines).
func (rw *statusRecorder) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
