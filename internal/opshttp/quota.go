package opshttp

import (
	"net/http"
	"strings"

	"github.com/keithlinneman/linnemanlabs-gate/internal/httpmw"
)

// quotaHandler serves a client's quota by limiter id (ip_<addr> or key_<fp>).
// Reading quota never consumes it.
func quotaHandler(q QuotaReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			httpmw.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		client := strings.TrimSpace(r.URL.Query().Get("client"))
		if client == "" {
			httpmw.WriteError(w, http.StatusBadRequest, "client query parameter is required")
			return
		}
		httpmw.WriteJSON(w, http.StatusOK, q.Status(client))
	}
}

// clientsHandler reports how many client windows are tracked.
func clientsHandler(q QuotaReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpmw.WriteJSON(w, http.StatusOK, map[string]int{"clients": q.Clients()})
	}
}
