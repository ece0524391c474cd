package server

import (
	"encoding/json"
	"net/http"
	"strings"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes data as the response body with the given status.
// Encode failures are ignored: headers are already flushed by then and
// the client sees a truncated body either way.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// requireMethod rejects requests with the wrong verb, advertising the
// accepted one in the Allow header.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// extractPathParts splits the path segments following prefix
func extractPathParts(urlPath, prefix string) []string {
	rest := strings.TrimPrefix(urlPath, prefix)
	return strings.Split(rest, "/")
}

// shortID trims client identifiers (remoteAddr_nanos) to a loggable width
func shortID(id string) string {
	if len(id) < 8 {
		return id
	}
	return id[:8]
}
