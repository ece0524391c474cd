package server

import "net/http"

// setupRoutes configures all HTTP handlers on the server's mux
func (s *QVIZServer) setupRoutes() {
	s.mux.HandleFunc("/ws", s.corsMiddleware(s.HandleWebSocket))
	s.mux.HandleFunc("/api/health", s.corsMiddleware(s.HandleHealth))
	s.mux.HandleFunc("/api/status", s.corsMiddleware(s.HandleStatus))
	s.mux.HandleFunc("/api/export", s.corsMiddleware(s.HandleExport))
	s.mux.HandleFunc("/api/spec", s.corsMiddleware(s.HandleSpec))
	s.mux.HandleFunc("/api/specs", s.corsMiddleware(s.HandleSpecs))
	s.mux.HandleFunc("/api/specs/", s.corsMiddleware(s.HandleSpecBySlug))
}

// corsMiddleware adds CORS headers using the configured allowed origins.
// The same origin list gates WebSocket upgrades (checkOrigin).
func (s *QVIZServer) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}
