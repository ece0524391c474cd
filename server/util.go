package server

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/teranos/QVIZ/am"
	"github.com/teranos/QVIZ/errors"
)

// upgrader creates a WebSocket upgrader with origin checking from config
func (s *QVIZServer) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// No origin header means a direct client (CLI, tests)
			if origin == "" {
				return true
			}
			return s.originAllowed(origin)
		},
	}
}

// originAllowed checks an origin against the configured allowed origins.
// Prefix matching allows any port number on an allowed host.
func (s *QVIZServer) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.GetServerAllowedOrigins() {
		if strings.HasPrefix(origin, allowed) {
			return true
		}
	}
	return false
}

// isPortAvailable checks if a port is available for binding
func isPortAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	_ = listener.Close()
	return true
}

// findAvailablePort tries the requested port, then the preferred defaults,
// then a high fallback range.
func findAvailablePort(requestedPort int) (int, error) {
	if isPortAvailable(requestedPort) {
		return requestedPort, nil
	}

	preferredPorts := []int{am.DefaultServerPort, am.FallbackServerPort}
	for _, port := range preferredPorts {
		if port != requestedPort && isPortAvailable(port) {
			return port, nil
		}
	}

	fallbackStart := 58777
	for i := 0; i < 10; i++ {
		port := fallbackStart + i
		if isPortAvailable(port) {
			return port, nil
		}
	}

	return 0, errors.Newf("no available ports found (tried %d, %d, %d, and range 58777-58786)",
		requestedPort, am.DefaultServerPort, am.FallbackServerPort)
}

// currentPID returns this process's pid for memory reporting
func currentPID() int {
	return os.Getpid()
}

// errorDetails collects structured detail strings attached to an error
func errorDetails(err error) []string {
	return errors.GetAllDetails(err)
}
