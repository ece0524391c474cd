package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/teranos/QVIZ/errors"
	"github.com/teranos/QVIZ/logger"
)

// browserConnectGrace is how long a freshly opened browser gets to
// establish its websocket before we warn the user.
const browserConnectGrace = 5 * time.Second

var stateNames = map[ServerState]string{
	ServerStateRunning:  "running",
	ServerStateDraining: "draining",
	ServerStateStopped:  "stopped",
}

// stateString returns human-readable state name
func stateString(state ServerState) string {
	if name, ok := stateNames[state]; ok {
		return name
	}
	return "unknown"
}

func (s *QVIZServer) getState() ServerState {
	return ServerState(s.state.Load())
}

func (s *QVIZServer) setState(newState ServerState) {
	s.state.Store(int32(newState))
	s.logger.Infow("Server state changed", "new_state", stateString(newState))
}

// Start starts the server on the specified port, falling back to an
// alternative when the port is taken. Blocks until the listener fails or
// Stop shuts it down.
func (s *QVIZServer) Start(port int, openBrowserFunc func(url string)) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run()
	}()

	s.startStatusBroadcaster()

	actualPort, err := findAvailablePort(port)
	if err != nil {
		return errors.Wrap(err, "failed to find available port")
	}
	if actualPort != port {
		s.logger.Infow("Port in use, using alternative",
			"requested_port", port,
			"actual_port", actualPort,
		)
	}

	s.setupRoutes()

	url := fmt.Sprintf("http://localhost:%d", actualPort)
	s.logger.Infow("Server ready",
		"url", url,
		"port", actualPort,
	)

	if openBrowserFunc != nil {
		s.logger.Infow("Opening browser", "url", url)
		openBrowserFunc(url)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.warnIfBrowserSlow()
		}()
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", actualPort),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	err = s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *QVIZServer) warnIfBrowserSlow() {
	timer := time.NewTimer(browserConnectGrace)
	defer timer.Stop()

	select {
	case <-timer.C:
		if s.ClientCount() == 0 {
			s.logger.Warnw("Browser slow to connect",
				"elapsed_seconds", int(browserConnectGrace.Seconds()),
				"hint", "Browser may be delayed by extensions, previous pages, or system settings",
			)
		}
	case <-s.ctx.Done():
	}
}

// Stop gracefully shuts down the server: drain HTTP, close client
// connections to unblock read pumps, cancel the context, then wait for
// goroutines with a timeout.
func (s *QVIZServer) Stop() error {
	s.logger.Infow("Initiating server shutdown")
	s.setState(ServerStateDraining)

	s.drainHTTP()
	s.closeAllClients()

	if s.cancel != nil {
		s.cancel()
	}
	s.waitForGoroutines()

	if s.configWatcher != nil {
		if err := s.configWatcher.Stop(); err != nil {
			s.logger.Warnw("Failed to stop config watcher", "error", err)
		} else {
			s.logger.Infow("Config watcher stopped")
		}
	}

	s.setState(ServerStateStopped)
	s.logger.Infow("Server shutdown complete",
		"broadcast_drops", s.broadcastDrops.Load(),
	)
	return nil
}

func (s *QVIZServer) drainHTTP() {
	if s.httpServer == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warnw("HTTP server shutdown error", "error", err)
	}
}

// closeAllClients closes every websocket BEFORE the context is cancelled
// so each readPump exits on the closed connection rather than blocking.
func (s *QVIZServer) closeAllClients() {
	s.mu.Lock()
	clients := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
		delete(s.clients, client)
	}
	s.mu.Unlock()

	if len(clients) == 0 {
		return
	}
	s.logger.Infow("Closing client connections", logger.FieldCount, len(clients))
	for _, client := range clients {
		client.conn.Close()
		client.teardown()
	}
}

func (s *QVIZServer) waitForGoroutines() {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Infow("All goroutines stopped cleanly")
	case <-time.After(ShutdownTimeout):
		s.logger.Warnw("Goroutine shutdown timed out, forcing exit",
			"timeout", ShutdownTimeout,
		)
	}
}
