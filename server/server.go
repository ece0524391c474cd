package server

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/QVIZ/am"
	"github.com/teranos/QVIZ/graph"
	"github.com/teranos/QVIZ/logger"
	"github.com/teranos/QVIZ/store"
	"github.com/teranos/QVIZ/version"
	"github.com/teranos/QVIZ/viz"
)

// QVIZServer is the live graph console: a WebSocket hub where every client
// owns a viz.Session and receives scene frames as its interaction state
// changes. HTTP endpoints cover export, spec upload, and the saved spec
// store.
type QVIZServer struct {
	db            *sql.DB
	dbPath        string
	cfg           *am.Config
	specStore     *store.Store
	registry      *viz.SurfaceRegistry
	configWatcher *am.ConfigWatcher

	clients      map[*Client]bool
	register     chan *Client
	unregister   chan *Client
	broadcastReq chan *broadcastRequest
	mu           sync.RWMutex
	lastSpec     *graph.Spec   // current spec, served to reconnecting clients
	lastStatus   *cachedStatus // change detection for the status broadcaster

	logger     *zap.SugaredLogger
	mux        *http.ServeMux
	httpServer *http.Server
	startedAt  time.Time

	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	broadcastDrops atomic.Int64
	state          atomic.Int32
}

// NewServer creates a console server over an open database. The config
// watcher is optional; when set it is stopped during shutdown.
func NewServer(db *sql.DB, dbPath string, cfg *am.Config, watcher *am.ConfigWatcher) *QVIZServer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &QVIZServer{
		db:            db,
		dbPath:        dbPath,
		cfg:           cfg,
		specStore:     store.NewStore(db),
		registry:      viz.NewSurfaceRegistry(),
		configWatcher: watcher,
		clients:       make(map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		broadcastReq:  make(chan *broadcastRequest, MaxClientMessageQueueSize),
		logger:        logger.ComponentLogger("server"),
		mux:           http.NewServeMux(),
		startedAt:     time.Now(),
		ctx:           ctx,
		cancel:        cancel,
	}
	viz.SetDefaultRegistry(s.registry)
	return s
}

// handleClientRegister handles a new client connection
func (s *QVIZServer) handleClientRegister(client *Client) {
	maxClients := s.cfg.Server.MaxClients

	s.mu.Lock()
	if maxClients > 0 && len(s.clients) >= maxClients {
		s.mu.Unlock()
		s.logger.Warnw("Max clients reached, rejecting connection",
			logger.FieldClientID, shortID(client.id),
			"max_clients", maxClients,
		)
		client.teardown()
		return
	}

	s.clients[client] = true
	totalClients := len(s.clients)
	cachedSpec := s.lastSpec
	s.mu.Unlock()

	versionInfo := version.Get()
	s.logger.Infow("Client connected",
		logger.FieldClientID, shortID(client.id),
		"total_clients", totalClients,
		"version", versionInfo.Short(),
	)

	// Open the current spec on the new client's session so a reconnect
	// lands on the same graph everyone else sees
	if cachedSpec != nil {
		s.logger.Debugw("Opening cached spec for new client",
			logger.FieldClientID, shortID(client.id),
			logger.FieldNodes, len(cachedSpec.Nodes),
			logger.FieldLinks, len(cachedSpec.Links),
		)
		client.session.Open(cachedSpec)
	}
}

// handleClientUnregister handles a client disconnection
func (s *QVIZServer) handleClientUnregister(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.clients, client)
	totalClients := len(s.clients)
	s.mu.Unlock()

	// Signal the broadcast worker to close channels; it owns all client
	// channel sends, so closing must go through it
	req := &broadcastRequest{reqType: broadcastClose, client: client}
	select {
	case s.broadcastReq <- req:
	case <-s.ctx.Done():
		client.teardown()
	}

	s.logger.Infow("Client disconnected",
		logger.FieldClientID, shortID(client.id),
		"total_clients", totalClients,
	)
}

// removeSlowClient removes a client whose scene queue stayed full.
// Only called from the broadcast worker, so closing directly is safe.
func (s *QVIZServer) removeSlowClient(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.clients, client)
	s.mu.Unlock()

	client.teardown()

	s.logger.Warnw("Client scene queue full, removing client",
		logger.FieldClientID, shortID(client.id),
		"total_drops", s.broadcastDrops.Load(),
	)
}

// SetSpec replaces the current spec and opens it on every connected
// client's session. Each session swaps content without replaying its
// panel transition when already open.
func (s *QVIZServer) SetSpec(spec *graph.Spec) {
	if spec == nil {
		spec = &graph.Spec{}
	}
	spec = spec.Clone()

	s.mu.Lock()
	s.lastSpec = spec
	clients := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.Unlock()

	s.logger.Infow("Spec replaced",
		logger.FieldNodes, len(spec.Nodes),
		logger.FieldLinks, len(spec.Links),
		"clients", len(clients),
	)

	for _, client := range clients {
		client.session.Open(spec)
	}
}

// CurrentSpec returns the active spec, or nil before any load.
func (s *QVIZServer) CurrentSpec() *graph.Spec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSpec == nil {
		return nil
	}
	return s.lastSpec.Clone()
}

// ClientCount returns the number of connected clients.
func (s *QVIZServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Registry returns the server's surface registry.
func (s *QVIZServer) Registry() *viz.SurfaceRegistry {
	return s.registry
}

// Run starts the server hub event loop. The broadcast worker starts first
// because it owns every client channel send.
func (s *QVIZServer) Run() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runBroadcastWorker()
	}()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debugw("Server hub stopping due to context cancellation")
			return
		case client := <-s.register:
			s.handleClientRegister(client)
		case client := <-s.unregister:
			s.handleClientUnregister(client)
		}
	}
}

// Global server instance for handlers that outlive a single request scope
var (
	defaultServer   *QVIZServer
	defaultServerMu sync.RWMutex
)

// SetDefaultServer sets the global server instance
func SetDefaultServer(s *QVIZServer) {
	defaultServerMu.Lock()
	defer defaultServerMu.Unlock()
	defaultServer = s
}

// GetDefaultServer returns the global server instance
func GetDefaultServer() *QVIZServer {
	defaultServerMu.RLock()
	defer defaultServerMu.RUnlock()
	return defaultServer
}
