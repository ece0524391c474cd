package server

// HTTP and WebSocket entry points for the console server:
// - WebSocket upgrade and per-client session wiring (HandleWebSocket)
// - Health and status endpoints
// - One-shot export of the current spec (HandleExport)
// - Current spec fetch/replace (HandleSpec)
// - Saved spec store (HandleSpecs, HandleSpecBySlug)

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/teranos/QVIZ/db"
	"github.com/teranos/QVIZ/errors"
	"github.com/teranos/QVIZ/graph"
	grapherr "github.com/teranos/QVIZ/graph/error"
	"github.com/teranos/QVIZ/layout"
	"github.com/teranos/QVIZ/logger"
	"github.com/teranos/QVIZ/render"
	"github.com/teranos/QVIZ/store"
	"github.com/teranos/QVIZ/version"
	"github.com/teranos/QVIZ/viz"
)

// Default console surface dimensions. The browser reports real dimensions
// after connecting; these only seed the panel machine's viewport.
const (
	consoleWidth  = 1440.0
	consoleHeight = 900.0
)

// settleSteps bounds the synchronous layout run for one-shot exports
const settleSteps = 1000

// HandleWebSocket upgrades the connection and wires a client: a dedicated
// surface in the registry, a viz.Session pushing frames to it, and the
// read/write pumps.
func (s *QVIZServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		graphErr := grapherr.New(
			grapherr.CategoryWebSocket,
			err,
			"Failed to upgrade WebSocket connection",
		).WithSubcategory(grapherr.SubcategoryWSUpgrade)

		s.logger.Errorw("WebSocket upgrade failed",
			graphErr.ToLogFields()...,
		)
		return
	}

	ratePerSecond := s.cfg.Server.RatePerSecond
	if ratePerSecond <= 0 {
		ratePerSecond = 30
	}
	burst := s.cfg.Server.RateBurst
	if burst <= 0 {
		burst = 60
	}

	client := &Client{
		server:    s,
		conn:      conn,
		sendScene: make(chan *render.Scene, MaxClientMessageQueueSize),
		sendMsg:   make(chan interface{}, MaxClientMessageQueueSize),
		id:        fmt.Sprintf("%s_%d", r.RemoteAddr, time.Now().UnixNano()),
		limiter:   rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}

	surface := &viz.Surface{
		ID:      client.id,
		Variant: render.VariantSplit,
		Size:    render.Size{Width: consoleWidth, Height: consoleHeight},
		OnFrame: client.onFrame,
	}
	if err := s.registry.Register(surface); err != nil {
		s.logger.Errorw("Surface registration failed",
			"error", err.Error(),
			logger.FieldClientID, client.id,
		)
		conn.Close()
		return
	}

	transition := time.Duration(s.cfg.Panel.TransitionMs) * time.Millisecond
	session, err := viz.NewSession(viz.SessionConfig{
		ID:            client.id,
		Surface:       surface,
		Registry:      s.registry,
		Signal:        viz.TimedSignal(transition),
		Seed:          s.cfg.Layout.Seed,
		PanelFraction: s.cfg.Panel.WidthFraction,
		PanelMinWidth: s.cfg.Panel.MinWidth,
		ChromeHeight:  s.cfg.Panel.ChromeHeight,
	})
	if err != nil {
		s.logger.Errorw("Session creation failed",
			"error", err.Error(),
			logger.FieldClientID, client.id,
		)
		s.registry.Unregister(client.id)
		conn.Close()
		return
	}
	client.session = session

	// Send version info BEFORE starting writePump (avoid concurrent writes)
	versionInfo := version.Get()
	versionMsg := map[string]interface{}{
		"type":       "version",
		"version":    versionInfo.Version,
		"commit":     versionInfo.Short(),
		"build_time": versionInfo.BuildTime,
	}
	if err := conn.WriteJSON(versionMsg); err != nil {
		s.logger.Debugw("Failed to send version info",
			logger.FieldClientID, client.id,
			"error", err,
		)
	}

	s.register <- client

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		client.readPump()
	}()
	go func() {
		defer s.wg.Done()
		client.writePump()
	}()
}

// HandleHealth reports liveness
func (s *QVIZServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"state":  stateString(s.getState()),
	})
}

// HandleStatus reports server vitals: version, uptime, client count,
// process memory
func (s *QVIZServer) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.buildStatus())
}

// HandleExport renders the current spec to SVG or PNG with a synchronous
// settled layout. Sessions are not consulted: the endpoint snapshot is the
// neutral view of the spec, not one client's interaction state.
func (s *QVIZServer) HandleExport(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	spec := s.CurrentSpec()
	if spec == nil {
		writeError(w, http.StatusNotFound, "No spec loaded")
		return
	}

	size := render.Size{Width: consoleWidth, Height: consoleHeight}
	sim := layout.NewSimulation(spec, layout.FullProfile(), size.Width, size.Height, s.cfg.Layout.Seed)
	frame := sim.Settle(settleSteps)
	scene := render.BuildScene(spec, frame, render.View{}, render.VariantSplit, size)

	format := r.URL.Query().Get("format")
	switch format {
	case "svg":
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Content-Disposition", `attachment; filename="graph.svg"`)
		if err := render.WriteSVG(w, scene); err != nil {
			s.logger.Warnw("SVG export failed", "error", err.Error())
		}
	case "png", "":
		data, err := render.ExportPNG(scene, s.cfg.Export.Scale)
		if err != nil {
			s.logger.Warnw("PNG export failed", "error", err.Error())
			writeError(w, http.StatusInternalServerError, "Export failed")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", `attachment; filename="graph.png"`)
		w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, "Unsupported format: "+format)
		return
	}

	logger.ExportInfow("Spec exported",
		"format", format,
		logger.FieldNodes, len(spec.Nodes),
		logger.FieldLinks, len(spec.Links),
	)
}

// HandleSpec serves the current spec (GET) or replaces it for every
// connected client (POST)
func (s *QVIZServer) HandleSpec(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		spec := s.CurrentSpec()
		if spec == nil {
			writeError(w, http.StatusNotFound, "No spec loaded")
			return
		}
		writeJSON(w, http.StatusOK, spec)

	case http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read request body")
			return
		}
		spec, err := graph.DecodeSpec(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.SetSpec(spec)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"nodes": len(spec.Nodes),
			"links": len(spec.Links),
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// storeError reports a spec store failure. A closed database means the
// request raced graceful shutdown, which is not worth an error-level log.
func (s *QVIZServer) storeError(w http.ResponseWriter, err error, message string, fields ...interface{}) {
	if db.IsDatabaseClosed(err) {
		s.logger.Debugw("Store request during shutdown", append(fields, "error", err.Error())...)
		writeError(w, http.StatusServiceUnavailable, "Server shutting down")
		return
	}
	s.logger.Errorw(message, append(fields, "error", err.Error())...)
	writeError(w, http.StatusInternalServerError, message)
}

// HandleSpecs lists saved specs (GET) or saves the current spec (POST)
func (s *QVIZServer) HandleSpecs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		records, err := s.specStore.List(r.Context(), 0)
		if err != nil {
			s.storeError(w, err, "Failed to list specs")
			return
		}
		if records == nil {
			records = []store.Record{}
		}
		writeJSON(w, http.StatusOK, records)

	case http.MethodPost:
		spec := s.CurrentSpec()
		if spec == nil {
			writeError(w, http.StatusNotFound, "No spec loaded")
			return
		}
		rec, err := s.specStore.Save(r.Context(), spec)
		if err != nil {
			s.storeError(w, err, "Failed to save spec")
			return
		}
		writeJSON(w, http.StatusCreated, rec)

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleSpecBySlug fetches (GET) or deletes (DELETE) one saved spec. A GET
// also makes the loaded spec current for all connected clients.
func (s *QVIZServer) HandleSpecBySlug(w http.ResponseWriter, r *http.Request) {
	parts := extractPathParts(r.URL.Path, "/api/specs/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "Missing spec slug")
		return
	}
	slug := parts[0]

	switch r.Method {
	case http.MethodGet:
		spec, rec, err := s.specStore.GetBySlug(r.Context(), slug)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Spec not found: "+slug)
				return
			}
			s.storeError(w, err, "Failed to load spec", logger.FieldSlug, slug)
			return
		}
		s.SetSpec(spec)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"record": rec,
			"spec":   spec,
		})

	case http.MethodDelete:
		if err := s.specStore.Delete(r.Context(), slug); err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Spec not found: "+slug)
				return
			}
			s.storeError(w, err, "Failed to delete spec", logger.FieldSlug, slug)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"deleted": slug})

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
