package server

import (
	"encoding/json"
	"time"

	"github.com/teranos/QVIZ/render"
)

const (
	// MaxClientMessageQueueSize is the size of per-client outbound queues
	MaxClientMessageQueueSize = 256
	// ShutdownTimeout is how long to wait for graceful shutdown before
	// reporting leftover goroutines
	ShutdownTimeout = 10 * time.Second
)

// ServerState represents the server lifecycle state
type ServerState int

const (
	ServerStateRunning  ServerState = iota // Normal operation
	ServerStateDraining                    // Graceful shutdown in progress
	ServerStateStopped                     // Shutdown complete
)

// ClientMessage represents an inbound console message. Type selects which
// fields carry meaning; the rest stay zero.
type ClientMessage struct {
	Type     string          `json:"type"`                // "spec", "hover", "focus", "search", "filter", "zoom", "zoom_fit", "pan", "drag_start", "drag_move", "drag_end", "fullscreen", "close", "export", "ping"
	Spec     json.RawMessage `json:"spec,omitempty"`      // For spec: serialized graph spec
	NodeID   string          `json:"node_id,omitempty"`   // For hover/focus/drag_start: target node ("" clears)
	Query    string          `json:"query,omitempty"`     // For search: filter text ("" restores)
	NodeType string          `json:"node_type,omitempty"` // For filter: type key to toggle
	Zoom     float64         `json:"zoom,omitempty"`      // For zoom: requested scale (clamped per surface)
	X        float64         `json:"x,omitempty"`         // For drag_move: pointer x in scene space
	Y        float64         `json:"y,omitempty"`         // For drag_move: pointer y in scene space
	DX       float64         `json:"dx,omitempty"`        // For pan: horizontal delta
	DY       float64         `json:"dy,omitempty"`        // For pan: vertical delta
	Format   string          `json:"format,omitempty"`    // For export: "png" or "svg"
	Scale    int             `json:"scale,omitempty"`     // For export: raster multiplier (0 = config default)
}

// SceneMessage carries a full scene frame to the console
type SceneMessage struct {
	Type  string        `json:"type"` // "scene"
	Scene *render.Scene `json:"scene"`
}

// NodePosition is one node's coordinates in a positions delta
type NodePosition struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// PositionsMessage carries per-tick position deltas while the simulation
// runs and nothing structural changed since the last full scene
type PositionsMessage struct {
	Type      string         `json:"type"` // "positions"
	Positions []NodePosition `json:"positions"`
}

// StatusMessage reports server vitals to the console
type StatusMessage struct {
	Type          string  `json:"type"` // "status"
	Version       string  `json:"version"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	Clients       int     `json:"clients"`
	ServerState   string  `json:"server_state"` // "running", "draining", "stopped"
	MemoryMB      float64 `json:"memory_mb"`    // Resident set size
	Timestamp     int64   `json:"timestamp"`    // Unix timestamp
}

// ErrorMessage reports a contained failure to the console
type ErrorMessage struct {
	Type      string   `json:"type"` // "error"
	Message   string   `json:"message"`
	Details   []string `json:"details,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// ExportReadyMessage delivers a completed export to the requesting client
type ExportReadyMessage struct {
	Type      string `json:"type"`   // "export_ready"
	Format    string `json:"format"` // "png" or "svg"
	Data      string `json:"data"`   // base64-encoded file content
	Timestamp int64  `json:"timestamp"`
}

// cachedStatus tracks the last broadcast status to detect changes
type cachedStatus struct {
	clients  int
	state    ServerState
	memoryMB float64
}
