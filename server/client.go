package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/teranos/QVIZ/graph"
	grapherr "github.com/teranos/QVIZ/graph/error"
	"github.com/teranos/QVIZ/logger"
	"github.com/teranos/QVIZ/render"
	"github.com/teranos/QVIZ/viz"
)

// WebSocket timeout constants following Gorilla best practices
// See: https://github.com/gorilla/websocket/blob/master/examples/chat/client.go
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer (1MB for spec payloads)
	maxMessageSize = 1024 * 1024
)

// Client represents one WebSocket console connection. Each client owns a
// viz.Session: interaction state is per-client, so two consoles on the same
// spec can hover, focus, and zoom independently.
type Client struct {
	server    *QVIZServer
	conn      *websocket.Conn
	session   *viz.Session
	sendScene chan *render.Scene
	sendMsg   chan interface{}
	id        string
	limiter   *rate.Limiter
	closeOnce sync.Once

	frameMu      sync.Mutex
	lastFrameKey string
}

// onFrame receives every scene the client's session builds. Frames whose
// structure matches the previous one (same glyphs, only coordinates moved)
// collapse into a positions delta; anything else ships the full scene.
func (c *Client) onFrame(scene *render.Scene) {
	key := structuralKey(scene)

	c.frameMu.Lock()
	same := key == c.lastFrameKey
	c.lastFrameKey = key
	c.frameMu.Unlock()

	if same {
		positions := make([]NodePosition, len(scene.Nodes))
		for i, node := range scene.Nodes {
			positions[i] = NodePosition{ID: node.ID, X: node.X, Y: node.Y}
		}
		c.server.queueMessage(c.id, PositionsMessage{Type: "positions", Positions: positions})
		return
	}

	c.server.queueScene(c.id, scene)
}

// structuralKey fingerprints everything about a scene except glyph
// coordinates. Two frames with equal keys differ only in node positions.
func structuralKey(scene *render.Scene) string {
	var b strings.Builder
	b.WriteString(scene.Variant.String())
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(scene.Width, 'f', 1, 64))
	b.WriteByte('x')
	b.WriteString(strconv.FormatFloat(scene.Height, 'f', 1, 64))
	b.WriteByte('|')
	b.WriteString(scene.EmptyMessage)
	b.WriteByte('|')
	b.WriteString(scene.StatBadge)
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(scene.Transform.Scale, 'f', 3, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(scene.Transform.TranslateX, 'f', 1, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(scene.Transform.TranslateY, 'f', 1, 64))
	if scene.Tooltip != nil {
		b.WriteString("|tip:")
		b.WriteString(scene.Tooltip.NodeID)
	}
	for _, node := range scene.Nodes {
		b.WriteByte(';')
		b.WriteString(node.ID)
		b.WriteByte(',')
		b.WriteString(node.Fill)
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(node.Radius, 'f', 2, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(node.Opacity, 'f', 2, 64))
		if node.Glow {
			b.WriteByte('*')
		}
	}
	for _, edge := range scene.Edges {
		b.WriteByte(';')
		b.WriteString(edge.ID)
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(edge.Opacity, 'f', 2, 64))
	}
	return b.String()
}

// readPump handles reading messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.server.unregister <- c
		c.conn.Close()
	}()

	// Configure connection limits and timeouts per Gorilla best practices
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.server.logger.Debugw("Read pump started", logger.FieldClientID, c.id)

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			c.server.logger.Warnw("JSON unmarshal error",
				"error", err.Error(),
				logger.FieldClientID, c.id,
			)
			continue
		}

		if msg.Type == "ping" {
			continue
		}

		// Interaction intents are rate limited per client; hover streams
		// from a fast pointer can otherwise starve the session lock
		if !c.limiter.Allow() {
			c.server.logger.Debugw("Rate limit exceeded, dropping message",
				logger.FieldClientID, c.id,
				"message_type", msg.Type,
			)
			continue
		}

		c.routeMessage(&msg)
	}
}

// handleReadError logs unexpected WebSocket read errors.
// Expected closure codes (going away, abnormal, no status) are silently ignored.
func (c *Client) handleReadError(err error) {
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived,
	) {
		graphErr := grapherr.New(
			grapherr.CategoryWebSocket,
			err,
			"WebSocket connection closed unexpectedly",
		).WithSubcategory(grapherr.SubcategoryWSRead)

		c.server.logger.Warnw("WebSocket read error",
			graphErr.ToLogFields()...,
		)
	}
}

// routeMessage dispatches incoming WebSocket messages to the session.
// This separation from readPump reduces complexity and improves testability.
func (c *Client) routeMessage(msg *ClientMessage) {
	switch msg.Type {
	case "spec":
		c.handleSpecLoad(msg.Spec)
	case "hover":
		c.session.Hover(msg.NodeID)
	case "focus":
		c.session.Focus(msg.NodeID)
	case "search":
		c.session.Search(msg.Query)
	case "filter":
		c.session.ToggleType(msg.NodeType)
	case "zoom":
		c.session.SetZoom(msg.Zoom)
	case "zoom_fit":
		c.session.ZoomToFit()
	case "pan":
		c.session.Pan(msg.DX, msg.DY)
	case "drag_start":
		c.session.DragStart(msg.NodeID)
	case "drag_move":
		c.session.DragMove(msg.X, msg.Y)
	case "drag_end":
		c.session.DragEnd()
	case "fullscreen":
		c.session.ToggleFullscreen()
	case "close":
		c.session.Close()
	case "export":
		c.handleExport(msg.Format, msg.Scale)
	default:
		c.server.logger.Debugw("Unknown message type",
			"type", msg.Type,
			logger.FieldClientID, c.id,
		)
	}
}

// handleSpecLoad parses an inbound spec and opens it on this client's
// session only; replacing the spec for everyone goes through POST /api/spec
func (c *Client) handleSpecLoad(raw json.RawMessage) {
	if len(raw) == 0 {
		c.sendError("Spec message carried no spec payload", nil)
		return
	}

	spec, err := graph.DecodeSpec(raw)
	if err != nil {
		c.server.logger.Warnw("Spec load failed",
			"error", err.Error(),
			logger.FieldClientID, c.id,
		)
		c.sendError("Could not read the graph spec", err)
		return
	}

	c.server.logger.Infow("Spec loaded by client",
		logger.FieldClientID, c.id,
		logger.FieldNodes, len(spec.Nodes),
		logger.FieldLinks, len(spec.Links),
	)
	c.session.Open(spec)
}

// handleExport captures the session's current scene in the background and
// delivers it as a base64 payload. A scale of 0 falls back to the config
// default.
func (c *Client) handleExport(format string, scale int) {
	if scale <= 0 {
		scale = c.server.cfg.Export.Scale
	}

	c.server.wg.Add(1)
	go func() {
		defer c.server.wg.Done()

		var data []byte
		var err error
		switch format {
		case "svg":
			var buf bytes.Buffer
			err = c.session.ExportSVG(&buf)
			data = buf.Bytes()
		case "png", "":
			format = "png"
			data, err = c.session.ExportPNG(scale)
		default:
			c.sendError("Unsupported export format: "+format, nil)
			return
		}

		if err != nil {
			c.server.logger.Warnw("Export failed",
				"format", format,
				"error", err.Error(),
				logger.FieldClientID, c.id,
			)
			c.sendError("Export failed", err)
			return
		}

		c.server.queueMessage(c.id, ExportReadyMessage{
			Type:      "export_ready",
			Format:    format,
			Data:      base64.StdEncoding.EncodeToString(data),
			Timestamp: time.Now().Unix(),
		})
	}()
}

// sendError delivers a contained failure to this client
func (c *Client) sendError(message string, err error) {
	msg := ErrorMessage{
		Type:      "error",
		Message:   message,
		Timestamp: time.Now().Unix(),
	}
	if err != nil {
		msg.Details = errorDetails(err)
	}
	c.server.queueMessage(c.id, msg)
}

// writePump writes scene frames and messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	c.server.logger.Debugw("Write pump started", logger.FieldClientID, c.id)

	for {
		select {
		case <-c.server.ctx.Done():
			c.server.logger.Debugw("Write pump stopping due to server shutdown", logger.FieldClientID, c.id)
			return
		case scene, ok := <-c.sendScene:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(SceneMessage{Type: "scene", Scene: scene}); err != nil {
				graphErr := grapherr.New(
					grapherr.CategoryWebSocket,
					err,
					"Failed to send scene to client",
				).WithSubcategory(grapherr.SubcategoryWSWrite)

				c.server.logger.Warnw("Scene write error",
					append(graphErr.ToLogFields(), logger.FieldClientID, c.id)...,
				)
				return
			}

		case msg, ok := <-c.sendMsg:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				c.server.logger.Debugw("Message write error",
					"error", err.Error(),
					logger.FieldClientID, c.id,
				)
				// Status and positions drops shouldn't kill the connection
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// teardown closes the client's channels, releases its surface, and shuts
// the session down. sync.Once prevents double-close panics when several
// removal paths fire.
func (c *Client) teardown() {
	c.closeOnce.Do(func() {
		if c.sendScene != nil {
			close(c.sendScene)
		}
		if c.sendMsg != nil {
			close(c.sendMsg)
		}

		c.server.registry.Unregister(c.id)

		// Session shutdown waits for the panel machine's in-flight
		// transitions; run it off the caller's goroutine
		if c.session != nil {
			c.server.wg.Add(1)
			go func() {
				defer c.server.wg.Done()
				c.session.Shutdown()
			}()
		}
	})
}
