package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/teranos/QVIZ/render"
	"github.com/teranos/QVIZ/viz"
)

// newTestClient wires a client with a real session over the server's
// registry, using a manual transition signal so tests control the panel
// machine's timing.
func newTestClient(t *testing.T, s *QVIZServer, id string) (*Client, *viz.ManualSignal) {
	t.Helper()

	client := &Client{
		server:    s,
		sendScene: make(chan *render.Scene, MaxClientMessageQueueSize),
		sendMsg:   make(chan interface{}, MaxClientMessageQueueSize),
		id:        id,
		limiter:   rate.NewLimiter(rate.Limit(1000), 1000),
	}

	surface := &viz.Surface{
		ID:      id,
		Variant: render.VariantSplit,
		Size:    render.Size{Width: consoleWidth, Height: consoleHeight},
		OnFrame: client.onFrame,
	}
	require.NoError(t, s.registry.Register(surface))

	sig := &viz.ManualSignal{}
	session, err := viz.NewSession(viz.SessionConfig{
		ID:       id,
		Surface:  surface,
		Registry: s.registry,
		Signal:   sig.Signal(),
		Seed:     7,
	})
	require.NoError(t, err)
	client.session = session
	t.Cleanup(client.teardown)

	return client, sig
}

// waitForPhase polls the session until it reaches the wanted phase
func waitForPhase(t *testing.T, c *Client, want viz.Phase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.session.Phase() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("session stuck in phase %v, want %v", c.session.Phase(), want)
}

func TestRouteMessageSpecOpensSession(t *testing.T) {
	s := newTestServer(t)
	c, sig := newTestClient(t, s, "route-spec")

	c.routeMessage(&ClientMessage{Type: "spec", Spec: json.RawMessage(testSpecJSON)})
	assert.Equal(t, viz.PhaseOpening, c.session.Phase())

	sig.Fire()
	waitForPhase(t, c, viz.PhaseOpen)

	scene := c.session.Scene()
	require.NotNil(t, scene)
	assert.Equal(t, "2 nodes · 1 edges", scene.StatBadge)
}

func TestRouteMessageInteractions(t *testing.T) {
	s := newTestServer(t)
	c, sig := newTestClient(t, s, "route-interact")

	c.routeMessage(&ClientMessage{Type: "spec", Spec: json.RawMessage(testSpecJSON)})
	sig.Fire()
	waitForPhase(t, c, viz.PhaseOpen)

	c.routeMessage(&ClientMessage{Type: "zoom", Zoom: 100})
	scene := c.session.Scene()
	require.NotNil(t, scene)
	assert.Equal(t, 4.0, scene.Transform.Scale, "zoom clamps to the full-surface maximum")

	c.routeMessage(&ClientMessage{Type: "zoom_fit"})
	scene = c.session.Scene()
	assert.Equal(t, render.DefaultTransform(), scene.Transform)

	c.routeMessage(&ClientMessage{Type: "filter", NodeType: "table"})
	scene = c.session.Scene()
	assert.Empty(t, scene.Nodes, "both nodes are tables, hiding the type empties the scene")

	c.routeMessage(&ClientMessage{Type: "filter", NodeType: "table"})
	scene = c.session.Scene()
	assert.Len(t, scene.Nodes, 2)
}

func TestRouteMessageClose(t *testing.T) {
	s := newTestServer(t)
	c, sig := newTestClient(t, s, "route-close")

	c.routeMessage(&ClientMessage{Type: "spec", Spec: json.RawMessage(testSpecJSON)})
	sig.Fire()
	waitForPhase(t, c, viz.PhaseOpen)

	c.routeMessage(&ClientMessage{Type: "close"})
	assert.Equal(t, viz.PhaseClosing, c.session.Phase())

	sig.Fire()
	waitForPhase(t, c, viz.PhaseHidden)
}

func TestRouteMessageUnknownType(t *testing.T) {
	s := newTestServer(t)
	c, _ := newTestClient(t, s, "route-unknown")

	// Must not panic with no session content
	c.routeMessage(&ClientMessage{Type: "launch_missiles"})
}

func TestStructuralKeyIgnoresCoordinates(t *testing.T) {
	scene := &render.Scene{
		Variant:   render.VariantSplit,
		Width:     800,
		Height:    600,
		StatBadge: "2 nodes · 1 edges",
		Transform: render.DefaultTransform(),
		Nodes: []render.SceneNode{
			{ID: "a", X: 10, Y: 20, Radius: 8, Fill: "#ff0000", Opacity: 1},
			{ID: "b", X: 30, Y: 40, Radius: 8, Fill: "#00ff00", Opacity: 1},
		},
		Edges: []render.SceneEdge{
			{ID: "a->b", Opacity: 0.6},
		},
	}
	key := structuralKey(scene)

	moved := *scene
	moved.Nodes = append([]render.SceneNode(nil), scene.Nodes...)
	moved.Nodes[0].X = 99
	moved.Nodes[1].Y = -14
	assert.Equal(t, key, structuralKey(&moved), "coordinate changes keep the key stable")

	dimmed := *scene
	dimmed.Nodes = append([]render.SceneNode(nil), scene.Nodes...)
	dimmed.Nodes[0].Opacity = 0.18
	assert.NotEqual(t, key, structuralKey(&dimmed), "opacity changes force a full scene")

	glowing := *scene
	glowing.Nodes = append([]render.SceneNode(nil), scene.Nodes...)
	glowing.Nodes[1].Glow = true
	assert.NotEqual(t, key, structuralKey(&glowing))
}

func TestOnFrameCollapsesToPositions(t *testing.T) {
	s := newTestServer(t)
	c := &Client{
		server:    s,
		sendScene: make(chan *render.Scene, 4),
		sendMsg:   make(chan interface{}, 4),
		id:        "frames",
	}
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()

	scene := &render.Scene{
		Variant:   render.VariantSplit,
		Width:     800,
		Height:    600,
		Transform: render.DefaultTransform(),
		Nodes:     []render.SceneNode{{ID: "a", X: 1, Y: 2, Opacity: 1}},
	}

	c.onFrame(scene)
	moved := *scene
	moved.Nodes = []render.SceneNode{{ID: "a", X: 5, Y: 6, Opacity: 1}}
	c.onFrame(&moved)

	// Drain what the worker would deliver
	sceneCount, positionCount := 0, 0
	for i := 0; i < 2; i++ {
		select {
		case req := <-s.broadcastReq:
			switch req.reqType {
			case broadcastScene:
				sceneCount++
			case broadcastMsg:
				if pos, ok := req.msg.(PositionsMessage); ok {
					positionCount++
					require.Len(t, pos.Positions, 1)
					assert.Equal(t, 5.0, pos.Positions[0].X)
				}
			}
		default:
			t.Fatal("expected two broadcast requests")
		}
	}
	assert.Equal(t, 1, sceneCount, "first frame ships the full scene")
	assert.Equal(t, 1, positionCount, "identical structure collapses to positions")
}

func TestBroadcastWorkerDropsSlowClient(t *testing.T) {
	s := newTestServer(t)
	c := &Client{
		server:    s,
		sendScene: make(chan *render.Scene, 1),
		sendMsg:   make(chan interface{}, 1),
		id:        "slow",
	}
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()

	scene := &render.Scene{Variant: render.VariantSplit}
	c.sendScene <- scene // fill the queue

	s.deliverScene(&broadcastRequest{reqType: broadcastScene, scene: scene})

	s.mu.RLock()
	_, stillThere := s.clients[c]
	s.mu.RUnlock()
	assert.False(t, stillThere, "slow client is removed")
	assert.Equal(t, int64(1), s.broadcastDrops.Load())
}

func TestClientMessageDecoding(t *testing.T) {
	raw := `{"type":"drag_move","node_id":"orders","x":120.5,"y":340.25}`
	var msg ClientMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Equal(t, "drag_move", msg.Type)
	assert.Equal(t, "orders", msg.NodeID)
	assert.Equal(t, 120.5, msg.X)
	assert.Equal(t, 340.25, msg.Y)
}
