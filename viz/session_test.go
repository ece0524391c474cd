package viz

import (
	"sync"
	"testing"
	"time"

	"github.com/teranos/QVIZ/graph"
	"github.com/teranos/QVIZ/render"
)

func sessionFixture() *graph.Spec {
	return &graph.Spec{
		Nodes: []graph.Node{
			{ID: "orders", Name: "orders", Type: "table", Importance: 0.8, IsCenter: true},
			{ID: "customers", Name: "customers", Type: "table", Importance: 0.5},
			{ID: "invoice_job", Name: "invoice_job", Type: "job"},
		},
		Links: []graph.Link{
			{Source: "orders", Target: "customers", Type: "references", Weight: 1},
			{Source: "invoice_job", Target: "orders", Type: "reads", Weight: 1},
		},
	}
}

// frameRecorder captures scenes pushed to a surface.
type frameRecorder struct {
	mu     sync.Mutex
	scenes []*render.Scene
}

func (r *frameRecorder) record(scene *render.Scene) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenes = append(r.scenes, scene)
}

func (r *frameRecorder) last() *render.Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.scenes) == 0 {
		return nil
	}
	return r.scenes[len(r.scenes)-1]
}

// openSession builds a split-panel session on a fresh registry, opens the
// given spec, and drives the manual transition to completion.
func openSession(t *testing.T, id string, reg *SurfaceRegistry, spec *graph.Spec) (*Session, *frameRecorder, *ManualSignal) {
	t.Helper()

	rec := &frameRecorder{}
	surface := &Surface{
		ID:      id,
		Variant: render.VariantSplit,
		Size:    render.Size{Width: 1440, Height: 900},
		OnFrame: rec.record,
	}
	if err := reg.Register(surface); err != nil {
		t.Fatalf("Register(%s) failed: %v", id, err)
	}

	sig := &ManualSignal{}
	s, err := NewSession(SessionConfig{
		ID:       id,
		Surface:  surface,
		Registry: reg,
		Signal:   sig.Signal(),
	})
	if err != nil {
		t.Fatalf("NewSession(%s) failed: %v", id, err)
	}
	t.Cleanup(s.Shutdown)

	s.Open(spec)
	sig.Fire()
	s.machine.Wait()
	return s, rec, sig
}

// nodeOpacities indexes a scene's node opacity by id.
func nodeOpacities(scene *render.Scene) map[string]float64 {
	out := make(map[string]float64, len(scene.Nodes))
	for _, n := range scene.Nodes {
		out[n.ID] = n.Opacity
	}
	return out
}

// TestSessionEmptyGraphNoSimulation tests that a zero-node spec shows the
// empty state and never starts a tick loop
func TestSessionEmptyGraphNoSimulation(t *testing.T) {
	s, rec, _ := openSession(t, "panel-empty", NewSurfaceRegistry(), &graph.Spec{})

	scene := rec.last()
	if scene == nil {
		t.Fatal("no scene pushed after open")
	}
	if scene.EmptyMessage == "" {
		t.Error("empty graph scene has no empty-state message")
	}
	if len(scene.Nodes) != 0 || len(scene.Edges) != 0 {
		t.Errorf("empty graph produced %d nodes, %d edges", len(scene.Nodes), len(scene.Edges))
	}

	s.mu.Lock()
	sim := s.sim
	s.mu.Unlock()
	if sim != nil {
		t.Error("simulation started for an empty graph")
	}
}

// TestSessionPanelGeometryFromConfig tests that configured panel geometry
// reaches the display machine instead of the built-in defaults
func TestSessionPanelGeometryFromConfig(t *testing.T) {
	reg := NewSurfaceRegistry()
	surface := &Surface{
		ID:      "panel-geometry",
		Variant: render.VariantSplit,
		Size:    render.Size{Width: 1440, Height: 900},
		OnFrame: (&frameRecorder{}).record,
	}
	if err := reg.Register(surface); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	sig := &ManualSignal{}
	s, err := NewSession(SessionConfig{
		ID:            "panel-geometry",
		Surface:       surface,
		Registry:      reg,
		Signal:        sig.Signal(),
		PanelFraction: 0.5,
		PanelMinWidth: 100,
		ChromeHeight:  120,
	})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	t.Cleanup(s.Shutdown)

	s.Open(sessionFixture())
	sig.Fire()
	s.machine.Wait()

	if got := s.machine.Width(); got != 1440*0.5 {
		t.Errorf("open width = %f, want configured fraction 720", got)
	}

	s.ToggleFullscreen()
	if got := s.machine.TopOffset(); got != 120 {
		t.Errorf("fullscreen top offset = %f, want configured 120", got)
	}
}

// TestSessionSceneCounts tests that every node and resolved link becomes
// exactly one glyph
func TestSessionSceneCounts(t *testing.T) {
	_, rec, _ := openSession(t, "panel-counts", NewSurfaceRegistry(), sessionFixture())

	scene := rec.last()
	if scene == nil {
		t.Fatal("no scene pushed after open")
	}
	if len(scene.Nodes) != 3 {
		t.Errorf("scene has %d node glyphs, want 3", len(scene.Nodes))
	}
	if len(scene.Edges) != 2 {
		t.Errorf("scene has %d edge glyphs, want 2", len(scene.Edges))
	}
}

// TestSessionFocusInvolution tests that focusing a node and re-clicking it
// restores the exact pre-focus opacity for every element
func TestSessionFocusInvolution(t *testing.T) {
	s, _, _ := openSession(t, "panel-focus", NewSurfaceRegistry(), sessionFixture())

	baseline := nodeOpacities(s.Scene())

	s.Focus("orders")
	focused := nodeOpacities(s.Scene())
	if focused["invoice_job"] >= baseline["invoice_job"] {
		t.Error("node outside the neighborhood did not dim under focus")
	}
	if focused["customers"] != baseline["customers"] {
		t.Error("1-hop neighbor lost full opacity under focus")
	}

	s.Focus("orders")
	restored := nodeOpacities(s.Scene())
	for id, want := range baseline {
		if restored[id] != want {
			t.Errorf("node %s opacity = %f after involution, want %f", id, restored[id], want)
		}
	}
}

// TestSessionFocusReplacesDirectly tests that clicking a different node
// while focused swaps the neighborhood without an unfocus step
func TestSessionFocusReplacesDirectly(t *testing.T) {
	s, _, _ := openSession(t, "panel-refocus", NewSurfaceRegistry(), sessionFixture())

	s.Focus("orders")
	s.Focus("invoice_job")

	s.mu.Lock()
	focusID := s.view.FocusID
	set := s.view.Focus
	s.mu.Unlock()

	if focusID != "invoice_job" {
		t.Fatalf("focus anchor = %q, want invoice_job", focusID)
	}
	if !set["orders"] || set["customers"] {
		t.Errorf("neighborhood = %v, want invoice_job+orders only", set)
	}
}

// TestSessionTypeFilterReversible tests that hiding a type removes its
// nodes and touching edges, and toggling back restores them
func TestSessionTypeFilterReversible(t *testing.T) {
	s, _, _ := openSession(t, "panel-filter", NewSurfaceRegistry(), sessionFixture())

	before := s.Scene()

	s.ToggleType("job")
	hidden := s.Scene()
	if len(hidden.Nodes) != 2 {
		t.Errorf("scene has %d nodes with job hidden, want 2", len(hidden.Nodes))
	}
	if len(hidden.Edges) != 1 {
		t.Errorf("scene has %d edges with job hidden, want 1 (edge touching hidden endpoint dropped)", len(hidden.Edges))
	}

	s.ToggleType("job")
	after := s.Scene()
	if len(after.Nodes) != len(before.Nodes) || len(after.Edges) != len(before.Edges) {
		t.Errorf("filter not reversible: %d/%d glyphs, want %d/%d",
			len(after.Nodes), len(after.Edges), len(before.Nodes), len(before.Edges))
	}
}

// TestSessionSearchEmptyRestores tests that clearing the query restores
// uniform full opacity regardless of prior state
func TestSessionSearchEmptyRestores(t *testing.T) {
	s, _, _ := openSession(t, "panel-search", NewSurfaceRegistry(), sessionFixture())

	baseline := nodeOpacities(s.Scene())

	s.Search("ORD")
	dimmed := nodeOpacities(s.Scene())
	if dimmed["orders"] != baseline["orders"] {
		t.Error("match lost full opacity")
	}
	if dimmed["invoice_job"] >= baseline["invoice_job"] {
		t.Error("non-match did not dim")
	}

	s.Search("")
	restored := nodeOpacities(s.Scene())
	for id, want := range baseline {
		if restored[id] != want {
			t.Errorf("node %s opacity = %f after clearing search, want %f", id, restored[id], want)
		}
	}
}

// TestSessionZoomClamp tests the full-surface zoom bounds
func TestSessionZoomClamp(t *testing.T) {
	s, _, _ := openSession(t, "panel-zoom", NewSurfaceRegistry(), sessionFixture())

	s.SetZoom(100)
	if got := s.Scene().Transform.Scale; got != zoomMaxFull {
		t.Errorf("scale = %f after over-zoom, want %f", got, zoomMaxFull)
	}

	s.SetZoom(0.001)
	if got := s.Scene().Transform.Scale; got != zoomMinFull {
		t.Errorf("scale = %f after under-zoom, want %f", got, zoomMinFull)
	}

	s.Pan(40, -25)
	s.ZoomToFit()
	if got := s.Scene().Transform; got != render.DefaultTransform() {
		t.Errorf("transform = %+v after zoom-to-fit, want default", got)
	}
}

// TestSessionDragPinRelease tests that dragging pins the node and release
// clears the pin so forces move it again
func TestSessionDragPinRelease(t *testing.T) {
	s, _, _ := openSession(t, "panel-drag", NewSurfaceRegistry(), sessionFixture())

	s.mu.Lock()
	sim := s.sim
	s.mu.Unlock()
	if sim == nil {
		t.Fatal("no simulation mounted")
	}

	s.DragStart("orders")
	if !sim.Pinned("orders") {
		t.Fatal("orders not pinned after drag start")
	}

	s.DragMove(120, 340)
	frame := sim.Snapshot()
	pos, ok := frame.ByID()["orders"]
	if !ok || pos.X != 120 || pos.Y != 340 {
		t.Errorf("dragged node at (%f, %f), want (120, 340)", pos.X, pos.Y)
	}

	s.DragEnd()
	if sim.Pinned("orders") {
		t.Error("orders still pinned after drag end")
	}
}

// TestSessionSiblingCloseRequest tests that opening one panel asks the open
// sibling to close without blocking on the sibling's transition
func TestSessionSiblingCloseRequest(t *testing.T) {
	reg := NewSurfaceRegistry()
	a, _, sigA := openSession(t, "panel-a", reg, sessionFixture())

	rec := &frameRecorder{}
	surfaceB := &Surface{
		ID:      "panel-b",
		Variant: render.VariantSplit,
		Size:    render.Size{Width: 1440, Height: 900},
		OnFrame: rec.record,
	}
	if err := reg.Register(surfaceB); err != nil {
		t.Fatalf("Register(panel-b) failed: %v", err)
	}
	sigB := &ManualSignal{}
	b, err := NewSession(SessionConfig{
		ID:       "panel-b",
		Surface:  surfaceB,
		Registry: reg,
		Signal:   sigB.Signal(),
	})
	if err != nil {
		t.Fatalf("NewSession(panel-b) failed: %v", err)
	}
	t.Cleanup(b.Shutdown)

	// B's open returns immediately; A's close runs on its own timing.
	b.Open(sessionFixture())
	if b.Phase() != PhaseOpening {
		t.Fatalf("panel-b phase = %s, want opening", b.Phase())
	}

	deadline := time.After(2 * time.Second)
	for a.Phase() != PhaseClosing {
		select {
		case <-deadline:
			t.Fatalf("panel-a phase = %s, never began closing", a.Phase())
		case <-time.After(time.Millisecond):
		}
	}

	sigA.Fire()
	sigB.Fire()
	a.machine.Wait()
	b.machine.Wait()

	if a.Phase() != PhaseHidden {
		t.Errorf("panel-a phase = %s, want hidden", a.Phase())
	}
	a.mu.Lock()
	cleared := a.spec == nil && a.sim == nil
	a.mu.Unlock()
	if !cleared {
		t.Error("panel-a content not cleared after its close completed")
	}
	if b.Phase() != PhaseOpen {
		t.Errorf("panel-b phase = %s, want open", b.Phase())
	}
}

// TestSessionSwapWithoutReplay tests that opening a new spec while already
// open swaps content without replaying the open transition
func TestSessionSwapWithoutReplay(t *testing.T) {
	s, _, sig := openSession(t, "panel-swap", NewSurfaceRegistry(), sessionFixture())

	s.mu.Lock()
	oldSim := s.sim
	s.mu.Unlock()

	s.Open(&graph.Spec{
		Nodes: []graph.Node{{ID: "solo", Name: "solo", Type: "table"}},
	})

	if s.Phase() != PhaseOpen {
		t.Fatalf("phase = %s after swap, want open (no transition replay)", s.Phase())
	}
	if sig.Pending() != 0 {
		t.Errorf("%d transitions armed by a content swap, want 0", sig.Pending())
	}

	s.mu.Lock()
	newSim := s.sim
	nodes := len(s.spec.Nodes)
	s.mu.Unlock()
	if newSim == oldSim {
		t.Error("swap kept the old simulation")
	}
	if nodes != 1 {
		t.Errorf("swap mounted %d nodes, want 1", nodes)
	}
}

// TestSessionFullscreenKeepsSimulation tests that toggling fullscreen twice
// restores panel state and never restarts the simulation
func TestSessionFullscreenKeepsSimulation(t *testing.T) {
	s, _, _ := openSession(t, "panel-fs", NewSurfaceRegistry(), sessionFixture())

	s.mu.Lock()
	before := s.sim
	s.mu.Unlock()

	s.ToggleFullscreen()
	if s.Phase() != PhaseFullscreen {
		t.Fatalf("phase = %s, want fullscreen", s.Phase())
	}
	scene := s.Scene()
	if scene.Variant != render.VariantFullscreen {
		t.Errorf("scene variant = %s in fullscreen, want fullscreen", scene.Variant)
	}

	s.ToggleFullscreen()
	if s.Phase() != PhaseOpen {
		t.Fatalf("phase = %s after round trip, want open", s.Phase())
	}

	s.mu.Lock()
	after := s.sim
	s.mu.Unlock()
	if after != before {
		t.Error("fullscreen toggle restarted the simulation")
	}
}

// TestSessionExportOutlivesClose tests that a pending export completes
// best-effort on the scene captured at close time
func TestSessionExportOutlivesClose(t *testing.T) {
	s, _, sig := openSession(t, "panel-export", NewSurfaceRegistry(), sessionFixture())

	s.Close()
	sig.Fire()
	s.machine.Wait()

	if s.Phase() != PhaseHidden {
		t.Fatalf("phase = %s, want hidden", s.Phase())
	}

	png, err := s.ExportPNG(2)
	if err != nil {
		t.Fatalf("export after close failed: %v", err)
	}
	if len(png) == 0 {
		t.Error("export after close produced no bytes")
	}
}
