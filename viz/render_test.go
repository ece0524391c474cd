package viz

import (
	"testing"
	"time"

	"github.com/teranos/QVIZ/graph"
	"github.com/teranos/QVIZ/layout"
	"github.com/teranos/QVIZ/render"
)

// withRegistry installs a fresh default registry for one test.
func withRegistry(t *testing.T) *SurfaceRegistry {
	t.Helper()
	prev := GetDefaultRegistry()
	reg := NewSurfaceRegistry()
	SetDefaultRegistry(reg)
	t.Cleanup(func() { SetDefaultRegistry(prev) })
	return reg
}

// TestRenderUnknownTargetIsNoop tests that rendering into an unregistered
// surface returns nil handle and nil error
func TestRenderUnknownTargetIsNoop(t *testing.T) {
	withRegistry(t)

	h, err := Render("no-such-surface", sessionFixture())
	if err != nil {
		t.Fatalf("Render into unknown target errored: %v", err)
	}
	if h != nil {
		t.Fatalf("Render into unknown target returned handle %+v, want nil", h)
	}
}

// TestRenderInlinePreview tests that a compact preview gets a nil handle
// and an immediate scene carrying the stat badge and promote action
func TestRenderInlinePreview(t *testing.T) {
	reg := withRegistry(t)

	rec := &frameRecorder{}
	if err := reg.Register(&Surface{
		ID:      "feed-msg-1",
		Variant: render.VariantInline,
		Size:    render.Size{Width: 400, Height: 200},
		OnFrame: rec.record,
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	spec := &graph.Spec{
		Nodes: []graph.Node{
			{ID: "orders", Name: "orders", Type: "table"},
			{ID: "customers", Name: "customers", Type: "table"},
		},
		Links: []graph.Link{
			{Source: "orders", Target: "customers", Type: "references", Weight: 1},
		},
	}

	h, err := Render("feed-msg-1", spec)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if h != nil {
		t.Fatal("inline render returned a handle, want nil")
	}

	scene := rec.last()
	if scene == nil {
		t.Fatal("no scene pushed to the inline surface")
	}
	if scene.StatBadge != "2 nodes · 1 edges" {
		t.Errorf("stat badge = %q, want %q", scene.StatBadge, "2 nodes · 1 edges")
	}
	if len(scene.Nodes) != 2 || len(scene.Edges) != 1 {
		t.Errorf("scene has %d nodes, %d edges, want 2 and 1", len(scene.Nodes), len(scene.Edges))
	}
	if scene.Action == nil || scene.Action.Intent != "open_in_graph" {
		t.Errorf("scene action = %+v, want open_in_graph intent", scene.Action)
	}
	if scene.Toolbar != nil {
		t.Error("inline scene carries a toolbar")
	}
}

// TestRenderInlineEmptyGraph tests that an empty spec paints the empty
// state without starting a simulation
func TestRenderInlineEmptyGraph(t *testing.T) {
	reg := withRegistry(t)

	rec := &frameRecorder{}
	if err := reg.Register(&Surface{
		ID:      "feed-msg-2",
		Variant: render.VariantInline,
		Size:    render.Size{Width: 400, Height: 200},
		OnFrame: rec.record,
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := Render("feed-msg-2", &graph.Spec{}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	scene := rec.last()
	if scene == nil {
		t.Fatal("no scene pushed")
	}
	if scene.EmptyMessage == "" {
		t.Error("empty graph scene has no empty-state message")
	}
}

// TestRenderMalformedPayload tests that undecodable payloads error and
// paint an error-state scene, never panic into the host
func TestRenderMalformedPayload(t *testing.T) {
	reg := withRegistry(t)

	rec := &frameRecorder{}
	if err := reg.Register(&Surface{
		ID:      "side-panel",
		Variant: render.VariantSplit,
		Size:    render.Size{Width: 1440, Height: 900},
		OnFrame: rec.record,
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	h, err := Render("side-panel", "{not json")
	if err == nil {
		t.Fatal("Render accepted a malformed payload")
	}
	if h != nil {
		t.Fatal("Render returned a handle for a malformed payload")
	}

	scene := rec.last()
	if scene == nil || scene.EmptyMessage == "" {
		t.Errorf("no error-state scene pushed, got %+v", scene)
	}
}

// TestRenderSplitReturnsHandle tests that full surfaces come back with a
// live session behind the handle
func TestRenderSplitReturnsHandle(t *testing.T) {
	reg := withRegistry(t)

	rec := &frameRecorder{}
	if err := reg.Register(&Surface{
		ID:      "side-panel",
		Variant: render.VariantSplit,
		Size:    render.Size{Width: 1440, Height: 900},
		OnFrame: rec.record,
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	payload := `{"nodes":[{"id":"orders","name":"orders","type":"table"}],"links":[]}`
	h, err := Render("side-panel", payload)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if h == nil {
		t.Fatal("full-surface render returned nil handle")
	}
	defer h.Stop()

	if phase := h.Session().Phase(); phase != PhaseOpening && phase != PhaseOpen {
		t.Errorf("session phase = %s, want opening or open", phase)
	}
}

// TestSetCompactBudget tests that the configured inline budget reaches the
// preview simulation profile
func TestSetCompactBudget(t *testing.T) {
	t.Cleanup(func() { SetCompactBudget(0) })

	SetCompactBudget(1200 * time.Millisecond)
	if got := compactProfile().Budget; got != 1200*time.Millisecond {
		t.Errorf("compact budget = %v, want configured 1.2s", got)
	}

	// Unset falls back to the profile default
	SetCompactBudget(0)
	if got := compactProfile().Budget; got != layout.CompactProfile().Budget {
		t.Errorf("compact budget = %v, want profile default", got)
	}
}

// TestRenderSameSurfaceSupersedes tests that re-rendering into an
// already-bound surface shuts the prior session down first: no second
// simulation keeps streaming frames to the same surface
func TestRenderSameSurfaceSupersedes(t *testing.T) {
	reg := withRegistry(t)

	rec := &frameRecorder{}
	if err := reg.Register(&Surface{
		ID:      "side-panel",
		Variant: render.VariantSplit,
		Size:    render.Size{Width: 1440, Height: 900},
		OnFrame: rec.record,
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	h1, err := Render("side-panel", sessionFixture())
	if err != nil {
		t.Fatalf("first Render failed: %v", err)
	}

	// Wait for the open transition to land and the simulation to mount
	var sim *layout.Simulation
	for deadline := time.Now().Add(3 * time.Second); time.Now().Before(deadline); {
		if sim = h1.Simulation(); sim != nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if sim == nil {
		t.Fatal("first session never mounted a simulation")
	}

	h2, err := Render("side-panel", sessionFixture())
	if err != nil {
		t.Fatalf("second Render failed: %v", err)
	}
	defer h2.Stop()

	if h1.Session() == h2.Session() {
		t.Fatal("re-render reused the superseded session")
	}
	if h1.Simulation() != nil {
		t.Error("superseded session still holds a mounted simulation")
	}

	ticks := sim.Ticks()
	time.Sleep(50 * time.Millisecond)
	if sim.Ticks() != ticks {
		t.Errorf("superseded simulation still ticking after re-render: %d -> %d", ticks, sim.Ticks())
	}
}
