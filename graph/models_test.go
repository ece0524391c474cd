package graph

import (
	"testing"
)

// TestSummary tests the stat-badge string shown under compact previews
func TestSummary(t *testing.T) {
	spec := &Spec{
		Nodes: []Node{
			{ID: "planner", Name: "Planner", Type: "agent"},
			{ID: "executor", Name: "Executor", Type: "agent"},
		},
		Links: []Link{
			{Source: "planner", Target: "executor", Type: "delegates_to"},
		},
	}

	if got := spec.Summary(); got != "2 nodes · 1 edges" {
		t.Errorf("Summary() = %q, want %q", got, "2 nodes · 1 edges")
	}
}

// TestSummaryEmpty tests the badge for a graph with no content
func TestSummaryEmpty(t *testing.T) {
	spec := &Spec{}

	if got := spec.Summary(); got != "0 nodes · 0 edges" {
		t.Errorf("Summary() = %q, want %q", got, "0 nodes · 0 edges")
	}
}

// TestIsEmpty tests empty-state detection
func TestIsEmpty(t *testing.T) {
	empty := &Spec{Links: []Link{{Source: "a", Target: "b"}}}
	if !empty.IsEmpty() {
		t.Error("spec with no nodes should be empty regardless of links")
	}

	populated := &Spec{Nodes: []Node{{ID: "a"}}}
	if populated.IsEmpty() {
		t.Error("spec with nodes should not be empty")
	}
}

// TestCenterNode tests center decoration lookup
func TestCenterNode(t *testing.T) {
	spec := &Spec{
		Nodes: []Node{
			{ID: "alpha"},
			{ID: "beta", IsCenter: true},
			{ID: "gamma"},
		},
	}

	center := spec.CenterNode()
	if center == nil {
		t.Fatal("expected a center node")
	}
	if center.ID != "beta" {
		t.Errorf("CenterNode().ID = %q, want %q", center.ID, "beta")
	}

	plain := &Spec{Nodes: []Node{{ID: "alpha"}}}
	if plain.CenterNode() != nil {
		t.Error("spec without center flags should return nil")
	}
}

// TestNodeByID tests node lookup by normalized ID
func TestNodeByID(t *testing.T) {
	spec := &Spec{
		Nodes: []Node{
			{ID: "alpha", Name: "Alpha"},
			{ID: "beta", Name: "Beta"},
		},
	}

	node := spec.NodeByID("beta")
	if node == nil {
		t.Fatal("expected to find node beta")
	}
	if node.Name != "Beta" {
		t.Errorf("NodeByID(beta).Name = %q, want %q", node.Name, "Beta")
	}

	if spec.NodeByID("missing") != nil {
		t.Error("unknown ID should return nil")
	}
}
