package graph

import (
	"testing"
)

func searchFixture() *Spec {
	return &Spec{
		Nodes: []Node{
			{ID: "planner", Name: "Planner", Type: "agent"},
			{ID: "executor", Name: "Executor", Type: "agent"},
			{ID: "vectordb", Name: "Vector Store", Type: "datastore"},
			{ID: "gateway", Name: "API Gateway", Type: "service"},
		},
		Links: []Link{
			{Source: "planner", Target: "executor", Type: "delegates_to"},
			{Source: "executor", Target: "vectordb", Type: "queries"},
			{Source: "gateway", Target: "planner", Type: "routes_to"},
		},
	}
}

// TestSearchMatchesSubstring tests case-insensitive substring matching
// across id, name, and type
func TestSearchMatchesSubstring(t *testing.T) {
	spec := searchFixture()

	tests := []struct {
		query string
		want  []string
	}{
		{"plan", []string{"planner"}},                            // id
		{"VECTOR", []string{"vectordb"}},                         // name, case-insensitive
		{"agent", []string{"planner", "executor"}},               // type
		{"e", []string{"planner", "executor", "vectordb", "gateway"}}, // broad
		{"zzz", nil},                                             // no hit
	}

	for _, tt := range tests {
		matches := spec.SearchMatches(tt.query)
		if len(matches) != len(tt.want) {
			t.Errorf("SearchMatches(%q) returned %d matches, want %d", tt.query, len(matches), len(tt.want))
			continue
		}
		for _, id := range tt.want {
			if !matches[id] {
				t.Errorf("SearchMatches(%q) missing %q", tt.query, id)
			}
		}
	}
}

// TestSearchMatchesEmptyQuery tests that a cleared search restores everything
func TestSearchMatchesEmptyQuery(t *testing.T) {
	spec := searchFixture()

	for _, query := range []string{"", "   ", "\t"} {
		matches := spec.SearchMatches(query)
		if len(matches) != len(spec.Nodes) {
			t.Errorf("SearchMatches(%q) returned %d matches, want all %d nodes", query, len(matches), len(spec.Nodes))
		}
	}
}

// TestNeighborhoodClosedSet tests the 1-hop focus set including the node itself
func TestNeighborhoodClosedSet(t *testing.T) {
	spec := searchFixture()

	set := spec.Neighborhood("planner")

	want := []string{"planner", "executor", "gateway"}
	if len(set) != len(want) {
		t.Fatalf("Neighborhood(planner) has %d members, want %d", len(set), len(want))
	}
	for _, id := range want {
		if !set[id] {
			t.Errorf("Neighborhood(planner) missing %q", id)
		}
	}

	// vectordb is two hops away
	if set["vectordb"] {
		t.Error("Neighborhood(planner) should not include vectordb")
	}
}

// TestNeighborhoodDirectionAgnostic tests that both link directions count
func TestNeighborhoodDirectionAgnostic(t *testing.T) {
	spec := searchFixture()

	set := spec.Neighborhood("executor")

	// planner points at executor, executor points at vectordb
	for _, id := range []string{"executor", "planner", "vectordb"} {
		if !set[id] {
			t.Errorf("Neighborhood(executor) missing %q", id)
		}
	}
}

// TestNeighborhoodUnknownNode tests that unknown IDs yield an empty set
func TestNeighborhoodUnknownNode(t *testing.T) {
	spec := searchFixture()

	if set := spec.Neighborhood("ghost"); len(set) != 0 {
		t.Errorf("Neighborhood(ghost) = %v, want empty", set)
	}
}

// TestNeighborhoodIsolatedNode tests a node with no links
func TestNeighborhoodIsolatedNode(t *testing.T) {
	spec := &Spec{
		Nodes: []Node{{ID: "loner"}},
	}

	set := spec.Neighborhood("loner")
	if len(set) != 1 || !set["loner"] {
		t.Errorf("Neighborhood(loner) = %v, want just the node itself", set)
	}
}
