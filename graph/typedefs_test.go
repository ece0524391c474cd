package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/teranos/QVIZ/errors"
	grapherr "github.com/teranos/QVIZ/graph/error"
)

// Helper to write a sidecar file into a temp dir
func writeTypeDefs(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "types.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write sidecar: %v", err)
	}
	return path
}

// TestLoadTypeDefs tests loading a TOML sidecar with both sections
func TestLoadTypeDefs(t *testing.T) {
	path := writeTypeDefs(t, `
[types.agent]
label = "Agent"
color = "#e06c75"
opacity = 0.9

[types.legacy_tool]
deprecated = true

[relationships.calls]
label = "Calls"
link_distance = 80.0
link_strength = 0.4
`)

	defs, err := LoadTypeDefs(path)
	if err != nil {
		t.Fatalf("LoadTypeDefs failed: %v", err)
	}

	if len(defs.Types) != 2 {
		t.Fatalf("Expected 2 type definitions, got %d", len(defs.Types))
	}

	agent, exists := defs.Types["agent"]
	if !exists {
		t.Fatal("agent type definition not found")
	}
	if agent.Label != "Agent" {
		t.Errorf("agent.Label = %q, want %q", agent.Label, "Agent")
	}
	if agent.Color != "#e06c75" {
		t.Errorf("agent.Color = %q, want %q", agent.Color, "#e06c75")
	}
	if agent.Opacity == nil || *agent.Opacity != 0.9 {
		t.Error("agent.Opacity not parsed")
	}

	legacy, exists := defs.Types["legacy_tool"]
	if !exists {
		t.Fatal("legacy_tool type definition not found")
	}
	if !legacy.Deprecated {
		t.Error("legacy_tool should be deprecated")
	}
	if legacy.Opacity != nil {
		t.Error("unset opacity should stay nil")
	}

	calls, exists := defs.Relationships["calls"]
	if !exists {
		t.Fatal("calls relationship definition not found")
	}
	if calls.LinkDistance == nil || *calls.LinkDistance != 80.0 {
		t.Error("calls.LinkDistance not parsed")
	}
	if calls.LinkStrength == nil || *calls.LinkStrength != 0.4 {
		t.Error("calls.LinkStrength not parsed")
	}
}

// TestLoadTypeDefsMissingFile tests the error path for an absent sidecar
func TestLoadTypeDefsMissingFile(t *testing.T) {
	_, err := LoadTypeDefs(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}

	var gerr *grapherr.GraphError
	if !errors.As(err, &gerr) {
		t.Fatalf("Expected GraphError, got %T", err)
	}
	if !gerr.IsCategory(grapherr.CategorySpec) {
		t.Errorf("Category = %q, want %q", gerr.Category, grapherr.CategorySpec)
	}
}

// TestLoadTypeDefsMalformed tests the error path for invalid TOML
func TestLoadTypeDefsMalformed(t *testing.T) {
	path := writeTypeDefs(t, "[types.agent\nlabel = ")

	_, err := LoadTypeDefs(path)
	if err == nil {
		t.Fatal("Expected error for malformed TOML")
	}

	var gerr *grapherr.GraphError
	if !errors.As(err, &gerr) {
		t.Fatalf("Expected GraphError, got %T", err)
	}
	if !gerr.IsSubcategory(grapherr.SubcategorySpecInvalidSyntax) {
		t.Errorf("Subcategory = %q, want %q", gerr.Subcategory, grapherr.SubcategorySpecInvalidSyntax)
	}
}

// TestApplyTypeDefs tests recomputing spec metadata with sidecar overrides
func TestApplyTypeDefs(t *testing.T) {
	spec := mustParse(t, `{
		"nodes": [
			{"id": "a", "type": "agent"},
			{"id": "b", "type": "agent"}
		],
		"links": [
			{"source": "a", "target": "b", "type": "calls"}
		]
	}`)

	// Before: palette color, type-name label
	if spec.Meta.NodeTypes[0].Label != "agent" {
		t.Fatalf("pre-apply Label = %q, want %q", spec.Meta.NodeTypes[0].Label, "agent")
	}

	distance := 150.0
	spec.ApplyTypeDefs(&TypeDefs{
		Types: map[string]TypeDef{
			"agent": {Label: "Agent", Color: "#61afef"},
		},
		Relationships: map[string]RelationshipDef{
			"calls": {LinkDistance: &distance},
		},
	})

	if spec.Meta.NodeTypes[0].Label != "Agent" {
		t.Errorf("post-apply Label = %q, want %q", spec.Meta.NodeTypes[0].Label, "Agent")
	}
	if spec.Meta.NodeTypes[0].Color != "#61afef" {
		t.Errorf("post-apply Color = %q, want %q", spec.Meta.NodeTypes[0].Color, "#61afef")
	}
	if spec.Meta.RelationshipTypes[0].LinkDistance == nil || *spec.Meta.RelationshipTypes[0].LinkDistance != 150.0 {
		t.Error("post-apply link distance override missing")
	}

	// Node and link data stay untouched
	if len(spec.Nodes) != 2 || len(spec.Links) != 1 {
		t.Error("ApplyTypeDefs must not touch nodes or links")
	}

	// Applying nil is a no-op
	before := spec.Meta.NodeTypes[0].Color
	spec.ApplyTypeDefs(nil)
	if spec.Meta.NodeTypes[0].Color != before {
		t.Error("nil defs should leave metadata unchanged")
	}
}
