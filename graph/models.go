package graph

import (
	"fmt"
	"time"
)

// Spec is the complete declarative description of a graph to visualize.
// Console pipelines emit specs as JSON or YAML; the engine treats a parsed
// Spec as immutable. Rendering works on clones (see Clone) so the same spec
// can back inline, split, and fullscreen surfaces concurrently.
type Spec struct {
	Title            string            `json:"title,omitempty" yaml:"title,omitempty"`
	Nodes            []Node            `json:"nodes" yaml:"nodes"`
	Links            []Link            `json:"links" yaml:"links"`
	EntityTypeColors map[string]string `json:"entity_type_colors,omitempty" yaml:"entity_type_colors,omitempty"`
	CenterEntity     string            `json:"center_entity,omitempty" yaml:"center_entity,omitempty"`
	Depth            int               `json:"depth,omitempty" yaml:"depth,omitempty"`
	Meta             Meta              `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Node represents an entity in the graph
type Node struct {
	ID         string                 `json:"id" yaml:"id"`
	Name       string                 `json:"name" yaml:"name"`                             // Display label
	Type       string                 `json:"type,omitempty" yaml:"type,omitempty"`         // Category key ("agent", "service") or "untyped"
	Importance float64                `json:"importance,omitempty" yaml:"importance,omitempty"` // Scales paint radius, clamped to [0,1]
	IsCenter   bool                   `json:"is_center,omitempty" yaml:"is_center,omitempty"`   // Ring/pulse decoration; at most one after parse
	Properties map[string]interface{} `json:"properties,omitempty" yaml:"properties,omitempty"` // Free-form; consumed by tooltip
}

// Link represents a relationship between nodes
type Link struct {
	Source string  `json:"source" yaml:"source"` // Node ID
	Target string  `json:"target" yaml:"target"` // Node ID
	Type   string  `json:"type,omitempty" yaml:"type,omitempty"`   // Relationship label ("calls", "owns")
	Label  string  `json:"label,omitempty" yaml:"label,omitempty"` // Edge label; defaults to Type
	Weight float64 `json:"value,omitempty" yaml:"value,omitempty"` // Link strength (D3 uses "value"); accumulates for duplicates
}

// Meta contains metadata about the spec
type Meta struct {
	Description       string                 `json:"description,omitempty" yaml:"description,omitempty"`
	MinEngine         string                 `json:"min_engine,omitempty" yaml:"min_engine,omitempty"` // Semver floor; parse rejects older engines
	GeneratedAt       time.Time              `json:"generated_at,omitempty" yaml:"generated_at,omitempty"`
	Stats             Stats                  `json:"stats" yaml:"stats"`
	NodeTypes         []NodeTypeInfo         `json:"node_types,omitempty" yaml:"node_types,omitempty"`                 // Node types present, legend order
	RelationshipTypes []RelationshipTypeInfo `json:"relationship_types,omitempty" yaml:"relationship_types,omitempty"` // Relationship types with physics
}

// NodeTypeInfo describes a node type and its visual configuration
type NodeTypeInfo struct {
	Type       string   `json:"type"`                 // e.g., "agent", "service", "datastore"
	Label      string   `json:"label"`                // Human-readable display name
	Color      string   `json:"color,omitempty"`      // Hex color code
	Count      int      `json:"count,omitempty"`      // Number of nodes of this type
	Opacity    *float64 `json:"opacity,omitempty"`    // Visual opacity override
	Deprecated bool     `json:"deprecated,omitempty"` // Whether this type is being phased out
}

// RelationshipTypeInfo describes a relationship type with physics and visual configuration
type RelationshipTypeInfo struct {
	Type         string   `json:"type"`                    // Relationship name (e.g., "calls", "owns")
	Label        string   `json:"label"`                   // Human-readable display name
	Color        string   `json:"color,omitempty"`         // Optional link color override
	LinkDistance *float64 `json:"link_distance,omitempty"` // Force distance override (nil = use profile default)
	LinkStrength *float64 `json:"link_strength,omitempty"` // Force strength override (nil = use profile default)
	Count        int      `json:"count,omitempty"`         // Number of links of this type
}

// Stats provides graph statistics
type Stats struct {
	TotalNodes   int `json:"total_nodes,omitempty"`
	TotalEdges   int `json:"total_edges,omitempty"`
	DroppedLinks int `json:"dropped_links,omitempty"` // Links soft-dropped at validation
}

// Summary returns the stat-badge string shown under compact previews,
// e.g. "19 nodes · 12 edges".
func (s *Spec) Summary() string {
	return fmt.Sprintf("%d nodes · %d edges", len(s.Nodes), len(s.Links))
}

// IsEmpty reports whether the spec has no nodes. Empty specs render an
// empty-state message and never start a simulation.
func (s *Spec) IsEmpty() bool {
	return len(s.Nodes) == 0
}

// CenterNode returns the node carrying the center decoration, or nil.
// Parse guarantees at most one node has IsCenter set.
func (s *Spec) CenterNode() *Node {
	for i := range s.Nodes {
		if s.Nodes[i].IsCenter {
			return &s.Nodes[i]
		}
	}
	return nil
}

// NodeByID returns the node with the given (normalized) ID, or nil.
func (s *Spec) NodeByID(id string) *Node {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i]
		}
	}
	return nil
}
