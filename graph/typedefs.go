package graph

import (
	"os"

	"github.com/BurntSushi/toml"

	grapherr "github.com/teranos/QVIZ/graph/error"
	"github.com/teranos/QVIZ/logger"
)

// TypeDef holds display metadata for a node type from a sidecar file.
type TypeDef struct {
	Label      string   `toml:"label"`
	Color      string   `toml:"color"`
	Opacity    *float64 `toml:"opacity"`
	Deprecated bool     `toml:"deprecated"`
}

// RelationshipDef holds physics and display metadata for a relationship type.
type RelationshipDef struct {
	Label        string   `toml:"label"`
	Color        string   `toml:"color"`
	LinkDistance *float64 `toml:"link_distance"`
	LinkStrength *float64 `toml:"link_strength"`
	Deprecated   bool     `toml:"deprecated"`
}

// TypeDefs is an optional TOML sidecar that carries per-type display and
// physics overrides. Precedence when resolving a type's color:
// spec entity_type_colors > sidecar > frequency palette.
//
// Schema:
//
//	[types.agent]
//	label = "Agent"
//	color = "#e06c75"
//	opacity = 0.9
//
//	[relationships.calls]
//	label = "Calls"
//	link_distance = 80.0
//	link_strength = 0.4
type TypeDefs struct {
	Types         map[string]TypeDef         `toml:"types"`
	Relationships map[string]RelationshipDef `toml:"relationships"`
}

// LoadTypeDefs reads a TOML type-definition sidecar from disk.
func LoadTypeDefs(path string) (*TypeDefs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, grapherr.New(
			grapherr.CategorySpec,
			err,
			"Could not read type definition file",
		).WithContext("path", path)
	}

	var defs TypeDefs
	if err := toml.Unmarshal(data, &defs); err != nil {
		return nil, grapherr.New(
			grapherr.CategorySpec,
			err,
			"Invalid type definition file - could not decode TOML",
		).WithSubcategory(grapherr.SubcategorySpecInvalidSyntax).
			WithContext("path", path)
	}

	logger.GraphDebugw("Loaded type definitions",
		"path", path,
		"types", len(defs.Types),
		"relationships", len(defs.Relationships),
	)

	return &defs, nil
}

// ApplyTypeDefs recomputes the spec's type metadata with sidecar overrides
// merged in. The spec's node and link data is untouched; only Meta changes.
func (s *Spec) ApplyTypeDefs(defs *TypeDefs) {
	if defs == nil {
		return
	}
	s.Meta.NodeTypes = collectNodeTypeInfo(s.Nodes, s.EntityTypeColors, defs)
	s.Meta.RelationshipTypes = collectRelationshipTypeInfo(s.Links, defs)
}
