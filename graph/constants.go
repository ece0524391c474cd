package graph

const (
	// Link weight constants
	defaultLinkWeight   = 1.0 // Initial weight for new links
	linkWeightIncrement = 0.5 // Weight increase for duplicate relationships

	// Defaults for untyped nodes (no type declaration)
	defaultUntypedType  = "untyped"
	defaultUntypedColor = "rgba(149, 165, 166, 0.3)" // Transparent gray
	defaultUntypedLabel = "Untyped"
)

// typePalette assigns colors to node types that have neither an explicit
// entity_type_colors entry nor a sidecar definition. Assignment is by
// frequency order (most common type takes the first color) so legends stay
// stable for a given spec.
var typePalette = []string{
	"#61afef", // blue
	"#e06c75", // red
	"#98c379", // green
	"#e5c07b", // yellow
	"#c678dd", // purple
	"#56b6c2", // cyan
	"#d19a66", // orange
	"#be5046", // dark red
	"#7fbbb3", // teal
	"#d3869b", // pink
}
