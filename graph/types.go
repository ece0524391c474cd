package graph

import (
	"sort"
)

// collectNodeTypeInfo collects information about node types present in the
// graph. Color resolution per type: explicit entity_type_colors entry, then
// sidecar definition, then frequency palette. Untyped nodes always get the
// muted default. Returns types sorted by count descending (ties broken by
// name) so the most common types lead the legend.
func collectNodeTypeInfo(nodes []Node, explicitColors map[string]string, defs *TypeDefs) []NodeTypeInfo {
	// Count nodes by type
	typeCounts := make(map[string]int)
	for _, node := range nodes {
		typeCounts[node.Type]++
	}

	var nodeTypes []NodeTypeInfo
	for nodeType, count := range typeCounts {
		nodeTypes = append(nodeTypes, NodeTypeInfo{
			Type:  nodeType,
			Label: nodeType, // Overridden below when a definition exists
			Count: count,
		})
	}

	// Sort by count (descending) for legend ordering; ties break on type
	// name so palette assignment is deterministic.
	sort.Slice(nodeTypes, func(i, j int) bool {
		if nodeTypes[i].Count != nodeTypes[j].Count {
			return nodeTypes[i].Count > nodeTypes[j].Count
		}
		return nodeTypes[i].Type < nodeTypes[j].Type
	})

	paletteIndex := 0
	for i := range nodeTypes {
		info := &nodeTypes[i]

		if defs != nil {
			if def, ok := defs.Types[info.Type]; ok {
				if def.Label != "" {
					info.Label = def.Label
				}
				info.Color = def.Color
				info.Opacity = def.Opacity
				info.Deprecated = def.Deprecated
			}
		}

		// Explicit spec colors take precedence over sidecar definitions
		if color, ok := explicitColors[info.Type]; ok && color != "" {
			info.Color = color
		}

		if info.Type == defaultUntypedType {
			if info.Color == "" {
				info.Color = defaultUntypedColor
			}
			if info.Label == defaultUntypedType {
				info.Label = defaultUntypedLabel
			}
			continue
		}

		// Fall back to the frequency palette, cycling past its end
		if info.Color == "" {
			info.Color = typePalette[paletteIndex%len(typePalette)]
			paletteIndex++
		}
	}

	return nodeTypes
}

// collectRelationshipTypeInfo collects information about relationship types
// present in the graph, merging sidecar physics overrides when available.
// Returns types sorted by count descending (ties broken by name).
func collectRelationshipTypeInfo(links []Link, defs *TypeDefs) []RelationshipTypeInfo {
	// Count links by type
	typeCounts := make(map[string]int)
	for _, link := range links {
		typeCounts[link.Type]++
	}

	var relationshipTypes []RelationshipTypeInfo
	for linkType, count := range typeCounts {
		info := RelationshipTypeInfo{
			Type:  linkType,
			Label: linkType, // Default to type name if no definition
			Count: count,
		}

		if defs != nil {
			if def, ok := defs.Relationships[linkType]; ok {
				if def.Label != "" {
					info.Label = def.Label
				}
				info.Color = def.Color
				info.LinkDistance = def.LinkDistance
				info.LinkStrength = def.LinkStrength
			}
		}

		relationshipTypes = append(relationshipTypes, info)
	}

	sort.Slice(relationshipTypes, func(i, j int) bool {
		if relationshipTypes[i].Count != relationshipTypes[j].Count {
			return relationshipTypes[i].Count > relationshipTypes[j].Count
		}
		return relationshipTypes[i].Type < relationshipTypes[j].Type
	})

	return relationshipTypes
}
