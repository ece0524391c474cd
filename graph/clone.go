package graph

// Clone returns a deep copy of the spec. This is the only sanctioned copy
// path: every render call works on its own clone so concurrent inline,
// split, and fullscreen surfaces never share mutable state.
func (s *Spec) Clone() *Spec {
	if s == nil {
		return nil
	}

	clone := &Spec{
		Title:        s.Title,
		CenterEntity: s.CenterEntity,
		Depth:        s.Depth,
		Meta:         s.Meta,
	}

	if s.Nodes != nil {
		clone.Nodes = make([]Node, len(s.Nodes))
		for i, node := range s.Nodes {
			copied := node
			if node.Properties != nil {
				copied.Properties = make(map[string]interface{}, len(node.Properties))
				for k, v := range node.Properties {
					copied.Properties[k] = v
				}
			}
			clone.Nodes[i] = copied
		}
	}

	if s.Links != nil {
		clone.Links = make([]Link, len(s.Links))
		copy(clone.Links, s.Links)
	}

	if s.EntityTypeColors != nil {
		clone.EntityTypeColors = make(map[string]string, len(s.EntityTypeColors))
		for k, v := range s.EntityTypeColors {
			clone.EntityTypeColors[k] = v
		}
	}

	if s.Meta.NodeTypes != nil {
		clone.Meta.NodeTypes = make([]NodeTypeInfo, len(s.Meta.NodeTypes))
		for i, info := range s.Meta.NodeTypes {
			copied := info
			if info.Opacity != nil {
				v := *info.Opacity
				copied.Opacity = &v
			}
			clone.Meta.NodeTypes[i] = copied
		}
	}
	if s.Meta.RelationshipTypes != nil {
		clone.Meta.RelationshipTypes = make([]RelationshipTypeInfo, len(s.Meta.RelationshipTypes))
		for i, info := range s.Meta.RelationshipTypes {
			copied := info
			if info.LinkDistance != nil {
				v := *info.LinkDistance
				copied.LinkDistance = &v
			}
			if info.LinkStrength != nil {
				v := *info.LinkStrength
				copied.LinkStrength = &v
			}
			clone.Meta.RelationshipTypes[i] = copied
		}
	}

	return clone
}
