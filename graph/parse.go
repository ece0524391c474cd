package graph

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	grapherr "github.com/teranos/QVIZ/graph/error"
	"github.com/teranos/QVIZ/internal/util"
	"github.com/teranos/QVIZ/logger"
	"github.com/teranos/QVIZ/version"
)

// ParseSpec decodes a JSON spec payload, then normalizes and validates it.
func ParseSpec(data []byte) (*Spec, error) {
	var raw Spec
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, grapherr.New(
			grapherr.CategorySpec,
			err,
			"Invalid graph spec - could not decode JSON",
		).WithSubcategory(grapherr.SubcategorySpecInvalidSyntax)
	}
	return finalizeSpec(&raw)
}

// ParseSpecYAML decodes a YAML spec payload, then normalizes and validates it.
func ParseSpecYAML(data []byte) (*Spec, error) {
	var raw Spec
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, grapherr.New(
			grapherr.CategorySpec,
			err,
			"Invalid graph spec - could not decode YAML",
		).WithSubcategory(grapherr.SubcategorySpecInvalidSyntax)
	}
	return finalizeSpec(&raw)
}

// DecodeSpec sniffs the payload format on the first non-space byte and
// dispatches to ParseSpec or ParseSpecYAML. Console pipelines emit either.
func DecodeSpec(data []byte) (*Spec, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return ParseSpec(data)
	}
	return ParseSpecYAML(data)
}

// finalizeSpec normalizes IDs, merges duplicate nodes, soft-drops malformed
// links, resolves the center decoration, and collects type metadata.
// Output ordering is deterministic (sorted IDs) so scenes and exports are
// stable across runs.
func finalizeSpec(raw *Spec) (*Spec, error) {
	// Specs produced for newer engines are rejected up front with a
	// descriptive error rather than failing mid-render.
	if ok, err := version.Satisfies(raw.Meta.MinEngine); err != nil {
		return nil, grapherr.New(
			grapherr.CategorySpec,
			err,
			"Invalid min_engine requirement in spec metadata",
		).WithSubcategory(grapherr.SubcategorySpecMinEngine)
	} else if !ok {
		return nil, grapherr.Newf(
			grapherr.CategorySpec,
			"This spec requires a newer engine version",
			"spec requires engine >= %s, running %s",
			raw.Meta.MinEngine, version.Version,
		).WithSubcategory(grapherr.SubcategorySpecMinEngine).
			WithContext("min_engine", raw.Meta.MinEngine)
	}

	spec := &Spec{
		Title:            raw.Title,
		Nodes:            []Node{},
		Links:            []Link{},
		EntityTypeColors: raw.EntityTypeColors,
		Depth:            raw.Depth,
		Meta:             raw.Meta,
	}

	// Track unique nodes by normalized ID. First occurrence wins name and
	// type; properties from later duplicates fill gaps only.
	nodeMap := make(map[string]*Node)
	duplicates := 0

	for i := range raw.Nodes {
		n := raw.Nodes[i]
		id := normalizeNodeID(n.ID)
		if id == "" {
			logger.GraphDebugw("Dropping node with empty id", "name", n.Name)
			continue
		}

		name := n.Name
		if name == "" {
			name = n.ID
		}
		nodeType := strings.TrimSpace(n.Type)
		if nodeType == "" {
			nodeType = defaultUntypedType
		}

		if existing, exists := nodeMap[id]; exists {
			duplicates++
			existing.IsCenter = existing.IsCenter || n.IsCenter
			for k, v := range n.Properties {
				if _, has := existing.Properties[k]; !has {
					if existing.Properties == nil {
						existing.Properties = make(map[string]interface{})
					}
					existing.Properties[k] = v
				}
			}
			continue
		}

		node := &Node{
			ID:         id,
			Name:       name,
			Type:       nodeType,
			Importance: util.ClampFloat64(n.Importance, 0, 1),
			IsCenter:   n.IsCenter,
		}
		if n.Properties != nil {
			node.Properties = make(map[string]interface{}, len(n.Properties))
			for k, v := range n.Properties {
				node.Properties[k] = v
			}
		}
		nodeMap[id] = node
	}

	// center_entity marks its node in addition to any is_center flags
	if raw.CenterEntity != "" {
		cid := normalizeNodeID(raw.CenterEntity)
		if node, exists := nodeMap[cid]; exists {
			node.IsCenter = true
		} else {
			logger.GraphDebugw("center_entity references unknown node", "center_entity", raw.CenterEntity)
		}
	}

	// Links referencing unknown nodes are soft-dropped, never fatal.
	// Duplicate relationships accumulate weight instead of duplicating edges.
	linkMap := make(map[string]*Link)
	dropped := 0

	for i := range raw.Links {
		l := raw.Links[i]
		source := normalizeNodeID(l.Source)
		target := normalizeNodeID(l.Target)

		if source == "" || target == "" || nodeMap[source] == nil || nodeMap[target] == nil {
			dropped++
			continue
		}

		linkType := strings.TrimSpace(l.Type)
		key := source + "\x00" + target + "\x00" + linkType
		if existing, exists := linkMap[key]; exists {
			existing.Weight += linkWeightIncrement
			continue
		}

		weight := l.Weight
		if weight <= 0 {
			weight = defaultLinkWeight
		}
		label := l.Label
		if label == "" {
			label = linkType
		}
		linkMap[key] = &Link{
			Source: source,
			Target: target,
			Type:   linkType,
			Label:  label,
			Weight: weight,
		}
	}

	// Convert maps to slices with deterministic ordering
	nodeIDs := make([]string, 0, len(nodeMap))
	for id := range nodeMap {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	for _, id := range nodeIDs {
		spec.Nodes = append(spec.Nodes, *nodeMap[id])
	}

	linkKeys := make([]string, 0, len(linkMap))
	for key := range linkMap {
		linkKeys = append(linkKeys, key)
	}
	sort.Strings(linkKeys)

	for _, key := range linkKeys {
		spec.Links = append(spec.Links, *linkMap[key])
	}

	// At most one node keeps the center decoration; the first in sorted-id
	// order wins when several are flagged.
	centerID := ""
	extraCenters := 0
	for i := range spec.Nodes {
		if !spec.Nodes[i].IsCenter {
			continue
		}
		if centerID == "" {
			centerID = spec.Nodes[i].ID
		} else {
			spec.Nodes[i].IsCenter = false
			extraCenters++
		}
	}
	spec.CenterEntity = centerID
	if extraCenters > 0 {
		logger.GraphDebugw("Multiple center nodes flagged, keeping first in sorted order",
			"center", centerID,
			"demoted", extraCenters,
		)
	}

	if duplicates > 0 {
		logger.GraphDebugw("Merged duplicate node ids", "duplicates", duplicates)
	}
	if dropped > 0 {
		logger.GraphWarnw("Dropped links referencing unknown nodes",
			"dropped", dropped,
			logger.FieldNodes, len(spec.Nodes),
			logger.FieldLinks, len(spec.Links),
		)
	}

	spec.Meta.GeneratedAt = time.Now()
	spec.Meta.Stats = Stats{
		TotalNodes:   len(spec.Nodes),
		TotalEdges:   len(spec.Links),
		DroppedLinks: dropped,
	}
	spec.Meta.NodeTypes = collectNodeTypeInfo(spec.Nodes, spec.EntityTypeColors, nil)
	spec.Meta.RelationshipTypes = collectRelationshipTypeInfo(spec.Links, nil)

	return spec, nil
}
