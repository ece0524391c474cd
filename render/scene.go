package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/teranos/QVIZ/graph"
	"github.com/teranos/QVIZ/layout"
)

// Variant is the closed set of render surfaces. Dispatch is always on this
// tag, never on sniffing strings or sizes.
type Variant int

const (
	// VariantInline is the compact feed preview: fixed height, no toolbar,
	// plain circles, an "Open in Graph" action.
	VariantInline Variant = iota
	// VariantSplit is the interactive side panel.
	VariantSplit
	// VariantFullscreen is the split surface promoted below the top chrome.
	VariantFullscreen
)

func (v Variant) String() string {
	switch v {
	case VariantInline:
		return "inline"
	case VariantSplit:
		return "split"
	case VariantFullscreen:
		return "fullscreen"
	default:
		return "unknown"
	}
}

// inlineLabelLimit hides inline preview labels on busy graphs.
const inlineLabelLimit = 20

// Size is the drawable extent of a surface in scene units.
type Size struct {
	Width  float64
	Height float64
}

// View carries a session's interaction state into a scene build. The zero
// value renders the resting scene at the default transform.
type View struct {
	HoverID     string
	FocusID     string          // Anchor of the active focus, "" when none
	Focus       map[string]bool // Closed 1-hop set computed at click time
	SearchQuery string
	HiddenTypes map[string]bool
	Zoom        float64 // 0 means default scale
	PanX        float64
	PanY        float64
}

// Transform is the pan/zoom applied to the scene's content group.
type Transform struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
}

// DefaultTransform is the fixed reset target for zoom-to-fit.
func DefaultTransform() Transform {
	return Transform{Scale: 1}
}

// SceneNode is one drawable node glyph.
type SceneNode struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Radius    float64 `json:"radius"`
	Fill      string  `json:"fill"`
	Opacity   float64 `json:"opacity"`
	Glow      bool    `json:"glow,omitempty"`
	IsCenter  bool    `json:"is_center,omitempty"`
	TypeKey   string  `json:"type_key"`
	ShowLabel bool    `json:"show_label"`
}

// SceneEdge is one drawable edge glyph. Endpoints are pre-shortened to the
// node rims so arrow markers stay visible.
type SceneEdge struct {
	ID           string  `json:"id"`
	SourceID     string  `json:"source_id"`
	TargetID     string  `json:"target_id"`
	X1           float64 `json:"x1"`
	Y1           float64 `json:"y1"`
	X2           float64 `json:"x2"`
	Y2           float64 `json:"y2"`
	SourceColor  string  `json:"source_color"`
	TargetColor  string  `json:"target_color"`
	GradientID   string  `json:"gradient_id"`
	MarkerID     string  `json:"marker_id"`
	Width        float64 `json:"width"`
	Opacity      float64 `json:"opacity"`
	Label        string  `json:"label,omitempty"`
	LabelX       float64 `json:"label_x,omitempty"`
	LabelY       float64 `json:"label_y,omitempty"`
	LabelOpacity float64 `json:"label_opacity,omitempty"`
}

// LegendEntry is one row of the type legend.
type LegendEntry struct {
	TypeKey string `json:"type_key"`
	Label   string `json:"label"`
	Color   string `json:"color"`
	Count   int    `json:"count"`
}

// Pill is one type-filter control in the toolbar model.
type Pill struct {
	TypeKey string `json:"type_key"`
	Label   string `json:"label"`
	Color   string `json:"color"`
	Active  bool   `json:"active"` // false = type currently hidden
}

// Toolbar is the control-strip model mirrored by full surfaces.
type Toolbar struct {
	SearchQuery string `json:"search_query"`
	Pills       []Pill `json:"pills,omitempty"`
}

// TooltipProperty is one resolved free-form property row.
type TooltipProperty struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Tooltip describes the hover card for full surfaces.
type Tooltip struct {
	NodeID     string            `json:"node_id"`
	Name       string            `json:"name"`
	TypeLabel  string            `json:"type_label"`
	Properties []TooltipProperty `json:"properties,omitempty"`
	X          float64           `json:"x"`
	Y          float64           `json:"y"`
}

// SceneAction is a clickable intent the console echoes back as a message.
type SceneAction struct {
	Label  string `json:"label"`
	Intent string `json:"intent"`
}

// Scene is the complete drawable description of one surface at one instant.
// Building a scene is pure: same spec, frame, and view always produce the
// same scene.
type Scene struct {
	Variant      Variant       `json:"variant"`
	Width        float64       `json:"width"`
	Height       float64       `json:"height"`
	Background   string        `json:"background"`
	Title        string        `json:"title,omitempty"`
	Nodes        []SceneNode   `json:"nodes"`
	Edges        []SceneEdge   `json:"edges"`
	Legend       []LegendEntry `json:"legend,omitempty"`
	Toolbar      *Toolbar      `json:"toolbar,omitempty"`
	Tooltip      *Tooltip      `json:"tooltip,omitempty"`
	Action       *SceneAction  `json:"action,omitempty"`
	StatBadge    string        `json:"stat_badge,omitempty"`
	EmptyMessage string        `json:"empty_message,omitempty"`
	Transform    Transform     `json:"transform"`
	Animate      bool          `json:"animate"`
}

// tooltipPropertyKeys is the ordered candidate list for the hover card;
// each key appears only when the node carries it.
var tooltipPropertyKeys = []string{"description", "data_type", "business_meaning"}

// BuildScene assembles the drawable scene for one surface. Hidden types are
// removed outright (and their touching edges with them); search and focus
// only dim. Hover raises glow and intensifies touching edges.
func BuildScene(spec *graph.Spec, frame layout.Frame, view View, variant Variant, size Size) *Scene {
	scene := &Scene{
		Variant:    variant,
		Width:      size.Width,
		Height:     size.Height,
		Background: backgroundColor,
		Title:      spec.Title,
		Transform:  DefaultTransform(),
		Animate:    true,
	}
	if view.Zoom > 0 {
		scene.Transform = Transform{Scale: view.Zoom, TranslateX: view.PanX, TranslateY: view.PanY}
	}

	if spec.IsEmpty() {
		scene.EmptyMessage = emptyStateText
		scene.Animate = false
		return scene
	}

	scene.StatBadge = spec.Summary()

	typeColors := make(map[string]string, len(spec.Meta.NodeTypes))
	typeLabels := make(map[string]string, len(spec.Meta.NodeTypes))
	typeOpacity := make(map[string]float64, len(spec.Meta.NodeTypes))
	for _, info := range spec.Meta.NodeTypes {
		typeColors[info.Type] = info.Color
		typeLabels[info.Type] = info.Label
		typeOpacity[info.Type] = nodeOpacityFull
		if info.Opacity != nil {
			typeOpacity[info.Type] = clamp01(*info.Opacity)
		}
	}

	focusActive := view.FocusID != "" && len(view.Focus) > 0
	searchActive := strings.TrimSpace(view.SearchQuery) != ""
	var matches map[string]bool
	if searchActive {
		matches = spec.SearchMatches(view.SearchQuery)
	}

	showLabels := variant != VariantInline || len(spec.Nodes) <= inlineLabelLimit

	positions := frame.ByID()
	cx, cy := size.Width/2, size.Height/2

	visible := make(map[string]bool, len(spec.Nodes))
	for i := range spec.Nodes {
		node := &spec.Nodes[i]
		if view.HiddenTypes[node.Type] {
			continue
		}
		visible[node.ID] = true

		pos, ok := positions[node.ID]
		if !ok {
			pos = layout.NodePosition{ID: node.ID, X: cx, Y: cy}
		}

		base := typeOpacity[node.Type]
		if base == 0 {
			base = nodeOpacityFull
		}
		opacity := base
		if focusActive {
			if !view.Focus[node.ID] {
				opacity = nodeOpacityDim
			}
		} else if searchActive && !matches[node.ID] {
			opacity = nodeOpacityDim
		}

		fill := typeColors[node.Type]
		if fill == "" {
			fill = fallbackColor
		}

		scene.Nodes = append(scene.Nodes, SceneNode{
			ID:        node.ID,
			Label:     node.Name,
			X:         pos.X,
			Y:         pos.Y,
			Radius:    layout.PaintRadius(node.Importance),
			Fill:      fill,
			Opacity:   opacity,
			Glow:      view.HoverID == node.ID,
			IsCenter:  node.IsCenter,
			TypeKey:   sanitizeKey(node.Type),
			ShowLabel: showLabels,
		})
	}

	radiusByID := make(map[string]float64, len(scene.Nodes))
	for i := range scene.Nodes {
		radiusByID[scene.Nodes[i].ID] = scene.Nodes[i].Radius
	}

	for i := range spec.Links {
		link := &spec.Links[i]
		if !visible[link.Source] || !visible[link.Target] {
			continue
		}

		src := positions[link.Source]
		dst := positions[link.Target]
		x1, y1, x2, y2 := shortenSegment(
			src.X, src.Y, dst.X, dst.Y,
			radiusByID[link.Source],
			radiusByID[link.Target]+arrowGap,
		)

		srcNode := spec.NodeByID(link.Source)
		dstNode := spec.NodeByID(link.Target)
		srcColor := typeColors[srcNode.Type]
		if srcColor == "" {
			srcColor = fallbackColor
		}
		dstColor := typeColors[dstNode.Type]
		if dstColor == "" {
			dstColor = fallbackColor
		}

		opacity := edgeOpacityBase
		labelOpacity := edgeLabelOpacityBase
		if focusActive {
			if view.Focus[link.Source] && view.Focus[link.Target] {
				opacity = edgeOpacityIntense
				labelOpacity = edgeLabelOpacityIntense
			} else {
				opacity = edgeOpacityDim
			}
		}
		if view.HoverID != "" && (link.Source == view.HoverID || link.Target == view.HoverID) {
			opacity = edgeOpacityIntense
			labelOpacity = edgeLabelOpacityIntense
		}

		scene.Edges = append(scene.Edges, SceneEdge{
			ID:           fmt.Sprintf("e%d", i),
			SourceID:     link.Source,
			TargetID:     link.Target,
			X1:           x1,
			Y1:           y1,
			X2:           x2,
			Y2:           y2,
			SourceColor:  srcColor,
			TargetColor:  dstColor,
			GradientID:   fmt.Sprintf("edge-grad-%d", i),
			MarkerID:     "arrow-" + sanitizeKey(dstNode.Type),
			Width:        edgeStrokeWidth(link.Weight),
			Opacity:      opacity,
			Label:        link.Label,
			LabelX:       (x1 + x2) / 2,
			LabelY:       (y1+y2)/2 - 4,
			LabelOpacity: labelOpacity,
		})
	}

	if variant != VariantInline {
		if len(spec.Meta.NodeTypes) > 1 {
			for _, info := range spec.Meta.NodeTypes {
				scene.Legend = append(scene.Legend, LegendEntry{
					TypeKey: sanitizeKey(info.Type),
					Label:   info.Label,
					Color:   info.Color,
					Count:   info.Count,
				})
			}
		}

		toolbar := &Toolbar{SearchQuery: view.SearchQuery}
		if len(spec.Meta.NodeTypes) > 1 {
			for _, info := range spec.Meta.NodeTypes {
				toolbar.Pills = append(toolbar.Pills, Pill{
					TypeKey: sanitizeKey(info.Type),
					Label:   info.Label,
					Color:   info.Color,
					Active:  !view.HiddenTypes[info.Type],
				})
			}
		}
		scene.Toolbar = toolbar

		if view.HoverID != "" && visible[view.HoverID] {
			scene.Tooltip = buildTooltip(spec, view.HoverID, positions, typeLabels)
		}
	} else {
		scene.Action = &SceneAction{Label: openInGraphLabel, Intent: "open_in_graph"}
	}

	return scene
}

// buildTooltip resolves the hover card: name, type, and up to three present
// free-form properties in candidate order.
func buildTooltip(spec *graph.Spec, id string, positions map[string]layout.NodePosition, typeLabels map[string]string) *Tooltip {
	node := spec.NodeByID(id)
	if node == nil {
		return nil
	}

	typeLabel := typeLabels[node.Type]
	if typeLabel == "" {
		typeLabel = node.Type
	}

	pos := positions[id]
	tip := &Tooltip{
		NodeID:    id,
		Name:      node.Name,
		TypeLabel: typeLabel,
		X:         pos.X + tooltipOffsetX,
		Y:         pos.Y + tooltipOffsetY,
	}

	for _, key := range tooltipPropertyKeys {
		if len(tip.Properties) == 3 {
			break
		}
		if v, ok := node.Properties[key]; ok {
			tip.Properties = append(tip.Properties, TooltipProperty{
				Key:   key,
				Value: fmt.Sprintf("%v", v),
			})
		}
	}

	return tip
}

// shortenSegment pulls both endpoints inward along the segment so edges meet
// node rims instead of centers. Degenerate segments collapse to the midpoint.
func shortenSegment(x1, y1, x2, y2, startInset, endInset float64) (float64, float64, float64, float64) {
	dx := x2 - x1
	dy := y2 - y1
	d := math.Hypot(dx, dy)
	if d <= startInset+endInset {
		mx, my := (x1+x2)/2, (y1+y2)/2
		return mx, my, mx, my
	}
	nx, ny := dx/d, dy/d
	return x1 + nx*startInset, y1 + ny*startInset, x2 - nx*endInset, y2 - ny*endInset
}
