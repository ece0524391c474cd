package render

import (
	"fmt"
	"html"
	"io"
	"strings"
)

// WriteSVG serializes a scene as a standalone SVG document. The output is a
// faithful snapshot of the scene, including any hover tooltip and the active
// transform, so exports match what the surface showed.
func WriteSVG(w io.Writer, scene *Scene) error {
	var b strings.Builder

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		formatCoord(scene.Width), formatCoord(scene.Height),
		formatCoord(scene.Width), formatCoord(scene.Height)))

	writeDefs(&b, scene)
	writeStyle(&b, scene)

	b.WriteString(fmt.Sprintf(`  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", scene.Background))

	if scene.EmptyMessage != "" {
		b.WriteString(fmt.Sprintf(`  <text x="%s" y="%s" class="empty" text-anchor="middle">%s</text>`+"\n",
			formatCoord(scene.Width/2), formatCoord(scene.Height/2), html.EscapeString(scene.EmptyMessage)))
		b.WriteString("</svg>\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	t := scene.Transform
	b.WriteString(fmt.Sprintf(`  <g class="scene-content" transform="translate(%s,%s) scale(%s)">`+"\n",
		formatCoord(t.TranslateX), formatCoord(t.TranslateY), formatFloat(t.Scale)))

	writeEdges(&b, scene)
	writeNodes(&b, scene)

	b.WriteString("  </g>\n")

	writeChrome(&b, scene)

	b.WriteString("</svg>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// writeDefs emits one gradient per edge (in user space so stops track the
// endpoints), one arrow marker per target type, and one glow filter per type.
func writeDefs(b *strings.Builder, scene *Scene) {
	b.WriteString("  <defs>\n")

	for i := range scene.Edges {
		e := &scene.Edges[i]
		b.WriteString(fmt.Sprintf(`    <linearGradient id="%s" gradientUnits="userSpaceOnUse" x1="%s" y1="%s" x2="%s" y2="%s">`+"\n",
			e.GradientID, formatCoord(e.X1), formatCoord(e.Y1), formatCoord(e.X2), formatCoord(e.Y2)))
		b.WriteString(fmt.Sprintf(`      <stop offset="0%%" stop-color="%s"/>`+"\n", e.SourceColor))
		b.WriteString(fmt.Sprintf(`      <stop offset="100%%" stop-color="%s"/>`+"\n", e.TargetColor))
		b.WriteString("    </linearGradient>\n")
	}

	for _, m := range collectMarkers(scene) {
		b.WriteString(fmt.Sprintf(`    <marker id="%s" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="7" markerHeight="7" orient="auto-start-reverse">`+"\n", m.id))
		b.WriteString(fmt.Sprintf(`      <path d="M 0 0 L 10 5 L 0 10 z" fill="%s"/>`+"\n", m.color))
		b.WriteString("    </marker>\n")
	}

	for _, g := range collectGlows(scene) {
		b.WriteString(fmt.Sprintf(`    <filter id="glow-%s" x="-75%%" y="-75%%" width="250%%" height="250%%">`+"\n", g.id))
		b.WriteString(fmt.Sprintf(`      <feDropShadow dx="0" dy="0" stdDeviation="6" flood-color="%s" flood-opacity="0.85"/>`+"\n", g.color))
		b.WriteString("    </filter>\n")
	}

	b.WriteString("  </defs>\n")
}

func writeStyle(b *strings.Builder, scene *Scene) {
	b.WriteString("  <style>\n")
	b.WriteString("    text { font-family: 'Inter', 'Segoe UI', sans-serif; }\n")
	b.WriteString(fmt.Sprintf("    .title { font-size: %gpx; font-weight: 600; fill: %s; }\n", titleFontSize, foregroundColor))
	b.WriteString(fmt.Sprintf("    .node-label { font-size: %gpx; fill: %s; pointer-events: none; }\n", labelFontSize, foregroundColor))
	b.WriteString(fmt.Sprintf("    .edge-label { font-size: %gpx; fill: %s; pointer-events: none; }\n", edgeLabelSize, mutedTextColor))
	b.WriteString(fmt.Sprintf("    .legend-label { font-size: %gpx; fill: %s; }\n", legendFontSize, foregroundColor))
	b.WriteString(fmt.Sprintf("    .badge { font-size: %gpx; fill: %s; }\n", legendFontSize, mutedTextColor))
	b.WriteString(fmt.Sprintf("    .empty { font-size: %gpx; fill: %s; }\n", titleFontSize, mutedTextColor))
	b.WriteString(fmt.Sprintf("    .tooltip-name { font-size: %gpx; font-weight: 600; fill: %s; }\n", tooltipFontSize+1, foregroundColor))
	b.WriteString(fmt.Sprintf("    .tooltip-row { font-size: %gpx; fill: %s; }\n", tooltipFontSize, mutedTextColor))
	if scene.Animate {
		b.WriteString("    @keyframes scene-enter { from { opacity: 0; } to { opacity: 1; } }\n")
		b.WriteString("    .scene-content { animation: scene-enter 300ms ease-out; }\n")
	}
	b.WriteString("  </style>\n")
}

func writeEdges(b *strings.Builder, scene *Scene) {
	for i := range scene.Edges {
		e := &scene.Edges[i]
		b.WriteString(fmt.Sprintf(`    <line x1="%s" y1="%s" x2="%s" y2="%s" stroke="url(#%s)" stroke-width="%s" opacity="%s" marker-end="url(#%s)"/>`+"\n",
			formatCoord(e.X1), formatCoord(e.Y1), formatCoord(e.X2), formatCoord(e.Y2),
			e.GradientID, formatFloat(e.Width), formatOpacity(e.Opacity), e.MarkerID))
		if e.Label != "" {
			b.WriteString(fmt.Sprintf(`    <text x="%s" y="%s" class="edge-label" text-anchor="middle" opacity="%s">%s</text>`+"\n",
				formatCoord(e.LabelX), formatCoord(e.LabelY), formatOpacity(e.LabelOpacity), html.EscapeString(e.Label)))
		}
	}
}

func writeNodes(b *strings.Builder, scene *Scene) {
	for i := range scene.Nodes {
		n := &scene.Nodes[i]
		filter := ""
		if n.Glow {
			filter = fmt.Sprintf(` filter="url(#glow-%s)"`, n.TypeKey)
		}
		b.WriteString(fmt.Sprintf(`    <circle cx="%s" cy="%s" r="%s" fill="%s" opacity="%s"%s/>`+"\n",
			formatCoord(n.X), formatCoord(n.Y), formatCoord(n.Radius), n.Fill, formatOpacity(n.Opacity), filter))
		if n.IsCenter {
			b.WriteString(fmt.Sprintf(`    <circle cx="%s" cy="%s" r="%s" fill="none" stroke="%s" stroke-width="1.5" opacity="%s"/>`+"\n",
				formatCoord(n.X), formatCoord(n.Y), formatCoord(n.Radius+3), centerRingColor, formatOpacity(n.Opacity)))
		}
		if n.ShowLabel {
			b.WriteString(fmt.Sprintf(`    <text x="%s" y="%s" class="node-label" text-anchor="middle" opacity="%s">%s</text>`+"\n",
				formatCoord(n.X), formatCoord(n.Y+n.Radius+labelFontSize+2), formatOpacity(n.Opacity), html.EscapeString(n.Label)))
		}
	}
}

// writeChrome draws the fixed overlays that do not pan or zoom with the
// content: title, stat badge, legend, and the hover tooltip.
func writeChrome(b *strings.Builder, scene *Scene) {
	if scene.Title != "" {
		b.WriteString(fmt.Sprintf(`  <text x="16" y="28" class="title">%s</text>`+"\n", html.EscapeString(scene.Title)))
	}
	if scene.StatBadge != "" {
		b.WriteString(fmt.Sprintf(`  <text x="16" y="%s" class="badge">%s</text>`+"\n",
			formatCoord(scene.Height-12), html.EscapeString(scene.StatBadge)))
	}

	if len(scene.Legend) > 0 {
		lx := scene.Width - 150
		ly := 24.0
		for _, entry := range scene.Legend {
			b.WriteString(fmt.Sprintf(`  <circle cx="%s" cy="%s" r="5" fill="%s"/>`+"\n",
				formatCoord(lx), formatCoord(ly), entry.Color))
			b.WriteString(fmt.Sprintf(`  <text x="%s" y="%s" class="legend-label">%s (%d)</text>`+"\n",
				formatCoord(lx+12), formatCoord(ly+4), html.EscapeString(entry.Label), entry.Count))
			ly += 20
		}
	}

	if tip := scene.Tooltip; tip != nil {
		rows := len(tip.Properties) + 2
		height := float64(rows)*16 + 12
		b.WriteString(fmt.Sprintf(`  <g class="tooltip" transform="translate(%s,%s)">`+"\n",
			formatCoord(tip.X), formatCoord(tip.Y)))
		b.WriteString(fmt.Sprintf(`    <rect width="180" height="%s" rx="4" fill="#2b3339" stroke="#4f5b58" opacity="0.95"/>`+"\n",
			formatCoord(height)))
		b.WriteString(fmt.Sprintf(`    <text x="10" y="18" class="tooltip-name">%s</text>`+"\n", html.EscapeString(tip.Name)))
		b.WriteString(fmt.Sprintf(`    <text x="10" y="34" class="tooltip-row">%s</text>`+"\n", html.EscapeString(tip.TypeLabel)))
		y := 50
		for _, prop := range tip.Properties {
			b.WriteString(fmt.Sprintf(`    <text x="10" y="%d" class="tooltip-row">%s: %s</text>`+"\n",
				y, html.EscapeString(prop.Key), html.EscapeString(prop.Value)))
			y += 16
		}
		b.WriteString("  </g>\n")
	}
}

type markerDef struct {
	id    string
	color string
}

// collectMarkers dedupes arrow markers by target type, first edge wins.
func collectMarkers(scene *Scene) []markerDef {
	seen := make(map[string]bool)
	var defs []markerDef
	for i := range scene.Edges {
		e := &scene.Edges[i]
		if seen[e.MarkerID] {
			continue
		}
		seen[e.MarkerID] = true
		defs = append(defs, markerDef{id: e.MarkerID, color: e.TargetColor})
	}
	return defs
}

// collectGlows dedupes glow filters by node type so every hoverable node has
// a filter available regardless of which node is currently hovered.
func collectGlows(scene *Scene) []markerDef {
	seen := make(map[string]bool)
	var defs []markerDef
	for i := range scene.Nodes {
		n := &scene.Nodes[i]
		if seen[n.TypeKey] {
			continue
		}
		seen[n.TypeKey] = true
		defs = append(defs, markerDef{id: n.TypeKey, color: n.Fill})
	}
	return defs
}
