package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Scene palette. The dark surface matches the console's everforest theme so
// exported captures sit naturally next to terminal output.
const (
	backgroundColor = "#1e2326"
	foregroundColor = "#d3c6aa"
	mutedTextColor  = "#859289"
	centerRingColor = "#d3c6aa"
	fallbackColor   = "rgba(149, 165, 166, 0.3)"
)

// Opacity tiers for the interaction model. Baseline is the resting state;
// dimming never hides, hiding removes the element from the scene entirely.
const (
	nodeOpacityFull = 1.0
	nodeOpacityDim  = 0.15

	edgeOpacityBase    = 0.3
	edgeOpacityIntense = 0.9
	edgeOpacityDim     = 0.08

	edgeLabelOpacityBase    = 0.35
	edgeLabelOpacityIntense = 0.95
)

const (
	labelFontSize    = 11.0
	legendFontSize   = 12.0
	titleFontSize    = 16.0
	edgeLabelSize    = 9.0
	tooltipFontSize  = 11.0
	arrowGap         = 4.0
	tooltipOffsetX   = 14.0
	tooltipOffsetY   = 10.0
	emptyStateText   = "No graph data to display"
	openInGraphLabel = "Open in Graph"
)

// parseColor decodes #rgb, #rrggbb, and rgba(r, g, b, a) strings. Unparseable
// values fall back to the muted untyped grey.
func parseColor(s string) color.NRGBA {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) == 6 {
			if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
				return color.NRGBA{
					R: uint8(v >> 16),
					G: uint8(v >> 8),
					B: uint8(v),
					A: 255,
				}
			}
		}
		return parseColor(fallbackColor)
	}

	if strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")") {
		parts := strings.Split(s[5:len(s)-1], ",")
		if len(parts) == 4 {
			r, errR := strconv.Atoi(strings.TrimSpace(parts[0]))
			g, errG := strconv.Atoi(strings.TrimSpace(parts[1]))
			b, errB := strconv.Atoi(strings.TrimSpace(parts[2]))
			a, errA := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
			if errR == nil && errG == nil && errB == nil && errA == nil {
				return color.NRGBA{
					R: uint8(r),
					G: uint8(g),
					B: uint8(b),
					A: uint8(math.Round(255 * clamp01(a))),
				}
			}
		}
	}

	// Grey that is visibly wrong rather than invisible
	return color.NRGBA{R: 149, G: 165, B: 166, A: 76}
}

// blendOver composites src at the given extra opacity over an opaque base.
// PNG export draws flat layers, so translucency resolves against whatever
// is already painted.
func blendOver(base color.NRGBA, src color.NRGBA, opacity float64) color.NRGBA {
	a := clamp01(opacity) * float64(src.A) / 255
	return color.NRGBA{
		R: uint8(math.Round(float64(src.R)*a + float64(base.R)*(1-a))),
		G: uint8(math.Round(float64(src.G)*a + float64(base.G)*(1-a))),
		B: uint8(math.Round(float64(src.B)*a + float64(base.B)*(1-a))),
		A: 255,
	}
}

// lerpColor interpolates between two colors, used to approximate SVG edge
// gradients when rasterizing.
func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	t = clamp01(t)
	return color.NRGBA{
		R: uint8(math.Round(float64(a.R) + (float64(b.R)-float64(a.R))*t)),
		G: uint8(math.Round(float64(a.G) + (float64(b.G)-float64(a.G))*t)),
		B: uint8(math.Round(float64(a.B) + (float64(b.B)-float64(a.B))*t)),
		A: uint8(math.Round(float64(a.A) + (float64(b.A)-float64(a.A))*t)),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// sanitizeKey turns a type name into an identifier safe for SVG ids and CSS
// classes: lowercase, alphanumerics and dashes only.
func sanitizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "untyped"
	}
	return b.String()
}

// edgeStrokeWidth maps accumulated link weight to a stroke width, widening
// repeated relationships without letting heavy edges dominate.
func edgeStrokeWidth(weight float64) float64 {
	if weight < 1 {
		weight = 1
	}
	return 1 + math.Min(weight, 4)*0.5
}

// formatCoord trims coordinates for SVG output.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// formatOpacity trims opacity values for SVG output.
func formatOpacity(v float64) string {
	return strconv.FormatFloat(clamp01(v), 'f', 2, 64)
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
