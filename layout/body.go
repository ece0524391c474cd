package layout

import (
	"math"
	"math/rand"

	"github.com/teranos/QVIZ/graph"
)

const (
	basePaintRadius     = 8.0
	importancePaintSpan = 6.0
	collisionMargin     = 4.0
	minSeedRadius       = 50.0
)

// PaintRadius returns the drawn radius for a node: a fixed base plus an
// importance-scaled term. Importance is clamped to [0,1] at parse time.
func PaintRadius(importance float64) float64 {
	return basePaintRadius + importancePaintSpan*importance
}

// CollisionRadius returns the effective collision radius for a node. It is
// the profile floor or the paint radius plus a margin, whichever is larger,
// so a node's collision circle always exceeds its painted circle.
func CollisionRadius(p Profile, importance float64) float64 {
	return math.Max(p.CollisionRadius, PaintRadius(importance)+collisionMargin)
}

// NodePosition is one node's coordinates within a frame.
type NodePosition struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Frame is a position snapshot delivered to renderers and OnTick
// subscribers. Positions follow the spec's node order.
type Frame struct {
	Tick      int            `json:"tick"`
	Alpha     float64        `json:"alpha"`
	Positions []NodePosition `json:"positions"`
}

// ByID returns a lookup map over the frame's positions.
func (f *Frame) ByID() map[string]NodePosition {
	m := make(map[string]NodePosition, len(f.Positions))
	for _, p := range f.Positions {
		m[p.ID] = p
	}
	return m
}

// body is one node-particle in the simulation.
type body struct {
	id        string
	x, y      float64
	vx, vy    float64
	collision float64
	pinned    bool
	pinX      float64
	pinY      float64
}

// spring is one link rendered as a distance constraint between two bodies.
type spring struct {
	a, b     *body
	distance float64
	strength float64
}

// newBodies seeds node-particles on a circle around the viewport center
// using the provided RNG so placement is reproducible per seed. A center
// node sits at the exact center.
func newBodies(spec *graph.Spec, p Profile, width, height float64, rng *rand.Rand) []*body {
	cx, cy := width/2, height/2
	radius := math.Min(width, height) / 4
	if radius < minSeedRadius {
		radius = minSeedRadius
	}

	bodies := make([]*body, 0, len(spec.Nodes))
	n := len(spec.Nodes)
	for i := range spec.Nodes {
		node := &spec.Nodes[i]
		b := &body{
			id:        node.ID,
			collision: CollisionRadius(p, node.Importance),
		}
		if node.IsCenter {
			b.x, b.y = cx, cy
		} else {
			angle := 2*math.Pi*float64(i)/float64(n) + (rng.Float64()-0.5)*0.2
			r := radius * (0.8 + 0.4*rng.Float64())
			b.x = cx + r*math.Cos(angle)
			b.y = cy + r*math.Sin(angle)
		}
		bodies = append(bodies, b)
	}
	return bodies
}

// newSprings builds distance constraints from the spec's links, honoring
// per-relationship-type distance and strength overrides from the metadata.
func newSprings(spec *graph.Spec, p Profile, byID map[string]*body) []spring {
	overrides := make(map[string]graph.RelationshipTypeInfo, len(spec.Meta.RelationshipTypes))
	for _, info := range spec.Meta.RelationshipTypes {
		overrides[info.Type] = info
	}

	springs := make([]spring, 0, len(spec.Links))
	for i := range spec.Links {
		link := &spec.Links[i]
		a, b := byID[link.Source], byID[link.Target]
		if a == nil || b == nil {
			continue
		}

		s := spring{a: a, b: b, distance: p.LinkDistance, strength: p.LinkStrength}
		if info, ok := overrides[link.Type]; ok {
			if info.LinkDistance != nil {
				s.distance = *info.LinkDistance
			}
			if info.LinkStrength != nil {
				s.strength = *info.LinkStrength
			}
		}
		springs = append(springs, s)
	}
	return springs
}
