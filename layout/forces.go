package layout

import (
	"math"
)

// minSeparation2 floors squared distances so coincident bodies never divide
// by zero; the offset acts as a deterministic jiggle.
const minSeparation2 = 0.01

// applyGravity pulls every body weakly toward the viewport center.
func applyGravity(bodies []*body, cx, cy, gravity, alpha float64) {
	k := gravity * alpha
	for _, b := range bodies {
		b.vx += (cx - b.x) * k
		b.vy += (cy - b.y) * k
	}
}

// applyCharge applies pairwise k/d² repulsion. Charge is negative, so each
// body of a pair is pushed away from the other.
func applyCharge(bodies []*body, charge, alpha float64) {
	for i := 0; i < len(bodies); i++ {
		a := bodies[i]
		for j := i + 1; j < len(bodies); j++ {
			b := bodies[j]
			dx := b.x - a.x
			dy := b.y - a.y
			d2 := dx*dx + dy*dy
			if d2 < minSeparation2 {
				d2 = minSeparation2
			}
			w := charge * alpha / d2
			a.vx += dx * w
			a.vy += dy * w
			b.vx -= dx * w
			b.vy -= dy * w
		}
	}
}

// applySprings relaxes each link toward its rest length, splitting the
// correction between both endpoints.
func applySprings(springs []spring, alpha float64) {
	for i := range springs {
		s := &springs[i]
		dx := s.b.x + s.b.vx - s.a.x - s.a.vx
		dy := s.b.y + s.b.vy - s.a.y - s.a.vy
		d := math.Sqrt(dx*dx + dy*dy)
		if d < math.Sqrt(minSeparation2) {
			d = math.Sqrt(minSeparation2)
		}
		l := (d - s.distance) / d * alpha * s.strength
		dx *= l
		dy *= l
		s.b.vx -= dx / 2
		s.b.vy -= dy / 2
		s.a.vx += dx / 2
		s.a.vy += dy / 2
	}
}

// applyCollisions resolves pairwise overlap positionally: overlapping bodies
// are pushed apart along their separation axis until their collision circles
// are disjoint. Runs a fixed number of relaxation passes per tick.
func applyCollisions(bodies []*body, iterations int) {
	for pass := 0; pass < iterations; pass++ {
		for i := 0; i < len(bodies); i++ {
			a := bodies[i]
			for j := i + 1; j < len(bodies); j++ {
				b := bodies[j]
				dx := b.x - a.x
				dy := b.y - a.y
				d2 := dx*dx + dy*dy
				minDist := a.collision + b.collision
				if d2 >= minDist*minDist {
					continue
				}
				d := math.Sqrt(d2)
				if d < math.Sqrt(minSeparation2) {
					// Coincident centers: separate along a fixed axis
					d = math.Sqrt(minSeparation2)
					dx = d
					dy = 0
				}
				overlap := (minDist - d) / d / 2
				ox := dx * overlap
				oy := dy * overlap
				if !a.pinned {
					a.x -= ox
					a.y -= oy
				}
				if !b.pinned {
					b.x += ox
					b.y += oy
				}
			}
		}
	}
}
