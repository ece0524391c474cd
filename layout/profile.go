package layout

import (
	"time"
)

// Mode selects the physics profile for a render surface.
type Mode string

const (
	// ModeCompact tunes for small inline previews: tight clustering, fast
	// decay, and a hard wall-clock budget so many previews can coexist.
	ModeCompact Mode = "compact"

	// ModeFull tunes for the split panel and fullscreen: wider spacing,
	// stronger repulsion, runs to equilibrium.
	ModeFull Mode = "full"
)

// Profile bundles the force constants and scheduling knobs for a simulation.
type Profile struct {
	Mode            Mode
	LinkDistance    float64       // Spring rest length
	LinkStrength    float64       // Spring stiffness, 0..1
	Charge          float64       // Pairwise repulsion strength (negative repels)
	CollisionRadius float64       // Floor for per-node collision radius
	Gravity         float64       // Centering pull toward viewport center
	VelocityDecay   float64       // Per-tick velocity damping, 0..1
	AlphaMin        float64       // Equilibrium threshold; ticking halts below it
	AlphaDecay      float64       // Cooling rate per tick
	Budget          time.Duration // Wall-clock cap on the tick loop; 0 = none
	TickInterval    time.Duration
}

// CompactProfile returns the inline-preview profile. The budget force-halts
// the loop after ~3s regardless of convergence.
func CompactProfile() Profile {
	return Profile{
		Mode:            ModeCompact,
		LinkDistance:    60,
		LinkStrength:    0.3,
		Charge:          -150,
		CollisionRadius: 25,
		Gravity:         0.08,
		VelocityDecay:   0.4,
		AlphaMin:        0.001,
		AlphaDecay:      0.05,
		Budget:          3 * time.Second,
		TickInterval:    32 * time.Millisecond,
	}
}

// CompactProfileWithBudget returns the inline-preview profile with the
// configured wall-clock budget. Non-positive budgets keep the default.
func CompactProfileWithBudget(budget time.Duration) Profile {
	p := CompactProfile()
	if budget > 0 {
		p.Budget = budget
	}
	return p
}

// FullProfile returns the split-panel and fullscreen profile. No budget;
// the loop cools until alpha drops below AlphaMin.
func FullProfile() Profile {
	return Profile{
		Mode:            ModeFull,
		LinkDistance:    120,
		LinkStrength:    0.3,
		Charge:          -350,
		CollisionRadius: 45,
		Gravity:         0.05,
		VelocityDecay:   0.4,
		AlphaMin:        0.001,
		AlphaDecay:      0.0228,
		Budget:          0,
		TickInterval:    32 * time.Millisecond,
	}
}

// ProfileForMode maps a mode tag to its default profile.
func ProfileForMode(mode Mode) Profile {
	if mode == ModeCompact {
		return CompactProfile()
	}
	return FullProfile()
}
