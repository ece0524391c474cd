package layout

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/teranos/QVIZ/graph"
	"github.com/teranos/QVIZ/logger"
)

const (
	alphaInitial        = 1.0
	alphaReheat         = 0.3
	collisionIterations = 2
	// Extra overlap-resolution passes after cooling, so settled frames
	// have fully disjoint collision circles.
	settleSeparationPasses = 8
	// Stop waits this long for the tick goroutine before giving up.
	stopWait = 500 * time.Millisecond
)

// Simulation owns the physics state for one rendered graph. It is an
// explicit resource: the owning session starts it, receives frames through
// OnTick, and must stop it on every teardown path or the tick goroutine
// leaks, animating a detached scene.
type Simulation struct {
	mu      sync.Mutex
	profile Profile
	width   float64
	height  float64
	bodies  []*body
	byID    map[string]*body
	springs []spring
	alpha   float64
	tick    int
	onTick  func(Frame)

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	runDone   chan struct{}
	started   bool
	stopped   bool
	startedAt time.Time
}

// NewSimulation seeds bodies and springs for the spec. The seed fixes
// initial placement so runs are reproducible in tests; callers wanting
// organic variation pass a clock-derived seed.
func NewSimulation(spec *graph.Spec, profile Profile, width, height float64, seed int64) *Simulation {
	rng := rand.New(rand.NewSource(seed))

	s := &Simulation{
		profile: profile,
		width:   width,
		height:  height,
		alpha:   alphaInitial,
		runDone: make(chan struct{}),
	}

	s.bodies = newBodies(spec, profile, width, height, rng)
	s.byID = make(map[string]*body, len(s.bodies))
	for _, b := range s.bodies {
		s.byID[b.id] = b
	}
	s.springs = newSprings(spec, profile, s.byID)

	return s
}

// OnTick registers the frame callback. It runs on the tick goroutine after
// each step, so it must not call Stop. Set before Start.
func (s *Simulation) OnTick(fn func(Frame)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTick = fn
}

// Start launches the tick goroutine. A second call, or a call after Stop,
// is a no-op: surfaces hand off a running simulation instead of restarting.
func (s *Simulation) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.startedAt = time.Now()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()

	logger.SimDebugw("Simulation started",
		"mode", string(s.profile.Mode),
		logger.FieldNodes, len(s.bodies),
		logger.FieldLinks, len(s.springs),
	)
}

// Stop halts the tick goroutine with a bounded wait. Idempotent; safe to
// call on a simulation that never started.
func (s *Simulation) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.stopped = true
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	select {
	case <-s.runDone:
	case <-time.After(stopWait):
		logger.SimWarnw("Simulation tick loop did not stop in time")
	}
	logger.SimDebugw("Simulation stopped", logger.FieldTicks, s.Ticks())
}

// run drives ticks until cancellation or budget exhaustion. At equilibrium
// the loop idles instead of exiting: Pin and Reheat raise alpha back above
// AlphaMin, and the next ticker fire resumes stepping so a drag on a settled
// graph still produces frames.
func (s *Simulation) run() {
	defer s.wg.Done()
	defer close(s.runDone)

	ticker := time.NewTicker(s.profile.TickInterval)
	defer ticker.Stop()

	settled := false
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if s.profile.Budget > 0 && time.Since(s.startedAt) > s.profile.Budget {
				s.mu.Lock()
				applyCollisions(s.bodies, settleSeparationPasses)
				ticks := s.tick
				s.mu.Unlock()
				logger.SimDebugw("Simulation budget reached, halting",
					"mode", string(s.profile.Mode),
					logger.FieldTicks, ticks,
				)
				s.emitFrame()
				return
			}

			if settled {
				if s.Alpha() < s.profile.AlphaMin {
					continue
				}
				settled = false
				logger.SimDebugw("Simulation reheated, resuming",
					logger.FieldTicks, s.Ticks(),
				)
			}

			frame := s.Step()
			s.emitTick(frame)

			if frame.Alpha < s.profile.AlphaMin {
				settled = true
				s.mu.Lock()
				applyCollisions(s.bodies, settleSeparationPasses)
				s.mu.Unlock()
				logger.SimDebugw("Simulation settled",
					logger.FieldTicks, frame.Tick,
					"alpha", frame.Alpha,
				)
				s.emitFrame()
			}
		}
	}
}

// emitTick delivers a frame to the OnTick subscriber.
func (s *Simulation) emitTick(frame Frame) {
	s.mu.Lock()
	fn := s.onTick
	s.mu.Unlock()
	if fn != nil {
		fn(frame)
	}
}

// emitFrame delivers the current snapshot, used for the final frame after
// halt so subscribers see the fully separated positions.
func (s *Simulation) emitFrame() {
	s.emitTick(s.Snapshot())
}

// Step advances the simulation one tick synchronously and returns the
// resulting frame.
func (s *Simulation) Step() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step()
	return s.snapshotLocked()
}

// step applies one integration tick. Caller holds the lock.
func (s *Simulation) step() {
	s.alpha += (0 - s.alpha) * s.profile.AlphaDecay

	cx, cy := s.width/2, s.height/2
	applyGravity(s.bodies, cx, cy, s.profile.Gravity, s.alpha)
	applyCharge(s.bodies, s.profile.Charge, s.alpha)
	applySprings(s.springs, s.alpha)

	damping := 1 - s.profile.VelocityDecay
	for _, b := range s.bodies {
		if b.pinned {
			b.x, b.y = b.pinX, b.pinY
			b.vx, b.vy = 0, 0
			continue
		}
		b.vx *= damping
		b.vy *= damping
		b.x += b.vx
		b.y += b.vy
	}

	applyCollisions(s.bodies, collisionIterations)

	// Collision passes move positions directly; re-assert pins
	for _, b := range s.bodies {
		if b.pinned {
			b.x, b.y = b.pinX, b.pinY
		}
	}

	s.tick++
}

// Settle runs synchronously until equilibrium or maxSteps, then resolves
// residual overlap. One-shot rendering and export use this instead of the
// tick goroutine.
func (s *Simulation) Settle(maxSteps int) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < maxSteps && s.alpha >= s.profile.AlphaMin; i++ {
		s.step()
	}
	applyCollisions(s.bodies, settleSeparationPasses)
	for _, b := range s.bodies {
		if b.pinned {
			b.x, b.y = b.pinX, b.pinY
		}
	}

	return s.snapshotLocked()
}

// Snapshot returns the current frame without advancing the simulation.
func (s *Simulation) Snapshot() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Simulation) snapshotLocked() Frame {
	frame := Frame{
		Tick:      s.tick,
		Alpha:     s.alpha,
		Positions: make([]NodePosition, len(s.bodies)),
	}
	for i, b := range s.bodies {
		frame.Positions[i] = NodePosition{ID: b.id, X: b.x, Y: b.y}
	}
	return frame
}

// Pin fixes a node at the given position and reheats so neighbors react.
// Repeated calls move the pin; dragging is a stream of Pin calls.
func (s *Simulation) Pin(id string, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[id]
	if !ok {
		return
	}
	b.pinned = true
	b.pinX, b.pinY = x, y
	b.x, b.y = x, y
	b.vx, b.vy = 0, 0
	if s.alpha < alphaReheat {
		s.alpha = alphaReheat
	}
}

// Release clears a node's pin; the simulation cools naturally afterward.
func (s *Simulation) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[id]
	if !ok {
		return
	}
	b.pinned = false
}

// Pinned reports whether the node is currently pinned.
func (s *Simulation) Pinned(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	return ok && b.pinned
}

// Reheat bumps alpha so a cooled simulation resumes visible motion.
func (s *Simulation) Reheat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.alpha < alphaReheat {
		s.alpha = alphaReheat
	}
}

// Alpha returns the current cooling value.
func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// Ticks returns the number of integration steps taken so far.
func (s *Simulation) Ticks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Stats returns simulation statistics for status surfaces.
func (s *Simulation) Stats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]interface{}{
		"mode":  string(s.profile.Mode),
		"nodes": len(s.bodies),
		"links": len(s.springs),
		"ticks": s.tick,
		"alpha": s.alpha,
	}
}
