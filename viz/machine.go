package viz

import (
	"sync"
	"time"

	"github.com/teranos/QVIZ/logger"
	"github.com/teranos/QVIZ/render"
)

// Phase is the display-mode lifecycle state of one panel.
type Phase int32

const (
	PhaseHidden Phase = iota
	PhaseOpening
	PhaseOpen
	PhaseFullscreen
	PhaseClosing
)

func (p Phase) String() string {
	switch p {
	case PhaseHidden:
		return "hidden"
	case PhaseOpening:
		return "opening"
	case PhaseOpen:
		return "open"
	case PhaseFullscreen:
		return "fullscreen"
	case PhaseClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Panel geometry and timing defaults. Transitions are time-boxed visual
// animations; the machine waits for the completion signal, not the clock.
const (
	// TransitionDuration is the open/close animation time box.
	TransitionDuration = 280 * time.Millisecond

	// guardMultiple scales the guard timer that fires if a completion
	// signal never arrives, so content clearing cannot hang forever.
	guardMultiple = 4

	// DefaultPanelFraction is the split panel's share of the viewport width.
	DefaultPanelFraction = 0.38

	// DefaultPanelMinWidth is the floor below which the panel never shrinks
	// while open.
	DefaultPanelMinWidth = 320.0

	// DefaultChromeHeight is the fixed top navigation chrome the fullscreen
	// surface offsets below.
	DefaultChromeHeight = 64.0
)

// TransitionSignal produces a channel that closes when one visual
// transition completes. Production signals are timer-backed; tests inject
// manual ones so lifecycle logic runs without real timers.
type TransitionSignal func() <-chan struct{}

// TimedSignal returns the production signal: completion after d.
func TimedSignal(d time.Duration) TransitionSignal {
	return func() <-chan struct{} {
		ch := make(chan struct{})
		time.AfterFunc(d, func() { close(ch) })
		return ch
	}
}

// immediateSignal completes synchronously; used as the paint-scheduler
// default when the host provides none.
func immediateSignal() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// ManualSignal is a test double: every armed transition stays pending until
// Fire is called.
type ManualSignal struct {
	mu      sync.Mutex
	pending []chan struct{}
}

// Signal returns a TransitionSignal backed by this ManualSignal.
func (m *ManualSignal) Signal() TransitionSignal {
	return func() <-chan struct{} {
		m.mu.Lock()
		defer m.mu.Unlock()
		ch := make(chan struct{})
		m.pending = append(m.pending, ch)
		return ch
	}
}

// Fire completes every pending transition.
func (m *ManualSignal) Fire() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, ch := range pending {
		close(ch)
	}
}

// Pending reports the number of armed, unfired transitions.
func (m *ManualSignal) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// MachineConfig wires a Machine to its host surface.
type MachineConfig struct {
	Viewport      render.Size
	PanelFraction float64 // 0 = DefaultPanelFraction
	MinWidth      float64 // 0 = DefaultPanelMinWidth
	ChromeHeight  float64 // 0 = DefaultChromeHeight

	Signal TransitionSignal // nil = TimedSignal(TransitionDuration)
	Paint  TransitionSignal // next-paint scheduler; nil = immediate
	Guard  time.Duration    // 0 = guardMultiple x TransitionDuration

	Measure   MeasureFunc       // actual dimensions after layout stabilizes
	OnMount   func(render.Size) // mount content once the panel is open
	OnUnmount func()            // clear content after the close completes
}

// Machine owns one panel's display-mode lifecycle:
//
//	Hidden -> Opening -> Open -> Fullscreen -> Open -> Closing -> Hidden
//
// Fullscreen is reachable only from Open and returns only to Open. Content
// is mounted after the open transition's layout stabilizes and cleared only
// after the close transition's completion signal fires, with an idempotent
// phase check guarding a signal that never arrives.
type Machine struct {
	mu        sync.Mutex
	phase     Phase
	width     float64
	topOffset float64
	// priorWidth is the measured open width stashed on fullscreen entry so
	// exit restores exactly what Open installed, not the computed target.
	priorWidth float64
	cfg        MachineConfig
	wg         sync.WaitGroup
}

// NewMachine creates a hidden machine with defaults applied.
func NewMachine(cfg MachineConfig) *Machine {
	if cfg.PanelFraction <= 0 {
		cfg.PanelFraction = DefaultPanelFraction
	}
	if cfg.MinWidth <= 0 {
		cfg.MinWidth = DefaultPanelMinWidth
	}
	if cfg.ChromeHeight <= 0 {
		cfg.ChromeHeight = DefaultChromeHeight
	}
	if cfg.Signal == nil {
		cfg.Signal = TimedSignal(TransitionDuration)
	}
	if cfg.Paint == nil {
		cfg.Paint = immediateSignal
	}
	if cfg.Guard <= 0 {
		cfg.Guard = guardMultiple * TransitionDuration
	}
	return &Machine{cfg: cfg}
}

// Phase returns the current lifecycle phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Width returns the panel's current width in scene units (0 while hidden).
func (m *Machine) Width() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width
}

// TopOffset returns the fullscreen chrome offset (0 outside fullscreen).
func (m *Machine) TopOffset() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.topOffset
}

// targetWidth applies the minimum floor to the viewport fraction.
func (m *Machine) targetWidth() float64 {
	w := m.cfg.Viewport.Width * m.cfg.PanelFraction
	if w < m.cfg.MinWidth {
		w = m.cfg.MinWidth
	}
	return w
}

// Open animates the panel from zero width to its target and mounts content
// once the layout has stabilized. Opening mid-close redirects the close (its
// phase check stands down); any other non-hidden phase is a no-op since
// re-open-while-open content swaps are the session's job.
func (m *Machine) Open() {
	m.mu.Lock()
	if m.phase != PhaseHidden && m.phase != PhaseClosing {
		m.mu.Unlock()
		return
	}
	m.phase = PhaseOpening
	m.width = 0
	done := m.cfg.Signal()
	m.mu.Unlock()

	logger.PanelDebugw("Panel opening", logger.FieldPhase, PhaseOpening.String())

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.awaitTransition(done)

		// Layout has landed; measure real dimensions on the next paint
		// instead of assuming defaults.
		<-m.cfg.Paint()

		width, height := m.targetWidth(), m.cfg.Viewport.Height
		if m.cfg.Measure != nil {
			if mw, mh := m.cfg.Measure(); mw > 0 && mh > 0 {
				width, height = mw, mh
			}
		}

		m.mu.Lock()
		if m.phase != PhaseOpening {
			// Closed (or otherwise redirected) while the transition ran.
			m.mu.Unlock()
			return
		}
		m.phase = PhaseOpen
		m.width = width
		mount := m.cfg.OnMount
		m.mu.Unlock()

		logger.PanelInfow("Panel open",
			logger.FieldPhase, PhaseOpen.String(),
			"width", width,
			"height", height,
		)
		if mount != nil {
			mount(render.Size{Width: width, Height: height})
		}
	}()
}

// Close reverse-animates the width to zero and clears content only after
// the transition's completion signal fires, never immediately. Fullscreen
// state is force-cleared first. No-op while hidden or already closing.
func (m *Machine) Close() {
	m.mu.Lock()
	switch m.phase {
	case PhaseHidden, PhaseClosing:
		m.mu.Unlock()
		return
	case PhaseFullscreen:
		m.topOffset = 0
		m.priorWidth = 0
	case PhaseOpening:
		// Redirect an in-flight open; the open goroutine's phase check
		// sees Closing and stands down.
	}
	m.phase = PhaseClosing
	done := m.cfg.Signal()
	m.mu.Unlock()

	logger.PanelDebugw("Panel closing", logger.FieldPhase, PhaseClosing.String())

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.awaitTransition(done)

		m.mu.Lock()
		if m.phase != PhaseClosing {
			// Reopened mid-close; the content now belongs to the new open.
			m.mu.Unlock()
			return
		}
		m.phase = PhaseHidden
		m.width = 0
		unmount := m.cfg.OnUnmount
		m.mu.Unlock()

		logger.PanelInfow("Panel hidden", logger.FieldPhase, PhaseHidden.String())
		if unmount != nil {
			unmount()
		}
	}()
}

// ToggleFullscreen flips between Open and Fullscreen. Entry records the top
// chrome height so the panel offsets below it; exit removes the offset. Any
// other phase is a no-op. The simulation is untouched.
func (m *Machine) ToggleFullscreen() {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.phase {
	case PhaseOpen:
		m.phase = PhaseFullscreen
		m.topOffset = m.cfg.ChromeHeight
		m.priorWidth = m.width
		m.width = m.cfg.Viewport.Width
	case PhaseFullscreen:
		m.phase = PhaseOpen
		m.topOffset = 0
		m.width = m.priorWidth
		m.priorWidth = 0
	default:
		return
	}
	logger.PanelDebugw("Fullscreen toggled",
		logger.FieldPhase, m.phase.String(),
		"top_offset", m.topOffset,
	)
}

// awaitTransition blocks until the completion signal or the guard timer.
// The guard exists because a completion signal that never fires must not
// strand the panel mid-transition (the phase check keeps cleanup
// idempotent either way).
func (m *Machine) awaitTransition(done <-chan struct{}) {
	guard := time.NewTimer(m.cfg.Guard)
	defer guard.Stop()

	select {
	case <-done:
	case <-guard.C:
		logger.PanelWarnw("Transition completion signal never fired, guard elapsed",
			"guard", m.cfg.Guard,
		)
	}
}

// Wait blocks until all in-flight transition goroutines finish. Test hook.
func (m *Machine) Wait() {
	m.wg.Wait()
}
