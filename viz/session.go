package viz

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/teranos/QVIZ/errors"
	"github.com/teranos/QVIZ/graph"
	grapherror "github.com/teranos/QVIZ/graph/error"
	"github.com/teranos/QVIZ/layout"
	"github.com/teranos/QVIZ/logger"
	"github.com/teranos/QVIZ/render"
)

// Zoom bounds per surface class. Compact previews clamp tighter because
// the fixed-height strip distorts badly at extremes.
const (
	zoomMinFull    = 0.1
	zoomMaxFull    = 4.0
	zoomMinCompact = 0.5
	zoomMaxCompact = 2.0
)

// SessionConfig wires a Session to its surface and host callbacks.
type SessionConfig struct {
	ID       string
	Surface  *Surface
	Registry *SurfaceRegistry

	Signal TransitionSignal // nil = production timer
	Paint  TransitionSignal // nil = immediate
	Seed   int64            // layout seed, 0 = deterministic default

	// Panel geometry overrides from host configuration; zero values fall
	// back to the machine defaults.
	PanelFraction float64
	PanelMinWidth float64
	ChromeHeight  float64

	// OnScene receives every rebuilt scene for this session. The surface's
	// own OnFrame hook is invoked as well when set.
	OnScene func(*render.Scene)
}

// Session is the per-client interaction controller for one full surface.
// It owns the spec clone, the layout simulation, and the view state, and is
// single-owner: every mutation happens under the session lock, so
// interaction handlers never race a scene build for the same session.
type Session struct {
	id      string
	surface *Surface
	reg     *SurfaceRegistry
	machine *Machine
	onScene func(*render.Scene)
	seed    int64

	mu        sync.Mutex
	spec      *graph.Spec
	pending   *graph.Spec // spec waiting for the open transition to mount
	sim       *layout.Simulation
	simCancel context.CancelFunc
	frame     layout.Frame
	view      render.View
	size      render.Size
	dragging  string
	lastScene *render.Scene // captured at close for pending exports

	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup
}

// NewSession creates a session bound to cfg.Surface and subscribes it to
// the registry bus so sibling panels can request its closure.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Surface == nil {
		return nil, grapherror.Newf(grapherror.CategorySurface,
			"Graph session has no surface to attach to",
			"session %q created without a surface", cfg.ID)
	}
	s := &Session{
		id:      cfg.ID,
		surface: cfg.Surface,
		reg:     cfg.Registry,
		onScene: cfg.OnScene,
		seed:    cfg.Seed,
		size:    cfg.Surface.Size,
		done:    make(chan struct{}),
	}
	s.machine = NewMachine(MachineConfig{
		Viewport:      cfg.Surface.Size,
		PanelFraction: cfg.PanelFraction,
		MinWidth:      cfg.PanelMinWidth,
		ChromeHeight:  cfg.ChromeHeight,
		Signal:        cfg.Signal,
		Paint:         cfg.Paint,
		Measure:       cfg.Surface.Measure,
		OnMount:       s.mountContent,
		OnUnmount:     s.clearContent,
	})
	if s.reg != nil {
		s.watchBus(s.reg.Bus().Subscribe(s.id))
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Phase returns the panel's current lifecycle phase.
func (s *Session) Phase() Phase { return s.machine.Phase() }

// watchBus closes the panel whenever a sibling broadcasts a close request.
func (s *Session) watchBus(ch <-chan CloseRequest) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case req, ok := <-ch:
				if !ok {
					return
				}
				logger.PanelDebugw("Sibling requested close",
					logger.FieldSessionID, s.id,
					"from", req.From,
				)
				s.Close()
			case <-s.done:
				return
			}
		}
	}()
}

// Open shows the panel with the given spec. From hidden it broadcasts a
// close request to siblings (without waiting on them) and runs the open
// transition; while already open it swaps only the inner content, stopping
// the old simulation, without replaying the transition.
func (s *Session) Open(spec *graph.Spec) {
	if spec == nil {
		spec = &graph.Spec{}
	}
	clone := spec.Clone()

	switch s.machine.Phase() {
	case PhaseOpen, PhaseFullscreen:
		s.mu.Lock()
		size := s.size
		s.mu.Unlock()
		logger.PanelInfow("Swapping panel content",
			logger.FieldSessionID, s.id,
			logger.FieldNodes, len(clone.Nodes),
			logger.FieldLinks, len(clone.Links),
		)
		s.installContent(clone, size)
	case PhaseOpening:
		s.mu.Lock()
		s.pending = clone
		s.mu.Unlock()
	default:
		s.mu.Lock()
		s.pending = clone
		s.mu.Unlock()
		if s.reg != nil {
			s.reg.Bus().RequestClose(s.id)
		}
		s.machine.Open()
	}
}

// mountContent runs once the open transition lands and the panel has been
// measured; it installs the pending spec at the real dimensions.
func (s *Session) mountContent(size render.Size) {
	s.mu.Lock()
	spec := s.pending
	s.pending = nil
	s.mu.Unlock()
	if spec == nil {
		spec = &graph.Spec{}
	}
	s.installContent(spec, size)
}

// installContent replaces the spec and simulation, resets the view, and
// pushes the first scene. Empty specs get no simulation at all.
func (s *Session) installContent(spec *graph.Spec, size render.Size) {
	s.mu.Lock()
	s.stopSimLocked()
	s.spec = spec
	s.size = size
	s.view = render.View{}
	s.frame = layout.Frame{}
	s.dragging = ""

	if !spec.IsEmpty() {
		profile := layout.FullProfile()
		sim := layout.NewSimulation(spec, profile, size.Width, size.Height, s.seed)
		sim.OnTick(s.handleTick)
		ctx, cancel := context.WithCancel(context.Background())
		s.sim = sim
		s.simCancel = cancel
		s.frame = sim.Snapshot()
		s.mu.Unlock()
		sim.Start(ctx)
	} else {
		s.mu.Unlock()
	}
	s.rebuild()
}

// handleTick folds a simulation frame into the session and pushes a scene.
func (s *Session) handleTick(frame layout.Frame) {
	s.mu.Lock()
	s.frame = frame
	scene := s.buildLocked()
	s.mu.Unlock()
	s.push(scene)
}

// Close reverse-animates the panel away. The current scene is captured
// first so a pending export still completes on the state the user saw. The
// simulation stops when the close transition's content clearing runs.
func (s *Session) Close() {
	s.mu.Lock()
	if s.spec != nil {
		s.lastScene = s.buildLocked()
	}
	s.mu.Unlock()
	s.machine.Close()
}

// clearContent is the machine's unmount hook: it stops the simulation and
// drops the spec after the close transition has fully completed.
func (s *Session) clearContent() {
	s.mu.Lock()
	s.stopSimLocked()
	s.spec = nil
	s.pending = nil
	s.frame = layout.Frame{}
	s.view = render.View{}
	s.dragging = ""
	s.mu.Unlock()
	logger.PanelDebugw("Panel content cleared", logger.FieldSessionID, s.id)
}

// stopSimLocked halts the owned simulation; callers hold s.mu.
func (s *Session) stopSimLocked() {
	if s.simCancel != nil {
		s.simCancel()
		s.simCancel = nil
	}
	if s.sim != nil {
		s.sim.Stop()
		s.sim = nil
	}
}

// ToggleFullscreen flips Open and Fullscreen without touching the
// simulation; only the drawable size changes.
func (s *Session) ToggleFullscreen() {
	s.machine.ToggleFullscreen()

	switch s.machine.Phase() {
	case PhaseFullscreen:
		s.mu.Lock()
		s.size = render.Size{
			Width:  s.surface.Size.Width,
			Height: s.surface.Size.Height - s.machine.TopOffset(),
		}
		s.mu.Unlock()
	case PhaseOpen:
		s.mu.Lock()
		s.size = render.Size{
			Width:  s.machine.Width(),
			Height: s.surface.Size.Height,
		}
		s.mu.Unlock()
	default:
		return
	}
	s.rebuild()
}

// Hover sets the hovered node (empty clears) and rebuilds.
func (s *Session) Hover(id string) {
	s.mu.Lock()
	s.view.HoverID = id
	scene := s.buildLocked()
	s.mu.Unlock()
	s.push(scene)
}

// Focus toggles click-to-focus. Clicking the focused node or the
// background (empty id) clears; clicking another node replaces the
// neighborhood directly.
func (s *Session) Focus(id string) {
	s.mu.Lock()
	if id == "" || id == s.view.FocusID {
		s.view.FocusID = ""
		s.view.Focus = nil
	} else if s.spec != nil {
		s.view.FocusID = id
		s.view.Focus = s.spec.Neighborhood(id)
	}
	scene := s.buildLocked()
	s.mu.Unlock()
	s.push(scene)
}

// Search sets the case-insensitive substring query; empty restores uniform
// opacity.
func (s *Session) Search(query string) {
	s.mu.Lock()
	s.view.SearchQuery = query
	scene := s.buildLocked()
	s.mu.Unlock()
	s.push(scene)
}

// ToggleType flips a type filter pill; hidden types are removed outright
// along with any touching edges.
func (s *Session) ToggleType(typeKey string) {
	if typeKey == "" {
		return
	}
	s.mu.Lock()
	if s.view.HiddenTypes == nil {
		s.view.HiddenTypes = make(map[string]bool)
	}
	if s.view.HiddenTypes[typeKey] {
		delete(s.view.HiddenTypes, typeKey)
	} else {
		s.view.HiddenTypes[typeKey] = true
	}
	scene := s.buildLocked()
	s.mu.Unlock()
	s.push(scene)
}

// SetZoom clamps and applies a continuous zoom level.
func (s *Session) SetZoom(zoom float64) {
	min, max := zoomBounds(s.surface.Variant)
	if zoom < min {
		zoom = min
	}
	if zoom > max {
		zoom = max
	}
	s.mu.Lock()
	s.view.Zoom = zoom
	scene := s.buildLocked()
	s.mu.Unlock()
	s.push(scene)
}

// Pan shifts the content group by a delta in scene units.
func (s *Session) Pan(dx, dy float64) {
	s.mu.Lock()
	s.view.PanX += dx
	s.view.PanY += dy
	scene := s.buildLocked()
	s.mu.Unlock()
	s.push(scene)
}

// ZoomToFit resets pan and zoom to the fixed default transform.
func (s *Session) ZoomToFit() {
	s.mu.Lock()
	s.view.Zoom = 0
	s.view.PanX = 0
	s.view.PanY = 0
	scene := s.buildLocked()
	s.mu.Unlock()
	s.push(scene)
}

// DragStart pins the node at its current position so it follows the
// pointer instead of the forces.
func (s *Session) DragStart(id string) {
	s.mu.Lock()
	sim := s.sim
	frame := s.frame
	s.dragging = id
	s.mu.Unlock()
	if sim == nil {
		return
	}
	if pos, ok := frame.ByID()[id]; ok {
		sim.Pin(id, pos.X, pos.Y)
	}
}

// DragMove streams pointer positions into the pin while a drag is active.
func (s *Session) DragMove(x, y float64) {
	s.mu.Lock()
	sim := s.sim
	id := s.dragging
	s.mu.Unlock()
	if sim == nil || id == "" {
		return
	}
	sim.Pin(id, x, y)
}

// DragEnd releases the dragged node; the simulation cools naturally.
func (s *Session) DragEnd() {
	s.mu.Lock()
	sim := s.sim
	id := s.dragging
	s.dragging = ""
	s.mu.Unlock()
	if sim == nil || id == "" {
		return
	}
	sim.Release(id)
}

// Scene returns the current drawable scene, or nil when nothing is
// mounted and no closed scene was captured.
func (s *Session) Scene() *render.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spec == nil {
		return s.lastScene
	}
	return s.buildLocked()
}

// ExportPNG rasterizes the current scene, or the scene captured at close
// when the panel has since been torn down.
func (s *Session) ExportPNG(scale int) ([]byte, error) {
	scene := s.Scene()
	if scene == nil {
		return nil, errors.Wrap(errors.ErrNotFound, "no scene to export")
	}
	png, err := render.ExportPNG(scene, scale)
	if err != nil {
		return nil, grapherror.New(grapherror.CategoryExport, err,
			"Could not export the graph image")
	}
	logger.ExportInfow("Scene exported",
		logger.FieldSessionID, s.id,
		"format", "png",
		logger.FieldCount, len(png),
	)
	return png, nil
}

// ExportSVG writes the current (or captured) scene as a standalone SVG.
func (s *Session) ExportSVG(w io.Writer) error {
	scene := s.Scene()
	if scene == nil {
		return errors.Wrap(errors.ErrNotFound, "no scene to export")
	}
	var buf bytes.Buffer
	if err := render.WriteSVG(&buf, scene); err != nil {
		return grapherror.New(grapherror.CategoryExport, err,
			"Could not export the graph image")
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return grapherror.New(grapherror.CategoryExport, err,
			"Could not export the graph image")
	}
	return nil
}

// Shutdown tears the session down outright: simulation stopped, bus
// subscription dropped, watcher goroutines joined. Used on client
// disconnect rather than a visual close.
func (s *Session) Shutdown() {
	s.doneOnce.Do(func() { close(s.done) })
	if s.reg != nil {
		s.reg.Bus().Unsubscribe(s.id)
	}
	s.mu.Lock()
	s.stopSimLocked()
	s.mu.Unlock()
	s.machine.Wait()
	s.wg.Wait()
}

// rebuild produces and pushes a scene outside any interaction path.
func (s *Session) rebuild() {
	s.mu.Lock()
	scene := s.buildLocked()
	s.mu.Unlock()
	s.push(scene)
}

// buildLocked assembles the scene for the current state; callers hold s.mu.
func (s *Session) buildLocked() *render.Scene {
	if s.spec == nil {
		return nil
	}
	variant := s.surface.Variant
	if s.machine.Phase() == PhaseFullscreen {
		variant = render.VariantFullscreen
	}
	return render.BuildScene(s.spec, s.frame, s.view, variant, s.size)
}

// push delivers a scene to the surface and the host callback.
func (s *Session) push(scene *render.Scene) {
	if scene == nil {
		return
	}
	if s.surface.OnFrame != nil {
		s.surface.OnFrame(scene)
	}
	if s.onScene != nil {
		s.onScene(scene)
	}
}

// zoomBounds returns the clamp range for a surface class.
func zoomBounds(variant render.Variant) (float64, float64) {
	if variant == render.VariantInline {
		return zoomMinCompact, zoomMaxCompact
	}
	return zoomMinFull, zoomMaxFull
}
