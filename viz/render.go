package viz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/teranos/QVIZ/errors"
	"github.com/teranos/QVIZ/graph"
	grapherror "github.com/teranos/QVIZ/graph/error"
	"github.com/teranos/QVIZ/layout"
	"github.com/teranos/QVIZ/logger"
	"github.com/teranos/QVIZ/render"
)

// compactBudget overrides the inline preview's simulation budget when the
// host configured layout.compact_budget_ms. Zero keeps the profile default.
var (
	compactBudgetMu sync.Mutex
	compactBudget   time.Duration
)

// SetCompactBudget installs the configured wall-clock budget for inline
// preview simulations. Called once at host startup.
func SetCompactBudget(d time.Duration) {
	compactBudgetMu.Lock()
	defer compactBudgetMu.Unlock()
	compactBudget = d
}

// compactProfile returns the inline profile with any configured budget.
func compactProfile() layout.Profile {
	compactBudgetMu.Lock()
	defer compactBudgetMu.Unlock()
	return layout.CompactProfileWithBudget(compactBudget)
}

// activeSessions tracks the live session per full surface so re-rendering
// into the same surface supersedes the prior content instead of leaving the
// old simulation mounted and streaming alongside the new one.
var (
	activeMu       sync.Mutex
	activeSessions = make(map[string]*Session)
)

// takeActive removes and returns the session bound to the surface, if any.
func takeActive(surfaceID string) *Session {
	activeMu.Lock()
	defer activeMu.Unlock()
	prior := activeSessions[surfaceID]
	delete(activeSessions, surfaceID)
	return prior
}

// bindActive records the session now owning the surface.
func bindActive(surfaceID string, s *Session) {
	activeMu.Lock()
	defer activeMu.Unlock()
	activeSessions[surfaceID] = s
}

// releaseActive drops the binding, but only while s still owns it; a
// superseded session must not evict its replacement.
func releaseActive(s *Session) {
	activeMu.Lock()
	defer activeMu.Unlock()
	if activeSessions[s.id] == s {
		delete(activeSessions, s.id)
	}
}

// Handle exposes a full surface's live resources to the host. Inline
// previews never return one; their simulations self-terminate on the
// compact budget.
type Handle struct {
	session *Session
}

// Session returns the interaction controller behind the surface.
func (h *Handle) Session() *Session { return h.session }

// Simulation returns the live layout simulation, or nil when nothing is
// mounted. Exposed so teardown code can halt it explicitly.
func (h *Handle) Simulation() *layout.Simulation {
	h.session.mu.Lock()
	defer h.session.mu.Unlock()
	return h.session.sim
}

// Stop tears the surface down outright, simulation included.
func (h *Handle) Stop() {
	releaseActive(h.session)
	h.session.Shutdown()
}

// Render is the single entry point for putting a graph on a surface. The
// payload is a *graph.Spec or serialized spec bytes/string. Dispatch is on
// the registered surface's variant tag:
//
//   - inline: a compact budgeted simulation streams scenes to the surface
//     until it settles; the returned handle is nil.
//   - split/fullscreen: a Session owns the surface; the handle exposes it.
//
// An unknown target is a silent no-op (nil handle, nil error, debug log).
// Internal panics are recovered into an error-state scene on the surface;
// nothing escapes to the host.
func Render(targetSurfaceID string, payload any) (h *Handle, err error) {
	reg := GetDefaultRegistry()
	if reg == nil {
		logger.SceneDebugw("No surface registry installed, skipping render",
			logger.FieldSurface, targetSurfaceID,
		)
		return nil, nil
	}
	surface := reg.Lookup(targetSurfaceID)
	if surface == nil {
		logger.SceneDebugw("Render target not registered, skipping",
			logger.FieldSurface, targetSurfaceID,
		)
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			ge := grapherror.Newf(grapherror.CategoryInternal,
				"The graph could not be displayed",
				"render panic on surface %q: %v", targetSurfaceID, r).
				WithSubcategory(grapherror.SubcategoryInternalPanic)
			logger.Errorw("Recovered render panic", ge.ToLogFields()...)
			pushErrorScene(surface, ge)
			h, err = nil, ge
		}
	}()

	spec, err := decodePayload(payload)
	if err != nil {
		ge := grapherror.New(grapherror.CategorySpec, err,
			"The graph data could not be read")
		logger.GraphWarnw("Rejecting malformed render payload",
			logger.FieldSurface, targetSurfaceID,
			"error", err,
		)
		pushErrorScene(surface, ge)
		return nil, ge
	}

	logger.SceneInfow("Rendering graph",
		logger.FieldSurface, targetSurfaceID,
		logger.FieldVariant, surface.Variant.String(),
		logger.FieldNodes, len(spec.Nodes),
		logger.FieldLinks, len(spec.Links),
	)

	if surface.Variant == render.VariantInline {
		renderInline(surface, spec)
		return nil, nil
	}

	// Supersede before subscribing the replacement: Shutdown unsubscribes
	// the prior session from the bus under the same id.
	if prior := takeActive(targetSurfaceID); prior != nil {
		logger.SceneDebugw("Superseding prior session on surface",
			logger.FieldSurface, targetSurfaceID,
		)
		prior.Shutdown()
	}

	session, err := NewSession(SessionConfig{
		ID:       targetSurfaceID,
		Surface:  surface,
		Registry: reg,
	})
	if err != nil {
		return nil, err
	}
	bindActive(targetSurfaceID, session)
	session.Open(spec)
	return &Handle{session: session}, nil
}

// renderInline drives the compact preview: an immediate scene, then frames
// from a budgeted simulation that stops itself once the budget elapses.
// Empty graphs get the empty-state scene and no simulation at all.
func renderInline(surface *Surface, spec *graph.Spec) {
	view := render.View{}
	if spec.IsEmpty() {
		scene := render.BuildScene(spec, layout.Frame{}, view, render.VariantInline, surface.Size)
		if surface.OnFrame != nil {
			surface.OnFrame(scene)
		}
		return
	}

	sim := layout.NewSimulation(spec, compactProfile(), surface.Size.Width, surface.Size.Height, 0)
	sim.OnTick(func(frame layout.Frame) {
		scene := render.BuildScene(spec, frame, view, render.VariantInline, surface.Size)
		if surface.OnFrame != nil {
			surface.OnFrame(scene)
		}
	})
	scene := render.BuildScene(spec, sim.Snapshot(), view, render.VariantInline, surface.Size)
	if surface.OnFrame != nil {
		surface.OnFrame(scene)
	}
	sim.Start(context.Background())
}

// pushErrorScene paints a neutral error-state scene on the surface.
func pushErrorScene(surface *Surface, ge *grapherror.GraphError) {
	if surface == nil || surface.OnFrame == nil {
		return
	}
	scene := &render.Scene{
		Variant:      surface.Variant,
		Width:        surface.Size.Width,
		Height:       surface.Size.Height,
		EmptyMessage: ge.ToUIMessage(),
		Transform:    render.DefaultTransform(),
	}
	surface.OnFrame(scene)
}

// decodePayload accepts a parsed spec or serialized spec bytes/string.
func decodePayload(payload any) (*graph.Spec, error) {
	switch p := payload.(type) {
	case *graph.Spec:
		if p == nil {
			return &graph.Spec{}, nil
		}
		return p.Clone(), nil
	case graph.Spec:
		return p.Clone(), nil
	case []byte:
		return graph.DecodeSpec(p)
	case string:
		return graph.DecodeSpec([]byte(p))
	case nil:
		return nil, errors.Wrap(errors.ErrInvalidRequest, "nil render payload")
	default:
		return nil, errors.Wrap(errors.ErrInvalidRequest,
			fmt.Sprintf("unsupported render payload type %T", payload))
	}
}
