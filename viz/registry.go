package viz

import (
	"sort"
	"sync"

	grapherror "github.com/teranos/QVIZ/graph/error"
	"github.com/teranos/QVIZ/logger"
	"github.com/teranos/QVIZ/render"
)

// MeasureFunc reports a surface's actual rendered dimensions. The machine
// calls it after the open transition settles, on the next paint, instead of
// trusting the declared size.
type MeasureFunc func() (width, height float64)

// FrameFunc receives each scene frame built for a surface.
type FrameFunc func(*render.Scene)

// Surface is one mount target the embedding console registers. The engine
// is purely reactive to registered surfaces: rendering into an unknown id
// is a silent no-op.
type Surface struct {
	ID      string
	Variant render.Variant
	Size    render.Size
	Measure MeasureFunc // nil = trust Size
	OnFrame FrameFunc   // nil = frames dropped (headless)
	IsOpen  func() bool // sibling open/closed indicator; nil = unknown
}

// SurfaceRegistry holds the console's mount targets and the close-request
// bus its panels share.
type SurfaceRegistry struct {
	mu       sync.RWMutex
	surfaces map[string]*Surface
	bus      *Bus
}

// NewSurfaceRegistry creates an empty registry with its own bus.
func NewSurfaceRegistry() *SurfaceRegistry {
	return &SurfaceRegistry{
		surfaces: make(map[string]*Surface),
		bus:      NewBus(),
	}
}

// Bus returns the registry's close-request bus.
func (r *SurfaceRegistry) Bus() *Bus {
	return r.bus
}

// Register adds a surface. Registering an id twice is an error; the console
// unregisters before remounting.
func (r *SurfaceRegistry) Register(s *Surface) error {
	if s == nil || s.ID == "" {
		return grapherror.Newf(grapherror.CategorySurface,
			"Surface registration requires an id",
			"register: nil surface or empty id").
			WithSubcategory(grapherror.SubcategorySurfaceMissingContainer)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.surfaces[s.ID]; ok {
		return grapherror.Newf(grapherror.CategorySurface,
			"Surface already registered",
			"register: duplicate surface %q", s.ID).
			WithSubcategory(grapherror.SubcategorySurfaceDuplicate)
	}

	r.surfaces[s.ID] = s
	logger.PanelDebugw("Surface registered",
		logger.FieldSurface, s.ID,
		logger.FieldVariant, s.Variant.String(),
	)
	return nil
}

// Unregister removes a surface. Unknown ids are ignored.
func (r *SurfaceRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.surfaces, id)
}

// Lookup returns the surface for id, or nil.
func (r *SurfaceRegistry) Lookup(id string) *Surface {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.surfaces[id]
}

// IDs returns the registered surface ids in sorted order.
func (r *SurfaceRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.surfaces))
	for id := range r.surfaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Default registry for hosts that use the package-level entry points.
var (
	defaultRegistry   *SurfaceRegistry
	defaultRegistryMu sync.RWMutex
)

// SetDefaultRegistry installs the registry used by the package-level Render.
func SetDefaultRegistry(r *SurfaceRegistry) {
	defaultRegistryMu.Lock()
	defer defaultRegistryMu.Unlock()
	defaultRegistry = r
}

// GetDefaultRegistry returns the installed default registry, or nil.
func GetDefaultRegistry() *SurfaceRegistry {
	defaultRegistryMu.RLock()
	defer defaultRegistryMu.RUnlock()
	return defaultRegistry
}
