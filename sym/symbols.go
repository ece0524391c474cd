// Package sym defines canonical symbols for QVIZ subsystems and system markers.
// These symbols are stable across UI, CLI, and documentation.
//
// Each subsystem of the visualization engine carries one glyph; log lines,
// banners, and console output tag themselves with it so a reader can scan a
// mixed stream by shape alone.
package sym

// Symbol identifies a subsystem marker independent of its visual glyph.
type Symbol int

const (
	SymbolUnspecified Symbol = iota
	SymbolGraph
	SymbolSim
	SymbolScene
	SymbolPanel
	SymbolLive
	SymbolExport
	SymbolDB
	SymbolAM
)

// SymbolCategory groups symbols by role.
type SymbolCategory int

const (
	CategoryEngine SymbolCategory = iota + 1 // rendering pipeline stages
	CategorySystem                           // supporting infrastructure
)

// Glyph string constants — the visual expression of each symbol.
//
// Engine pipeline symbols — the stages a graph passes through.
const (
	Graph  = "◉" // graph — spec model, parsing, type metadata
	Sim    = "∿" // sim — force-directed layout simulation
	Scene  = "❖" // scene — render surface, SVG/frame assembly
	Panel  = "◫" // panel — display mode state machine, split/fullscreen
	Export = "⇲" // export — raster capture and file output
)

// System infrastructure symbols.
const (
	Live = "⇅" // live — websocket console transport
	DB   = "⊔" // database/storage layer
	AM   = "≡" // am — configuration and system settings
)

// entry binds a Symbol to its glyph, short command, and description.
type entry struct {
	symbol      Symbol
	glyph       string
	command     string
	label       string
	description string
	category    SymbolCategory
	palette     int // 1-based position in PaletteOrder, 0 = not in palette
}

// registry is the canonical mapping between symbol values and metadata.
var registry = []entry{
	{SymbolGraph, Graph, "graph", "Graph", "Spec model, parsing, type metadata", CategoryEngine, 1},
	{SymbolSim, Sim, "sim", "Simulation", "Force-directed layout", CategoryEngine, 2},
	{SymbolScene, Scene, "scene", "Scene", "Render surface assembly", CategoryEngine, 3},
	{SymbolPanel, Panel, "panel", "Panel", "Display mode lifecycle", CategoryEngine, 4},
	{SymbolExport, Export, "export", "Export", "Raster capture and file output", CategoryEngine, 5},
	{SymbolLive, Live, "live", "Live", "WebSocket console transport", CategorySystem, 6},
	{SymbolDB, DB, "db", "Storage", "Database/storage layer", CategorySystem, 7},
	{SymbolAM, AM, "am", "Configuration", "System settings and state", CategorySystem, 8},
}

// Lookup tables built from the registry at init time.
var (
	glyphToSymbol map[string]Symbol
	symbolToGlyph map[Symbol]string
)

func init() {
	glyphToSymbol = make(map[string]Symbol, len(registry))
	symbolToGlyph = make(map[Symbol]string, len(registry))
	for _, e := range registry {
		glyphToSymbol[e.glyph] = e.symbol
		symbolToGlyph[e.symbol] = e.glyph
	}
}

// Glyph returns the Unicode glyph string for a Symbol value.
func Glyph(s Symbol) string {
	return symbolToGlyph[s]
}

// FromGlyph returns the Symbol value for a Unicode glyph string.
func FromGlyph(glyph string) Symbol {
	if s, ok := glyphToSymbol[glyph]; ok {
		return s
	}
	return SymbolUnspecified
}

// PaletteOrder defines the canonical ordering for banner strips,
// status rows, and documentation.
var PaletteOrder = []string{Graph, Sim, Scene, Panel, Export, Live, DB, AM}

// SymbolToCommand maps glyph strings to their text command equivalents.
var SymbolToCommand = map[string]string{
	Graph:  "graph",
	Sim:    "sim",
	Scene:  "scene",
	Panel:  "panel",
	Export: "export",
	Live:   "live",
	DB:     "db",
	AM:     "am",
}

// CommandToSymbol maps text commands to their canonical glyph strings.
var CommandToSymbol = map[string]string{
	"graph":  Graph,
	"sim":    Sim,
	"scene":  Scene,
	"panel":  Panel,
	"export": Export,
	"live":   Live,
	"db":     DB,
	"am":     AM,
}

// CommandDescriptions provides human-readable explanations for tooltip hover states.
var CommandDescriptions = map[string]string{
	"graph":  "Graph — Spec model, parsing, type metadata",
	"sim":    "Simulation — Force-directed layout",
	"scene":  "Scene — Render surface assembly",
	"panel":  "Panel — Display mode lifecycle",
	"export": "Export — Raster capture and file output",
	"live":   "Live — WebSocket console transport",
	"db":     "Storage — Database/storage layer",
	"am":     "Configuration — System settings and state",
}

// Commands lists the subsystem short names in palette order.
var Commands = []string{"graph", "sim", "scene", "panel", "export", "live", "db", "am"}
