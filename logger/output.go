package logger

// Output controls what categories of information are shown at each verbosity level.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
//
// Verbosity Levels:
//
//	0 (default) - User-facing output only: results, errors with hints, final status
//	1 (-v)      - + Progress, startup info, graph summaries, export paths
//	2 (-vv)     - + Scene builds, timing, config loaded, HTTP requests
//	3 (-vvv)    - + Simulation ticks, SQL queries, panel transitions
//	4 (-vvvv)   - + Full websocket frames and raw spec payloads

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults    OutputCategory = iota // Render results, command output
	OutputErrors                           // Errors with hints and resolution steps
	OutputUserStatus                       // Final success/failure status

	// Level 1 (-v) - Informational
	OutputProgress     // Progress indicators (e.g., "settling 120/400 steps")
	OutputStartup      // Startup banners, config summary
	OutputGraphSummary // Node/link counts, type inventory
	OutputExportInfo   // Export destinations and sizes

	// Level 2 (-vv) - Detailed
	OutputSceneBuilds // Scene assembly details per frame
	OutputTiming      // Operation timing (e.g., "settle took 42ms")
	OutputConfig      // Config values loaded/applied
	OutputHTTPCalls   // HTTP endpoint requests served
	OutputDBStats     // Database statistics and connection info

	// Level 3 (-vvv) - Debug
	OutputSimTicks    // Per-tick simulation state
	OutputTransitions // Panel open/close/fullscreen transitions
	OutputSQLQueries  // Individual SQL queries executed
	OutputInternalOp  // Internal operation flow

	// Level 4 (-vvvv) - Full dump
	OutputWSFrames // Full websocket message payloads
	OutputDataDump // Full spec and scene structure contents
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	// Level 0 - Always shown
	OutputResults:    VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputUserStatus: VerbosityUser,

	// Level 1 - Informational
	OutputProgress:     VerbosityInfo,
	OutputStartup:      VerbosityInfo,
	OutputGraphSummary: VerbosityInfo,
	OutputExportInfo:   VerbosityInfo,

	// Level 2 - Detailed
	OutputSceneBuilds: VerbosityDetail,
	OutputTiming:      VerbosityDetail,
	OutputConfig:      VerbosityDetail,
	OutputHTTPCalls:   VerbosityDetail,
	OutputDBStats:     VerbosityDetail,

	// Level 3 - Debug
	OutputSimTicks:    VerbosityTrace,
	OutputTransitions: VerbosityTrace,
	OutputSQLQueries:  VerbosityTrace,
	OutputInternalOp:  VerbosityTrace,

	// Level 4 - Full dump
	OutputWSFrames: VerbosityAll,
	OutputDataDump: VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}

// categoryNames provides human-readable names for output categories
var categoryNames = map[OutputCategory]string{
	OutputResults:      "results",
	OutputErrors:       "errors",
	OutputUserStatus:   "status",
	OutputProgress:     "progress",
	OutputStartup:      "startup",
	OutputGraphSummary: "graph-summary",
	OutputExportInfo:   "export-info",
	OutputSceneBuilds:  "scene-builds",
	OutputTiming:       "timing",
	OutputConfig:       "config",
	OutputHTTPCalls:    "http",
	OutputDBStats:      "db-stats",
	OutputSimTicks:     "sim-ticks",
	OutputTransitions:  "transitions",
	OutputSQLQueries:   "sql",
	OutputInternalOp:   "internal",
	OutputWSFrames:     "ws-frames",
	OutputDataDump:     "data-dump",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}

// EnabledCategories returns all output categories enabled at the given verbosity
func EnabledCategories(verbosity int) []OutputCategory {
	var enabled []OutputCategory
	for cat, minLevel := range categoryLevels {
		if verbosity >= minLevel {
			enabled = append(enabled, cat)
		}
	}
	return enabled
}

// VerbosityDescription returns a description of what's shown at each level
func VerbosityDescription(verbosity int) string {
	switch verbosity {
	case VerbosityUser:
		return "results and errors only"
	case VerbosityInfo:
		return "results, errors, progress, and graph summaries"
	case VerbosityDetail:
		return "above + scene builds, timing, config details"
	case VerbosityTrace:
		return "above + simulation ticks, SQL, panel transitions"
	case VerbosityAll:
		return "full output including websocket frames"
	default:
		if verbosity > VerbosityAll {
			return "maximum verbosity"
		}
		return "unknown verbosity level"
	}
}
