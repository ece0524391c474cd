package logger

import "go.uber.org/zap/zapcore"

// Verbosity tiers for the -v count flag. Tiers gate output categories
// (see output.go), not just zap severity: -vv and above all map to
// DebugLevel, with categories deciding what actually prints.
//
//	if logger.ShouldOutput(verbosity, logger.OutputSimTicks) {
//	    fmt.Printf("tick %d alpha=%.3f\n", n, alpha)
//	}
const (
	VerbosityUser   = 0 // results and errors only
	VerbosityInfo   = 1 // -v: progress, startup, graph summaries
	VerbosityDetail = 2 // -vv: scene builds, timing, config details
	VerbosityTrace  = 3 // -vvv: simulation ticks, SQL, transition events
	VerbosityAll    = 4 // -vvvv: full websocket frames and raw payloads
)

// VerbosityToLevel maps a tier to the coarser zap level
func VerbosityToLevel(verbosity int) zapcore.Level {
	if verbosity <= VerbosityUser {
		return zapcore.WarnLevel
	}
	if verbosity == VerbosityInfo {
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}

// ShouldLogTrace gates per-tick and per-transition logging (-vvv)
func ShouldLogTrace(verbosity int) bool {
	return verbosity >= VerbosityTrace
}

// ShouldLogAll gates full message payload dumps (-vvvv)
func ShouldLogAll(verbosity int) bool {
	return verbosity >= VerbosityAll
}

// LevelName renders a tier for the startup banner
func LevelName(verbosity int) string {
	switch {
	case verbosity <= VerbosityUser:
		return "User"
	case verbosity == VerbosityInfo:
		return "Info (-v)"
	case verbosity == VerbosityDetail:
		return "Detail (-vv)"
	case verbosity == VerbosityTrace:
		return "Trace (-vvv)"
	default:
		return "All (-vvvv)"
	}
}
