package logger

import (
	"github.com/teranos/QVIZ/sym"
	"go.uber.org/zap"
)

// Symbol-aware logging helpers.
// These functions log with the symbol as a structured field, not in the message.
//
// Usage:
//
//	// Instead of:
//	logger.Infow(sym.Sim + " Simulation started", "nodes", n)
//
//	// Use:
//	logger.SimInfow("Simulation started", "nodes", n)
//
// This makes logs queryable by symbol and keeps messages clean.

// GraphInfow logs an info message with the Graph symbol (◉)
func GraphInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Graph}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// GraphDebugw logs a debug message with the Graph symbol (◉)
func GraphDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Graph}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// GraphWarnw logs a warning message with the Graph symbol (◉)
func GraphWarnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Graph}, keysAndValues...)
		Logger.Warnw(msg, fields...)
	}
}

// SimInfow logs an info message with the Sim symbol (∿)
func SimInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Sim}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// SimDebugw logs a debug message with the Sim symbol (∿)
func SimDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Sim}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// SimWarnw logs a warning message with the Sim symbol (∿)
func SimWarnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Sim}, keysAndValues...)
		Logger.Warnw(msg, fields...)
	}
}

// SceneInfow logs an info message with the Scene symbol (❖)
func SceneInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Scene}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// SceneDebugw logs a debug message with the Scene symbol (❖)
func SceneDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Scene}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// PanelInfow logs an info message with the Panel symbol (◫)
// Used for display mode transitions
func PanelInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Panel}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// PanelDebugw logs a debug message with the Panel symbol (◫)
func PanelDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Panel}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// PanelWarnw logs a warning message with the Panel symbol (◫)
func PanelWarnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Panel}, keysAndValues...)
		Logger.Warnw(msg, fields...)
	}
}

// ExportInfow logs an info message with the Export symbol (⇲)
func ExportInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Export}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// LiveInfow logs an info message with the Live symbol (⇅)
// Used for websocket transport events
func LiveInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Live}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// LiveDebugw logs a debug message with the Live symbol (⇅)
func LiveDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.Live}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// DBInfow logs an info message with the DB symbol (⊔)
// Used for database/storage operations
func DBInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.DB}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// DBDebugw logs a debug message with the DB symbol (⊔)
func DBDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, sym.DB}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// WithSymbol returns a logger with the given symbol as a field.
// For ad-hoc symbol usage not covered by the helpers above.
//
// Example:
//
//	symbolLogger := logger.WithSymbol(sym.AM)
//	symbolLogger.Infow("Config reloaded", "path", path)
func WithSymbol(symbol string) *zap.SugaredLogger {
	return Logger.With(FieldSymbol, symbol)
}

// SymbolInfow logs with any symbol - for dynamic symbol usage
func SymbolInfow(symbol, msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, symbol}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// ============================================================================
// Instance logger wrappers
// ============================================================================
// These functions wrap any logger with a symbol field, useful when you have
// an instance logger (e.g., s.logger, m.logger) rather than using the global Logger.
//
// Usage:
//
//	// At initialization:
//	type Simulation struct {
//	    simLog *zap.SugaredLogger
//	}
//	s.simLog = logger.AddSimSymbol(baseLogger)
//
//	// Or inline:
//	logger.AddSimSymbol(s.logger).Infow("Tick loop started", "interval", interval)

// AddGraphSymbol wraps a logger with the Graph symbol (◉)
func AddGraphSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Graph)
}

// AddSimSymbol wraps a logger with the Sim symbol (∿)
func AddSimSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Sim)
}

// AddSceneSymbol wraps a logger with the Scene symbol (❖)
func AddSceneSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Scene)
}

// AddPanelSymbol wraps a logger with the Panel symbol (◫)
func AddPanelSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Panel)
}

// AddExportSymbol wraps a logger with the Export symbol (⇲)
func AddExportSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Export)
}

// AddLiveSymbol wraps a logger with the Live symbol (⇅)
func AddLiveSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Live)
}

// AddDBSymbol wraps a logger with the DB symbol (⊔)
func AddDBSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.DB)
}
