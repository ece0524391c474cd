package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide sugared logger. init installs a nop logger so
// packages may log before Initialize runs, but tests null it out between
// cases, so every forwarder still guards.
var Logger *zap.SugaredLogger

// JSONOutput records which mode Initialize selected
var JSONOutput bool

func init() {
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger at the default verbosity
func Initialize(jsonOutput bool) error {
	return InitializeWithVerbosity(jsonOutput, VerbosityInfo)
}

// InitializeWithVerbosity builds the global logger. JSON mode uses zap's
// production config on stderr, which keeps stdout clean for MCP stdio and
// raw-value commands. Console mode uses the minimal encoder on stdout.
func InitializeWithVerbosity(jsonOutput bool, verbosity int) error {
	JSONOutput = jsonOutput
	loadThemeFromEnv()

	core, err := buildCore(jsonOutput, VerbosityToLevel(verbosity))
	if err != nil {
		return err
	}
	Logger = core.Sugar()
	return nil
}

func buildCore(jsonOutput bool, level zapcore.Level) (*zap.Logger, error) {
	if jsonOutput {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		return config.Build()
	}
	return zap.New(zapcore.NewCore(
		newMinimalEncoder(),
		zapcore.AddSync(os.Stdout),
		level,
	)), nil
}

// loadThemeFromEnv applies QVIZ_LOG_THEME when present. Config-file themes
// are applied by main() via SetTheme after am loads, so the logger keeps no
// config dependency.
func loadThemeFromEnv() {
	if theme := os.Getenv("QVIZ_LOG_THEME"); theme != "" {
		SetTheme(theme)
	}
}

// Cleanup flushes buffered entries
func Cleanup() {
	if l := Logger; l != nil {
		l.Sync()
	}
}

// active returns the current logger or nil when logging is off
func active() *zap.SugaredLogger {
	return Logger
}

// Package-level shorthands, nil-safe.

func Info(args ...interface{}) {
	if l := active(); l != nil {
		l.Info(args...)
	}
}

func Warn(args ...interface{}) {
	if l := active(); l != nil {
		l.Warn(args...)
	}
}

func Error(args ...interface{}) {
	if l := active(); l != nil {
		l.Error(args...)
	}
}

func Debug(args ...interface{}) {
	if l := active(); l != nil {
		l.Debug(args...)
	}
}

func Infof(format string, args ...interface{}) {
	if l := active(); l != nil {
		l.Infof(format, args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if l := active(); l != nil {
		l.Warnf(format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if l := active(); l != nil {
		l.Errorf(format, args...)
	}
}

func Debugf(format string, args ...interface{}) {
	if l := active(); l != nil {
		l.Debugf(format, args...)
	}
}

func Infow(msg string, keysAndValues ...interface{}) {
	if l := active(); l != nil {
		l.Infow(msg, keysAndValues...)
	}
}

func Warnw(msg string, keysAndValues ...interface{}) {
	if l := active(); l != nil {
		l.Warnw(msg, keysAndValues...)
	}
}

func Errorw(msg string, keysAndValues ...interface{}) {
	if l := active(); l != nil {
		l.Errorw(msg, keysAndValues...)
	}
}

func Debugw(msg string, keysAndValues ...interface{}) {
	if l := active(); l != nil {
		l.Debugw(msg, keysAndValues...)
	}
}
