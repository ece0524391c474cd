package logger

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"github.com/teranos/QVIZ/sym"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// theme bundles every ANSI role the encoder paints with. Both palettes
// fill the same roles so the encoder never branches on the theme name.
type theme struct {
	fg        string   // base message text
	time      string   // timestamp prefix
	id        string   // session/client/slug values and [session:x] brackets
	number    string   // counts, ticks, durations
	symbol    string   // subsystem glyphs
	stage     string   // [stage] bracket markers
	warn      string
	warnBg    string
	err       string
	errBg     string
	component []string // rotation for logger names, indexed by name hash
}

// Gruvbox Dark: warm, muted, easy on eyes
var gruvboxTheme = theme{
	fg:     "\x1b[38;5;223m", // soft cream (#ebdbb2)
	time:   "\x1b[38;5;108m", // muted cyan-green (#8ec07c)
	id:     "\x1b[38;5;109m", // soft blue (#83a598)
	number: "\x1b[38;5;175m", // muted purple (#d3869b)
	symbol: "\x1b[38;5;142m", // muted green (#b8bb26)
	stage:  "\x1b[38;5;208m", // warm orange (#fe8019)
	warn:   "\x1b[38;5;214m", // soft yellow (#fabd2f)
	warnBg: "\x1b[48;5;58m",
	err:    "\x1b[38;5;167m", // warm red (#fb4934)
	errBg:  "\x1b[48;5;88m",
	component: []string{
		"\x1b[38;5;208m", // orange
		"\x1b[38;5;214m", // yellow
	},
}

// Everforest Dark: natural forest greens with a strong green presence
var everforestTheme = theme{
	fg:     "\x1b[38;5;223m", // soft beige (#d3c6aa)
	time:   "\x1b[38;5;107m", // mid green (#83c092)
	id:     "\x1b[38;5;109m", // blue-green (#7fbbb3)
	number: "\x1b[38;5;108m", // bright green (#a7c080)
	symbol: "\x1b[38;5;108m",
	stage:  "\x1b[38;5;208m", // autumn orange (#e69875)
	warn:   "\x1b[38;5;179m", // soft yellow (#dbbc7f)
	warnBg: "\x1b[48;5;58m",
	err:    "\x1b[38;5;167m", // warm red (#e67e80)
	errBg:  "\x1b[48;5;52m",
	component: []string{
		"\x1b[38;5;108m", // bright green
		"\x1b[38;5;65m",  // deep green
		"\x1b[38;5;208m", // orange
	},
}

// currentTheme names the active palette; set by Initialize or am config
var currentTheme = "everforest"

// SetTheme selects a palette by name; unknown names are ignored
func SetTheme(name string) {
	if name == "everforest" || name == "gruvbox" {
		currentTheme = name
	}
}

func activeTheme() *theme {
	if currentTheme == "gruvbox" {
		return &gruvboxTheme
	}
	return &everforestTheme
}

func colorTime() string   { return activeTheme().time }
func colorNumber() string { return activeTheme().number }

// colorComponent picks a stable rotation color per logger name so every
// line from one component lands in the same hue.
func colorComponent(name string) string {
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	rotation := activeTheme().component
	return rotation[hash%len(rotation)]
}

// bracketPattern matches context markers like [session:a1b2] or [opening]
var bracketPattern = regexp.MustCompile(`\[([^\]]+)\]`)

// colorizeMessage paints bracketed contexts, subsystem glyphs, and base
// text without altering the visible characters.
func colorizeMessage(msg string) string {
	th := activeTheme()

	var result strings.Builder
	lastIndex := 0
	for _, match := range bracketPattern.FindAllStringSubmatchIndex(msg, -1) {
		if before := msg[lastIndex:match[0]]; before != "" {
			result.WriteString(th.fg)
			result.WriteString(colorizeSymbols(before, th.symbol))
			result.WriteString(colorReset)
		}

		// Session/client brackets take the ID color, stage markers the
		// stage color
		content := msg[match[2]:match[3]]
		bracketColor := th.stage
		if strings.HasPrefix(content, "session:") || strings.HasPrefix(content, "client:") {
			bracketColor = th.id
		}
		result.WriteString(bracketColor)
		result.WriteString(msg[match[0]:match[1]])
		result.WriteString(colorReset)

		lastIndex = match[1]
	}

	if rest := msg[lastIndex:]; rest != "" {
		result.WriteString(th.fg)
		result.WriteString(colorizeSymbols(rest, th.symbol))
		result.WriteString(colorReset)
	}
	return result.String()
}

// colorizeSymbols wraps registered subsystem glyphs in symbolColor
func colorizeSymbols(text, symbolColor string) string {
	for _, glyph := range sym.PaletteOrder {
		if strings.Contains(text, glyph) {
			text = strings.ReplaceAll(text, glyph, symbolColor+glyph+colorReset)
		}
	}
	return text
}

// minimalEncoder renders one calm line per entry:
//
//	13:04:35  v.session  Panel opened  a1b2c3d4 (19 nodes, 12 links)
type minimalEncoder struct {
	zapcore.Encoder // base encoder satisfies field serialization
	buf             *buffer.Buffer
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		buf:     buffer.NewPool().Get(),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{
		Encoder: enc.Encoder.Clone(),
		buf:     buffer.NewPool().Get(),
	}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := buffer.NewPool().Get()

	final.AppendString(colorTime())
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Levels stay invisible at info; WARN and up get a badge
	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelBadge(ent.Level))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorComponent(ent.LoggerName))
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(colorizeMessage(ent.Message))

	if len(fields) > 0 {
		final.AppendString("  ")
		final.AppendString(renderFields(fields))
	}

	final.AppendString("\n")
	return final, nil
}

// levelBadge renders WARN/ERROR bold on a colored background
func levelBadge(level zapcore.Level) string {
	th := activeTheme()
	switch level {
	case zapcore.WarnLevel:
		return colorBold + th.warnBg + th.warn + "WARN" + colorReset
	case zapcore.ErrorLevel:
		return colorBold + th.errBg + th.err + "ERROR" + colorReset
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return colorBold + th.errBg + th.err + level.CapitalString() + colorReset
	default:
		return ""
	}
}

// abbreviateName shortens component names: server -> server, layout.sim -> l.sim
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// fieldValue renders one zap field value as plain text
func fieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type,
		zapcore.UintptrType:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.BoolType:
		if field.Integer == 1 {
			return "true"
		}
		return "false"
	case zapcore.Float64Type:
		return strconv.FormatFloat(math.Float64frombits(uint64(field.Integer)), 'g', -1, 64)
	case zapcore.Float32Type:
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(field.Integer))), 'g', -1, 32)
	case zapcore.DurationType:
		return time.Duration(field.Integer).String()
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok {
			return err.Error()
		}
		return ""
	}
	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface)
	}
	return ""
}

// renderFields formats structured fields compactly. Well-known field names
// get special treatment; everything else falls through as key=value so no
// field is ever silently discarded.
//
//	{"session_id": "s_123", "nodes": 19, "links": 12}
//	-> "s_123 (19 nodes, 12 links)"
func renderFields(fields []zapcore.Field) string {
	th := activeTheme()
	var values []string
	var nodeCount, linkCount string

	for _, field := range fields {
		switch field.Key {
		case FieldSessionID, FieldClientID, FieldSlug:
			if val := fieldValue(field); val != "" {
				values = append(values, th.id+val+colorReset)
			}
		case FieldNodes:
			nodeCount = fieldValue(field)
		case FieldLinks:
			linkCount = fieldValue(field)
		case FieldTicks:
			if val := fieldValue(field); val != "" {
				values = append(values, th.number+val+colorReset+" ticks")
			}
		case FieldDurationMS:
			if val := fieldValue(field); val != "" {
				values = append(values, th.number+val+colorReset+"ms")
			}
		default:
			if val := fieldValue(field); val != "" {
				values = append(values, th.fg+field.Key+"="+colorReset+val)
			}
		}
	}

	// Graph stats collapse into one parenthetical
	switch {
	case nodeCount != "" && linkCount != "":
		values = append(values, th.fg+"("+th.number+nodeCount+colorReset+th.fg+" nodes, "+th.number+linkCount+colorReset+th.fg+" links)"+colorReset)
	case nodeCount != "":
		values = append(values, th.number+nodeCount+colorReset+" nodes")
	case linkCount != "":
		values = append(values, th.number+linkCount+colorReset+" links")
	}

	return strings.Join(values, " ")
}
