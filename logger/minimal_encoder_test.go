package logger

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stripANSI removes ANSI color codes from a string for testing
func stripANSI(str string) string {
	ansiRegex := regexp.MustCompile(`\x1b\[[0-9;]*m`)
	return ansiRegex.ReplaceAllString(str, "")
}

// TestMinimalEncoderNeverDiscardsFields ensures the minimal encoder NEVER
// silently discards log fields. Unknown keys must fall through as key=value.
func TestMinimalEncoderNeverDiscardsFields(t *testing.T) {
	encoder := newMinimalEncoder()

	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Now(),
		LoggerName: "test",
		Message:    "Testing field preservation",
	}

	// Test fields that MUST appear in output
	testFields := []struct {
		field    zapcore.Field
		mustFind string // What we must find in the output
	}{
		{zap.String("type", "agent"), "type=agent"},
		{zap.String("label", "Agent Node"), "label=Agent Node"},
		{zap.String("color", "#FF0000"), "color=#FF0000"},
		{zap.Bool("pinned", true), "pinned=true"},
		{zap.Float64("opacity", 0.8), "opacity=0.8"},
		{zap.Strings("hidden_types", []string{"service", "datastore"}), "hidden_types"},

		// Random field names that should NEVER be dropped
		{zap.String("random_field_xyz", "important_data"), "random_field_xyz=important_data"},
		{zap.Int("critical_count", 999), "critical_count=999"},
		{zap.String("user_action", "close_panel"), "user_action=close_panel"},
		{zap.String("error_details", "nil surface handle"), "error_details=nil surface handle"},

		// Fields with underscores and dots (edge cases)
		{zap.String("field_with_underscores", "test"), "field_with_underscores=test"},
		{zap.String("field.with.dots", "test2"), "field.with.dots=test2"},

		// Numeric fields
		{zap.Int32("int32_field", 42), "int32_field=42"},
		{zap.Int64("int64_field", 9999999), "int64_field=9999999"},
		{zap.Float32("float32_field", 3.14), "float32_field=3.14"},

		// Boolean fields
		{zap.Bool("success", false), "success=false"},

		// Error fields
		{zap.Error(nil), ""}, // nil error shouldn't crash
		{zap.String("error", "something went wrong"), "error=something went wrong"},

		// Fields with special compact formatting (value appears without key=)
		{zap.String(FieldSessionID, "s_abc123"), "s_abc123"},
		{zap.Int(FieldNodes, 10), "10"},
		{zap.Int(FieldLinks, 5), "5"},
	}

	var allFields []zapcore.Field
	for _, tf := range testFields {
		allFields = append(allFields, tf.field)
	}

	buf, err := encoder.EncodeEntry(entry, allFields)
	if err != nil {
		t.Fatalf("Failed to encode entry: %v", err)
	}

	output := buf.String()
	// Strip ANSI color codes for testing
	cleanOutput := stripANSI(output)

	missingFields := []string{}
	for _, tf := range testFields {
		if tf.mustFind != "" && !strings.Contains(cleanOutput, tf.mustFind) {
			missingFields = append(missingFields, tf.mustFind)
			t.Errorf("Field was silently discarded from log output: %s", tf.mustFind)
		}
	}

	if len(missingFields) > 0 {
		t.Fatalf("Logger is silently discarding %d fields! Missing: %v\nClean output was: %s\nRaw output was: %s",
			len(missingFields), missingFields, cleanOutput, output)
	}
}

// TestMinimalEncoderFieldCount ensures that the NUMBER of fields in equals
// the number of fields that appear in the output (minus special formatting)
func TestMinimalEncoderFieldCount(t *testing.T) {
	encoder := newMinimalEncoder()

	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Now(),
		LoggerName: "test",
		Message:    "Field count test",
	}

	// Add exactly 10 unique fields
	fields := []zapcore.Field{
		zap.String("field1", "value1"),
		zap.String("field2", "value2"),
		zap.String("field3", "value3"),
		zap.String("field4", "value4"),
		zap.String("field5", "value5"),
		zap.Int("field6", 6),
		zap.Int("field7", 7),
		zap.Bool("field8", true),
		zap.Float64("field9", 9.9),
		zap.String("field10", "value10"),
	}

	buf, err := encoder.EncodeEntry(entry, fields)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}

	output := buf.String()

	// Count how many field assignments appear (looking for = sign)
	// Each field should produce a "key=value" pattern
	fieldCount := strings.Count(output, "field1=") +
		strings.Count(output, "field2=") +
		strings.Count(output, "field3=") +
		strings.Count(output, "field4=") +
		strings.Count(output, "field5=") +
		strings.Count(output, "field6=") +
		strings.Count(output, "field7=") +
		strings.Count(output, "field8=") +
		strings.Count(output, "field9=") +
		strings.Count(output, "field10=")

	if fieldCount != 10 {
		t.Errorf("Expected 10 fields in output, but found %d. Output: %s", fieldCount, output)
	}
}

// TestSessionRenderLogging covers the log shape the session emits on every
// render: session ID, graph stats, and timing, all compactly formatted.
func TestSessionRenderLogging(t *testing.T) {
	encoder := newMinimalEncoder()

	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Now(),
		LoggerName: "viz.session",
		Message:    "Scene rendered",
	}

	fields := []zapcore.Field{
		zap.String(FieldSessionID, "s_9fk2"),
		zap.Int(FieldNodes, 19),
		zap.Int(FieldLinks, 12),
		zap.Int64(FieldDurationMS, 42),
	}

	buf, err := encoder.EncodeEntry(entry, fields)
	if err != nil {
		t.Fatalf("Failed to encode session render log: %v", err)
	}

	cleanOutput := stripANSI(buf.String())

	// Session ID appears bare, without a key= prefix
	if !strings.Contains(cleanOutput, "s_9fk2") {
		t.Errorf("Session ID missing from output: %s", cleanOutput)
	}
	if strings.Contains(cleanOutput, "session_id=") {
		t.Errorf("Session ID should use compact formatting, not key=value: %s", cleanOutput)
	}

	// Graph stats collapse into a single parenthesized pair
	if !strings.Contains(cleanOutput, "(19 nodes, 12 links)") {
		t.Errorf("Graph stats missing compact format: %s", cleanOutput)
	}

	// Duration gets the ms suffix
	if !strings.Contains(cleanOutput, "42ms") {
		t.Errorf("Duration missing ms format: %s", cleanOutput)
	}

	// Component name is abbreviated
	if !strings.Contains(cleanOutput, "v.session") {
		t.Errorf("Component name not abbreviated: %s", cleanOutput)
	}
}

// TestUnknownFieldTypes tests that the encoder handles all possible field types
// without crashing or silently dropping them
func TestUnknownFieldTypes(t *testing.T) {
	encoder := newMinimalEncoder()

	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Now(),
		LoggerName: "test",
		Message:    "Testing unknown field types",
	}

	// Test various field types including complex ones
	fields := []zapcore.Field{
		zap.Complex128("complex", complex(1.0, 2.0)),
		zap.Complex64("complex64", complex64(complex(3.0, 4.0))),
		zap.Duration("duration", 5*time.Second),
		zap.Time("timestamp", time.Now()),
		zap.Uint("uint", 100),
		zap.Uint8("uint8", 200),
		zap.Uint16("uint16", 30000),
		zap.Uint32("uint32", 4000000),
		zap.Uint64("uint64", 5000000000),
		zap.Uintptr("uintptr", 0xDEADBEEF),
		zap.ByteString("bytes", []byte("hello world")),
		zap.Binary("binary", []byte{0x01, 0x02, 0x03}),
	}

	buf, err := encoder.EncodeEntry(entry, fields)
	if err != nil {
		t.Fatalf("Failed to encode complex types: %v", err)
	}

	output := buf.String()
	cleanOutput := stripANSI(output)

	// Verify that SOME representation of each field appears
	// We don't care about exact formatting, just that it's not silently dropped
	expectedSubstrings := []string{
		"complex",
		"complex64",
		"duration",
		"timestamp",
		"uint",
		"bytes",
		"binary",
	}

	for _, expected := range expectedSubstrings {
		if !strings.Contains(cleanOutput, expected) {
			t.Errorf("Field with key '%s' was completely dropped from output: %s", expected, cleanOutput)
		}
	}
}

// TestEncodeEntryFormat checks the overall line shape:
// time, abbreviated component, message, newline.
func TestEncodeEntryFormat(t *testing.T) {
	encoder := newMinimalEncoder()

	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Date(2026, 1, 2, 13, 4, 35, 0, time.UTC),
		LoggerName: "layout.sim",
		Message:    "Settle complete",
	}

	buf, err := encoder.EncodeEntry(entry, nil)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}

	cleanOutput := stripANSI(buf.String())

	if !strings.HasPrefix(cleanOutput, "13:04:35") {
		t.Errorf("Output should start with HH:MM:SS time, got: %s", cleanOutput)
	}
	if !strings.Contains(cleanOutput, "l.sim") {
		t.Errorf("Component name should be abbreviated to l.sim, got: %s", cleanOutput)
	}
	if !strings.Contains(cleanOutput, "Settle complete") {
		t.Errorf("Message missing from output: %s", cleanOutput)
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("Output should end with newline")
	}
}

// TestLevelIndicatorOnlyForWarnAndError verifies INFO lines stay calm
// while WARN/ERROR get a visible level marker.
func TestLevelIndicatorOnlyForWarnAndError(t *testing.T) {
	encoder := newMinimalEncoder()

	encode := func(level zapcore.Level) string {
		entry := zapcore.Entry{
			Level:      level,
			Time:       time.Now(),
			LoggerName: "server",
			Message:    "test message",
		}
		buf, err := encoder.EncodeEntry(entry, nil)
		if err != nil {
			t.Fatalf("Failed to encode %v entry: %v", level, err)
		}
		return stripANSI(buf.String())
	}

	if out := encode(zapcore.InfoLevel); strings.Contains(out, "INFO") {
		t.Errorf("INFO level should not appear in output: %s", out)
	}
	if out := encode(zapcore.WarnLevel); !strings.Contains(out, "WARN") {
		t.Errorf("WARN marker missing: %s", out)
	}
	if out := encode(zapcore.ErrorLevel); !strings.Contains(out, "ERROR") {
		t.Errorf("ERROR marker missing: %s", out)
	}
}

func TestAbbreviateName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"server", "server"},
		{"graph", "graph"},
		{"layout.sim", "l.sim"},
		{"viz.session", "v.session"},
		{"server.client.pump", "s.client.pump"},
	}

	for _, tt := range tests {
		if got := abbreviateName(tt.name); got != tt.want {
			t.Errorf("abbreviateName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

// TestColorizeMessagePreservesText ensures colorization only adds ANSI codes
// and never alters the visible message content.
func TestColorizeMessagePreservesText(t *testing.T) {
	messages := []string{
		"plain message",
		"[session:s_abc] panel opened",
		"[client:127.0.0.1] connected",
		"[opening] transition started",
		"◉ graph loaded with 12 nodes",
		"∿ settle complete [session:x] ⇲ export ready",
	}

	for _, msg := range messages {
		colorized := colorizeMessage(msg)
		if stripANSI(colorized) != msg {
			t.Errorf("colorizeMessage altered visible text:\n  in:  %q\n  out: %q", msg, stripANSI(colorized))
		}
	}
}

func TestThemeSwitchingChangesColors(t *testing.T) {
	original := currentTheme
	defer SetTheme(original)

	SetTheme("everforest")
	everforestTime := colorTime()
	everforestNumber := colorNumber()

	SetTheme("gruvbox")
	gruvboxTime := colorTime()
	gruvboxNumber := colorNumber()

	if everforestTime == gruvboxTime {
		t.Error("Themes should use different time colors")
	}
	if everforestNumber == gruvboxNumber {
		t.Error("Themes should use different number colors")
	}
}

func TestCloneProducesWorkingEncoder(t *testing.T) {
	encoder := newMinimalEncoder()
	clone := encoder.Clone()

	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Now(),
		LoggerName: "test",
		Message:    "clone test",
	}

	buf, err := clone.EncodeEntry(entry, []zapcore.Field{zap.String("key", "value")})
	if err != nil {
		t.Fatalf("Cloned encoder failed to encode: %v", err)
	}
	if !strings.Contains(stripANSI(buf.String()), "clone test") {
		t.Errorf("Cloned encoder lost message: %s", buf.String())
	}
}
