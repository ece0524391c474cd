package grapherror

import (
	"errors"
	"testing"
	"time"
)

func TestErrorMessage(t *testing.T) {
	cases := map[string]struct {
		err  *GraphError
		want string
	}{
		"underlying error wins": {
			err:  &GraphError{Err: errors.New("spec decode failed"), UserMessage: "Please try again later"},
			want: "spec decode failed",
		},
		"user message when no underlying error": {
			err:  &GraphError{UserMessage: "Render failed"},
			want: "Render failed",
		},
		"empty when both are empty": {
			err:  &GraphError{},
			want: "",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("websocket closed")
	wrapped := New(CategoryWebSocket, cause, "Connection lost")

	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should see through GraphError to the cause")
	}
	if wrapped.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", wrapped.Unwrap(), cause)
	}

	if got := (&GraphError{}).Unwrap(); got != nil {
		t.Errorf("Unwrap() with no cause = %v, want nil", got)
	}
}

func TestNewInitializesAllFields(t *testing.T) {
	cause := errors.New("connection failed")
	err := New(CategoryWebSocket, cause, "Connection lost")

	if err.Category != CategoryWebSocket {
		t.Errorf("Category = %v, want %v", err.Category, CategoryWebSocket)
	}
	if err.Err != cause {
		t.Errorf("Err = %v, want %v", err.Err, cause)
	}
	if err.UserMessage != "Connection lost" {
		t.Errorf("UserMessage = %q", err.UserMessage)
	}
	if err.Context == nil || len(err.Context) != 0 {
		t.Errorf("Context should start as an empty map, got %v", err.Context)
	}
	if err.Timestamp.IsZero() || time.Since(err.Timestamp) > time.Second {
		t.Errorf("Timestamp should be set to roughly now, got %v", err.Timestamp)
	}

	// A nil cause is valid for user-facing errors with no Go error behind them
	if e := New(CategorySpec, nil, "Invalid spec payload"); e.Err != nil {
		t.Errorf("New with nil cause should keep Err nil, got %v", e.Err)
	}
}

func TestNewfFormatsCause(t *testing.T) {
	err := Newf(CategoryTransition, "Panel transition timed out",
		"transition did not complete: timeout after %dms", 1200)

	if err.Category != CategoryTransition {
		t.Errorf("Category = %v", err.Category)
	}
	if err.UserMessage != "Panel transition timed out" {
		t.Errorf("UserMessage = %q", err.UserMessage)
	}
	if err.Err == nil {
		t.Fatal("Newf should build an underlying error")
	}
	if got := err.Err.Error(); got != "transition did not complete: timeout after 1200ms" {
		t.Errorf("formatted cause = %q", got)
	}
	if err.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestBuilderChaining(t *testing.T) {
	err := New(CategoryExport, errors.New("png encode error"), "Export failed").
		WithSubcategory(SubcategoryExportEncode).
		WithContext("format", "png").
		WithContext("scale", 2).
		WithContextMap(map[string]interface{}{
			"width":  1600,
			"height": 1200,
		})

	if err.Subcategory != SubcategoryExportEncode {
		t.Errorf("Subcategory = %q, want %q", err.Subcategory, SubcategoryExportEncode)
	}

	want := map[string]interface{}{
		"format": "png",
		"scale":  2,
		"width":  1600,
		"height": 1200,
	}
	if len(err.Context) != len(want) {
		t.Fatalf("Context has %d entries, want %d: %v", len(err.Context), len(want), err.Context)
	}
	for k, v := range want {
		if err.Context[k] != v {
			t.Errorf("Context[%q] = %v, want %v", k, err.Context[k], v)
		}
	}
}

// Each With* method must return the receiver so call chains read naturally.
func TestBuildersReturnReceiver(t *testing.T) {
	err := New(CategorySurface, nil, "Surface missing")

	if err.WithSubcategory(SubcategorySurfaceMissingContainer) != err {
		t.Error("WithSubcategory should return the receiver")
	}
	if err.WithContext("surface_id", "inline-q42") != err {
		t.Error("WithContext should return the receiver")
	}
	if err.WithContextMap(map[string]interface{}{"panel": "detail"}) != err {
		t.Error("WithContextMap should return the receiver")
	}
}

// WithContext must tolerate a GraphError built as a bare literal, where the
// context map was never allocated.
func TestWithContextOnBareLiteral(t *testing.T) {
	err := (&GraphError{Category: CategoryLayout}).WithContext("nodes", 10)

	if err.Context["nodes"] != 10 {
		t.Errorf("Context[nodes] = %v, want 10", err.Context["nodes"])
	}
}

func TestCategoryPredicates(t *testing.T) {
	err := New(CategorySpec, nil, "Spec error").
		WithSubcategory(SubcategorySpecInvalidSyntax)

	if !err.IsCategory(CategorySpec) {
		t.Error("IsCategory should match the assigned category")
	}
	if err.IsCategory(CategoryLayout) {
		t.Error("IsCategory should reject other categories")
	}
	if !err.IsSubcategory(SubcategorySpecInvalidSyntax) {
		t.Error("IsSubcategory should match the assigned subcategory")
	}
	if err.IsSubcategory(SubcategorySpecEmptySpec) {
		t.Error("IsSubcategory should reject other subcategories")
	}

	bare := New(CategoryLayout, nil, "Layout error")
	if bare.IsSubcategory(SubcategoryLayoutInterrupted) {
		t.Error("IsSubcategory should be false when no subcategory is set")
	}
}
