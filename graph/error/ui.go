package grapherror

import (
	"fmt"
	"sort"
	"time"
)

// ToUIMessage returns text safe to show in the console. Falls back to a
// per-category message when the error carries no custom one.
func (e *GraphError) ToUIMessage() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	switch e.Category {
	case CategorySpec:
		return "Invalid graph spec - please check the payload and try again"
	case CategoryLayout:
		return "Layout simulation failed - please reopen the graph"
	case CategorySurface:
		return "Display surface unavailable - the panel may not be mounted"
	case CategoryTransition:
		return "Panel transition did not complete - state has been reset"
	case CategoryExport:
		return "Export failed - please try again"
	case CategoryWebSocket:
		return "Connection error - attempting to reconnect..."
	case CategoryInternal:
		return "An internal error occurred - please try again"
	}
	return "An error occurred"
}

// ToSceneMeta projects the error into scene metadata so the error-state
// scene the client receives explains what went wrong.
func (e *GraphError) ToSceneMeta() map[string]string {
	meta := map[string]string{
		"error":       e.Error(),
		"category":    string(e.Category),
		"description": e.ToUIMessage(),
		"timestamp":   e.Timestamp.Format(time.RFC3339),
	}
	if e.Subcategory != "" {
		meta["subcategory"] = e.Subcategory
	}
	if len(e.Context) > 0 {
		meta["context"] = fmt.Sprintf("%v", e.Context)
	}
	return meta
}

// ToLogFields flattens the error into key-value pairs for logger.Errorw.
// Context keys are sorted so repeated failures produce identical lines.
func (e *GraphError) ToLogFields() []interface{} {
	fields := []interface{}{
		"error_category", e.Category,
		"error_message", e.Error(),
		"user_message", e.UserMessage,
	}
	if e.Subcategory != "" {
		fields = append(fields, "error_subcategory", e.Subcategory)
	}

	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, k, e.Context[k])
	}
	return fields
}

// IsCategory reports whether the error belongs to cat
func (e *GraphError) IsCategory(cat Category) bool {
	return e.Category == cat
}

// IsSubcategory reports whether the error carries subcategory sub
func (e *GraphError) IsSubcategory(sub string) bool {
	return e.Subcategory == sub
}
