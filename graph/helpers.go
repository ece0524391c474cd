package graph

import "strings"

// idRune reports whether r may appear in a normalized node ID
func idRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	}
	return false
}

// normalizeNodeID lowercases an ID and replaces everything outside
// [a-z0-9_-] with underscores. Normalized IDs are stable lookup keys and
// valid in SVG element references. "Orders@DB" becomes "orders_db".
func normalizeNodeID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range strings.ToLower(id) {
		if idRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
