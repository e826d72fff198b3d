package validator

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stored job outputs come back from the document store as primitive.M /
// primitive.A rather than plain maps and slices, so every lookup goes
// through these coercions. Fresh gateway output is plain encoding/json
// maps; both spellings are accepted everywhere.

// AsMap coerces v into a map[string]any when it is any map-shaped value.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case primitive.M:
		return map[string]any(m), true
	default:
		return nil, false
	}
}

// AsList coerces v into a []any when it is any list-shaped value.
func AsList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case primitive.A:
		return []any(l), true
	default:
		return nil, false
	}
}

// Str returns the first non-empty trimmed string found at the given keys.
func Str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			if t := strings.TrimSpace(s); t != "" {
				return t
			}
		}
	}
	return ""
}

// dig walks a key path through nested maps, returning nil when any hop
// is missing or not map-shaped.
func dig(m map[string]any, path ...string) any {
	var cur any = m
	for _, k := range path {
		cm, ok := AsMap(cur)
		if !ok {
			return nil
		}
		cur = cm[k]
	}
	return cur
}

func digMap(m map[string]any, path ...string) (map[string]any, bool) {
	return AsMap(dig(m, path...))
}
