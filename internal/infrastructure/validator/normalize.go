package validator

import "strings"

// DefaultNotes fills output.notes when the backend returned none.
const DefaultNotes = "Generated based on your input and constraints."

// Normalize coerces backend output into the canonical
// { output: { format: <task object>, notes: <string> } } shape. The backend
// is not contractually reliable about nesting, so the tolerated alternate
// locations are enumerated explicitly:
//
//	output.format            (already canonical)
//	<task>.output.format     (answer wrapped under the task name)
//	output.<task>            (task object where format belongs)
//	output.text              (natural-language fallback wrap)
//
// Alternate keys are deleted afterwards so stored jobs stay canonical.
// Normalize is idempotent and returns parsed unchanged when it is nil.
func Normalize(task string, parsed map[string]any) map[string]any {
	if parsed == nil {
		return nil
	}

	output, ok := AsMap(parsed["output"])
	if !ok {
		output = map[string]any{}
		parsed["output"] = output
	}

	if _, ok := AsMap(output["format"]); !ok {
		if alt, ok := digMap(parsed, task, "output", "format"); ok {
			output["format"] = alt
		} else if alt, ok := AsMap(output[task]); ok {
			output["format"] = alt
		} else if text, ok := output["text"].(string); ok && strings.TrimSpace(text) != "" {
			output["format"] = map[string]any{"text": strings.TrimSpace(text)}
			delete(output, "text")
		}
	}

	notes := normalizeNotes(output["notes"])
	if notes == "" {
		if alt, ok := digMap(parsed, task, "output"); ok {
			notes = normalizeNotes(alt["notes"])
		}
	}
	if notes == "" {
		notes = normalizeNotes(parsed["notes"])
	}
	if notes == "" {
		notes = DefaultNotes
	}
	output["notes"] = notes

	delete(parsed, task)
	delete(parsed, "notes")
	delete(output, task)

	return parsed
}

// normalizeNotes collapses notes rendered as a string or a list of
// strings into one trimmed string.
func normalizeNotes(v any) string {
	switch {
	case v == nil:
		return ""
	default:
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
		if list, ok := AsList(v); ok {
			parts := make([]string, 0, len(list))
			for _, item := range list {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					parts = append(parts, strings.TrimSpace(s))
				}
			}
			return strings.Join(parts, " ")
		}
		return ""
	}
}

// Unwrap flattens a canonical (or near-canonical stored) payload to the
// caller-facing { format, notes } object.
func Unwrap(task string, parsed map[string]any) map[string]any {
	if parsed == nil {
		return nil
	}
	if out, ok := AsMap(parsed["output"]); ok {
		if _, ok := AsMap(out["format"]); ok {
			return out
		}
		if inner, ok := AsMap(out["output"]); ok {
			if _, ok := AsMap(inner["format"]); ok {
				return inner
			}
		}
	}
	if out, ok := digMap(parsed, task, "output"); ok {
		if _, ok := AsMap(out["format"]); ok {
			return out
		}
	}
	if out, ok := AsMap(parsed["output"]); ok {
		return out
	}
	return parsed
}
