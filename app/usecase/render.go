package usecase

import (
	"fmt"
	"strings"

	"novaengine/internal/domain/entity"
	"novaengine/internal/infrastructure/validator"
)

// RenderHuman converts an unwrapped { format, notes } output into
// task-specific prose so clients never need to understand the structured
// schema to show a result. Raw structured data is never echoed back.
func RenderHuman(task entity.Task, out map[string]any) string {
	if out == nil {
		return ""
	}

	format, _ := validator.AsMap(out["format"])
	notes := validator.Str(out, "notes")

	switch task {
	case entity.TaskMetaAdVariants:
		if format != nil {
			if variants, ok := validator.AsList(format["variants"]); ok && len(variants) > 0 {
				return renderMetaVariants(variants, notes)
			}
		}
	case entity.TaskImagePrompt:
		if text := renderImagePrompt(out, format, notes); text != "" {
			return text
		}
	case entity.TaskEmailPromo, entity.TaskEmailWelcome:
		if text := renderEmail(out, format, notes); text != "" {
			return text
		}
	}

	// Plain-text fallbacks shared by the natural-language tasks.
	if text := validator.Str(out, "text"); text != "" {
		return text
	}
	if format != nil {
		if text := validator.Str(format, "text"); text != "" {
			return text
		}
	}
	if notes != "" {
		return notes
	}
	return "Generated successfully."
}

func renderMetaVariants(variants []any, notes string) string {
	angles := make([]string, 0, len(variants))
	for i, v := range variants {
		vm, ok := validator.AsMap(v)
		if !ok {
			continue
		}
		angles = append(angles, fmt.Sprintf("#%d — %s", i+1, validator.Str(vm, "angle")))
	}

	sections := []string{fmt.Sprintf("Meta Ad Variants generated (%d).", len(variants))}
	if len(angles) > 0 {
		sections = append(sections, strings.Join(angles, "\n"))
	}
	if notes != "" {
		sections = append(sections, "Notes: "+notes)
	}
	return strings.Join(sections, "\n\n")
}

func renderImagePrompt(out, format map[string]any, notes string) string {
	prompt := firstStr(out, format, "prompt", "positive_prompt")
	negative := firstStr(out, format, "negative_prompt")
	ratio := firstStr(out, format, "ratio", "aspect_ratio")

	var sections []string
	if prompt != "" {
		sections = append(sections, "Prompt:\n"+prompt)
	}
	if negative != "" {
		sections = append(sections, "Negative:\n"+negative)
	}
	if ratio != "" {
		sections = append(sections, "Ratio: "+ratio)
	}
	if notes != "" {
		sections = append(sections, "Notes: "+notes)
	}
	return strings.Join(sections, "\n\n")
}

func renderEmail(out, format map[string]any, notes string) string {
	subject := firstStr(out, format, "subject")
	preview := firstStr(out, format, "preview_text", "preview")
	body := firstStr(out, format, "body", "email", "text")

	var sections []string
	if subject != "" {
		sections = append(sections, "Subject: "+subject)
	}
	if preview != "" {
		sections = append(sections, "Preview: "+preview)
	}
	if body != "" {
		sections = append(sections, "Email:\n"+body)
	}
	if notes != "" {
		sections = append(sections, "Notes: "+notes)
	}
	return strings.Join(sections, "\n\n")
}

// firstStr checks the unwrapped object first, then its format object.
func firstStr(out, format map[string]any, keys ...string) string {
	if s := validator.Str(out, keys...); s != "" {
		return s
	}
	if format != nil {
		return validator.Str(format, keys...)
	}
	return ""
}
