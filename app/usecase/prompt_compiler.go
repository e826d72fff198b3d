package usecase

import (
	"fmt"
	"strings"

	"novaengine/internal/domain/entity"
	"novaengine/internal/infrastructure/validator"
)

// maxTokensByTask caps response length per task so longer formats (plans,
// emails) are not truncated while cost stays bounded.
var maxTokensByTask = map[entity.Task]int{
	entity.TaskMetaAdVariants: 500,
	entity.TaskEmailPromo:     900,
	entity.TaskEmailWelcome:   900,
	entity.TaskCampaignPlan:   1200,
	entity.TaskCreativeBrief:  900,
	entity.TaskAngleBank:      600,
}

const defaultMaxTokens = 800

const systemIdentity = `You are Nova, an AI marketing assistant for direct-response brands.

Ground rules:
- Never invent pricing, geography, materials, certifications, guarantees or statistics.
- Never emit unfilled placeholders such as [BRAND] or <insert here>.
- Respect the brand tones, audience and allowed claims in the brand context.
- Never use the forbidden wording; lean on the preferred wording.
- Be specific, conversion-focused, and ready to use as-is.`

const strictDirective = `Output ONLY valid JSON. No markdown, no commentary, no prose outside the JSON object.`

const naturalDirective = `Output only natural language. Never output JSON, code fences, bullet syntax markers, or any other structured-looking text.`

// metaAdsShapeTemplate is the literal shape for the one strict task.
const metaAdsShapeTemplate = `Return EXACTLY this JSON shape, with 5 variants:

{
  "output": {
    "format": {
      "variants": [
        { "primary_text": "...", "headline": "...", "description": "...", "cta": "...", "angle": "..." },
        { "primary_text": "...", "headline": "...", "description": "...", "cta": "...", "angle": "..." },
        { "primary_text": "...", "headline": "...", "description": "...", "cta": "...", "angle": "..." },
        { "primary_text": "...", "headline": "...", "description": "...", "cta": "...", "angle": "..." },
        { "primary_text": "...", "headline": "...", "description": "...", "cta": "...", "angle": "..." }
      ]
    },
    "notes": "..."
  }
}

Rules:
- every field must be a non-empty string
- notes must be a STRING (max 2 sentences)
- ready to paste into Meta Ads`

// naturalHints are human-readable structural hints for the
// natural-language tasks.
var naturalHints = map[entity.Task]string{
	entity.TaskTikTokScript:       "A hook line, a beat-by-beat spoken script, on-screen text suggestions, and a closing CTA.",
	entity.TaskGoogleAds:          "10 short headlines (max 30 characters each) and 4 descriptions (max 90 characters each).",
	entity.TaskEmailPromo:         "A subject line, a preview line, the full email body, and a CTA.",
	entity.TaskEmailWelcome:       "A subject line, a preview line, the full email body, and a CTA.",
	entity.TaskLandingPageSection: "A hero headline, a subheadline, 5 benefit bullets, and a short FAQ with question/answer pairs.",
	entity.TaskCampaignPlan:       "An objective, a big idea, 6 angles, 6 creative concepts, a 3-step funnel, audience suggestions, a prospecting/retargeting budget split, a timeline in days, and KPIs.",
	entity.TaskAngleBank:          "10 marketing angles, each with an angle name, the underlying insight, 3 hook examples, and 3 CTA examples.",
	entity.TaskCreativeBrief:      "A concept, 5 visual directions, layout notes, 3 copy-on-image lines, and 3 things not to do.",
	entity.TaskImagePrompt:        "A generation prompt, a negative prompt, an aspect ratio (1:1, 4:5 or 16:9), optional text overlay lines, and a color palette drawn from the brand colors.",
}

// CompilePrompt builds the three prompt artifacts for one generation
// attempt. Brand context is woven into the system instructions; missing
// brand fields are rendered explicitly so the backend never infers intent
// from absence. Only the reusable raw records of the examples are
// forwarded, never retrieval scores or corpus metadata.
func CompilePrompt(task entity.Task, kit *entity.BrandKit, input, constraints map[string]any, examples []*entity.SyntheticExample) entity.CompiledPrompt {
	strict := validator.SchemaFor(task).Strict

	directive := naturalDirective
	if strict {
		directive = strictDirective
	}

	system := strings.Join([]string{
		systemIdentity,
		directive,
		brandContextBlock(kit),
	}, "\n\n")

	user := map[string]any{
		"task":              string(task),
		"input":             sanitizePayload(input),
		"constraints":       sanitizePayload(constraints),
		"few_shot_examples": exampleRecords(examples),
	}
	if strict {
		user["required_response_shape"] = map[string]any{
			"output": map[string]any{
				"format": "task-specific object (match schema)",
				"notes":  "max 2 sentences",
			},
		}
	}

	return entity.CompiledPrompt{
		System:         system,
		User:           user,
		SchemaReminder: schemaReminder(task, strict),
		Strict:         strict,
	}
}

// CompileRepairPrompt builds the single bounded repair round trip. The
// invalid prior output rides along as negative context.
func CompileRepairPrompt(task entity.Task, kit *entity.BrandKit, input, constraints map[string]any, examples []*entity.SyntheticExample, invalid map[string]any) entity.CompiledPrompt {
	prompt := CompilePrompt(task, kit, input, constraints, examples)
	prompt.System = strings.Join([]string{
		prompt.System,
		fmt.Sprintf("You are fixing a %s response that did not match the required schema. Regenerate from scratch using the brand context, input and constraints. Fix this; match the schema exactly. Do not invent product facts.", task),
	}, "\n\n")
	prompt.User["previous_invalid_output"] = invalid
	return prompt
}

// OptionsFor tunes the first attempt: structured tasks run warmer so the
// five variants diverge, natural tasks run tighter.
func OptionsFor(task entity.Task) entity.GenerationOptions {
	strict := validator.SchemaFor(task).Strict
	temperature := 0.4
	if strict {
		temperature = 0.6
	}
	return entity.GenerationOptions{
		Temperature: temperature,
		MaxTokens:   maxTokensFor(task),
		Structured:  strict,
	}
}

// RepairOptions runs the repair pass cold.
func RepairOptions(task entity.Task) entity.GenerationOptions {
	return entity.GenerationOptions{
		Temperature: 0.2,
		MaxTokens:   maxTokensFor(task),
		Structured:  true,
	}
}

func maxTokensFor(task entity.Task) int {
	if n, ok := maxTokensByTask[task]; ok {
		return n
	}
	return defaultMaxTokens
}

func schemaReminder(task entity.Task, strict bool) string {
	if strict {
		return metaAdsShapeTemplate
	}
	hint := naturalHints[task]
	if hint == "" {
		hint = "A short, well-structured piece of copy for the requested task."
	}
	return fmt.Sprintf("Structure the %s answer as: %s", task, hint)
}

func brandContextBlock(kit *entity.BrandKit) string {
	lines := []string{
		"Brand context:",
		brandLine("business name", kit.BusinessName),
		brandLine("niche", kit.Niche),
		brandLine("tagline", kit.Tagline),
		brandLine("tones", strings.Join(kit.Tones, ", ")),
		brandLine("audience", kit.Audience),
		brandLine("offer", kit.Offer),
		brandLine("unique selling points", strings.Join(kit.USPs, "; ")),
		brandLine("allowed claims", strings.Join(kit.ClaimsAllowed, "; ")),
		brandLine("preferred wording", kit.WordsToUse),
		brandLine("forbidden wording", kit.WordsToAvoid),
		brandLine("brand colors", strings.Join(kit.Colors, ", ")),
		brandLine("style notes", kit.StyleNotes),
		brandLine("target platforms", strings.Join(kit.Platforms, ", ")),
	}
	return strings.Join(lines, "\n")
}

func brandLine(label, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		value = "(not provided)"
	}
	return fmt.Sprintf("- %s: %s", label, value)
}

func exampleRecords(examples []*entity.SyntheticExample) []map[string]any {
	records := make([]map[string]any, 0, len(examples))
	for _, e := range examples {
		if e != nil && e.Raw != nil {
			records = append(records, e.Raw)
		}
	}
	return records
}

// sanitizePayload deep-trims string leaves so the prompt carries no stray
// whitespace from client input.
func sanitizePayload(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		return sanitizePayload(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return v
	}
}
