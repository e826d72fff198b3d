package validator

import (
	"fmt"

	"novaengine/internal/domain/entity"
)

// FieldKind is the structural type a schema field must satisfy.
type FieldKind int

const (
	// KindText requires a non-empty string.
	KindText FieldKind = iota
	// KindTextList requires a list of non-empty strings.
	KindTextList
	// KindObjectList requires a list of objects, each matching Elem.
	KindObjectList
)

// FieldRule describes one required field of output.format. Length
// constraints apply to list kinds; ExactLen wins over MinLen when set.
type FieldRule struct {
	Name     string
	Kind     FieldKind
	ExactLen int
	MinLen   int
	Elem     []FieldRule
}

// OutputSchema is the data-described structural contract for one task,
// interpreted by Validate. A schema with no field rules only requires a
// present, non-empty output.format object, which is the contract for
// natural-language tasks whose structured shape is best effort.
// RepairAttempts bounds the repair protocol; tasks without a repair path
// fail on the first invalid response.
type OutputSchema struct {
	Strict         bool
	RepairAttempts int
	Fields         []FieldRule
}

func textFields(names ...string) []FieldRule {
	rules := make([]FieldRule, len(names))
	for i, n := range names {
		rules[i] = FieldRule{Name: n, Kind: KindText}
	}
	return rules
}

var schemas = map[entity.Task]OutputSchema{
	entity.TaskMetaAdVariants: {
		Strict:         true,
		RepairAttempts: 1,
		Fields: []FieldRule{{
			Name:     "variants",
			Kind:     KindObjectList,
			ExactLen: 5,
			Elem:     textFields("primary_text", "headline", "description", "cta", "angle"),
		}},
	},
}

// SchemaFor returns the schema for a task; unknown tasks get the
// permissive zero schema.
func SchemaFor(task entity.Task) OutputSchema {
	return schemas[task]
}

// RepairAttempts returns the repair bound for a task.
func RepairAttempts(task entity.Task) int {
	return schemas[task].RepairAttempts
}

// Validate checks a normalized payload against the task's schema. The
// check is structural only; content is never judged here.
func Validate(task entity.Task, parsed map[string]any) error {
	format, ok := digMap(parsed, "output", "format")
	if !ok {
		return fmt.Errorf("%s: missing output.format", task)
	}
	schema := SchemaFor(task)
	if len(schema.Fields) == 0 {
		if len(format) == 0 {
			return fmt.Errorf("%s: empty output.format", task)
		}
		return nil
	}
	return validateFields(string(task), format, schema.Fields)
}

func validateFields(path string, obj map[string]any, rules []FieldRule) error {
	for _, rule := range rules {
		fieldPath := path + "." + rule.Name
		v, ok := obj[rule.Name]
		if !ok {
			return fmt.Errorf("%s: missing", fieldPath)
		}
		switch rule.Kind {
		case KindText:
			if Str(obj, rule.Name) == "" {
				return fmt.Errorf("%s: must be a non-empty string", fieldPath)
			}
		case KindTextList:
			list, ok := AsList(v)
			if !ok {
				return fmt.Errorf("%s: must be a list of strings", fieldPath)
			}
			if err := checkLen(fieldPath, len(list), rule); err != nil {
				return err
			}
			for i, item := range list {
				s, ok := item.(string)
				if !ok || s == "" {
					return fmt.Errorf("%s[%d]: must be a non-empty string", fieldPath, i)
				}
			}
		case KindObjectList:
			list, ok := AsList(v)
			if !ok {
				return fmt.Errorf("%s: must be a list of objects", fieldPath)
			}
			if err := checkLen(fieldPath, len(list), rule); err != nil {
				return err
			}
			for i, item := range list {
				elem, ok := AsMap(item)
				if !ok {
					return fmt.Errorf("%s[%d]: must be an object", fieldPath, i)
				}
				if err := validateFields(fmt.Sprintf("%s[%d]", fieldPath, i), elem, rule.Elem); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkLen(path string, n int, rule FieldRule) error {
	if rule.ExactLen > 0 && n != rule.ExactLen {
		return fmt.Errorf("%s: expected exactly %d entries, got %d", path, rule.ExactLen, n)
	}
	if rule.ExactLen == 0 && rule.MinLen > 0 && n < rule.MinLen {
		return fmt.Errorf("%s: expected at least %d entries, got %d", path, rule.MinLen, n)
	}
	return nil
}
