package schema

import (
	"fmt"
	"unicode/utf8"
)

// FieldError describes a single structural violation. Path points at the
// offending value relative to the envelope root, e.g. "fields[3].options[0]".
type FieldError struct {
	Path   string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// ValidateField validates one untyped field definition (a decoded JSON
// value) and returns the normalized FieldDefinition. Defaults are applied
// (required=false when absent); nothing else is coerced, and any type
// mismatch or limit violation rejects the field as a whole.
func ValidateField(raw any) (FieldDefinition, *FieldError) {
	return validateField(raw, "")
}

func validateField(raw any, path string) (FieldDefinition, *FieldError) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return FieldDefinition{}, &FieldError{Path: path, Reason: "field must be a JSON object"}
	}

	var field FieldDefinition

	if v, present := obj["id"]; present {
		s, ok := v.(string)
		if !ok {
			return FieldDefinition{}, &FieldError{Path: join(path, "id"), Reason: "id must be a string"}
		}
		field.ID = s
	}

	name, ok := obj["field_name"].(string)
	if !ok || name == "" {
		return FieldDefinition{}, &FieldError{Path: join(path, "field_name"), Reason: "field_name is required and must be a non-empty string"}
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return FieldDefinition{}, &FieldError{Path: join(path, "field_name"), Reason: fmt.Sprintf("field_name must be at most %d characters", MaxNameLength)}
	}
	field.Name = name

	typ, ok := obj["field_type"].(string)
	if !ok {
		return FieldDefinition{}, &FieldError{Path: join(path, "field_type"), Reason: "field_type is required and must be a string"}
	}
	field.Type = FieldType(typ)
	if !field.Type.IsValid() {
		return FieldDefinition{}, &FieldError{Path: join(path, "field_type"), Reason: fmt.Sprintf("unknown field_type %q", typ)}
	}

	if v, present := obj["placeholder"]; present {
		s, ok := v.(string)
		if !ok {
			return FieldDefinition{}, &FieldError{Path: join(path, "placeholder"), Reason: "placeholder must be a string"}
		}
		field.Placeholder = s
	}

	if v, present := obj["required"]; present {
		b, ok := v.(bool)
		if !ok {
			return FieldDefinition{}, &FieldError{Path: join(path, "required"), Reason: "required must be a boolean"}
		}
		field.Required = b
	}

	options, optionsPresent := obj["options"]
	if field.Type == FieldTypeSelect {
		if !optionsPresent {
			return FieldDefinition{}, &FieldError{Path: join(path, "options"), Reason: "select fields require a non-empty options list"}
		}
		parsed, ferr := validateOptions(options, join(path, "options"))
		if ferr != nil {
			return FieldDefinition{}, ferr
		}
		field.Options = parsed
	} else if optionsPresent {
		return FieldDefinition{}, &FieldError{Path: join(path, "options"), Reason: fmt.Sprintf("options are only allowed on select fields, not %q", typ)}
	}

	if v, present := obj["meta"]; present {
		m, ok := v.(map[string]any)
		if !ok {
			return FieldDefinition{}, &FieldError{Path: join(path, "meta"), Reason: "meta must be a JSON object"}
		}
		field.Meta = m
	}

	return field, nil
}

func validateOptions(raw any, path string) ([]string, *FieldError) {
	list, ok := raw.([]any)
	if !ok {
		return nil, &FieldError{Path: path, Reason: "options must be a list of strings"}
	}
	if len(list) == 0 {
		return nil, &FieldError{Path: path, Reason: "select fields require a non-empty options list"}
	}
	if len(list) > MaxOptions {
		return nil, &FieldError{Path: path, Reason: fmt.Sprintf("at most %d options are allowed, got %d", MaxOptions, len(list))}
	}

	options := make([]string, len(list))
	for i, v := range list {
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, &FieldError{Path: fmt.Sprintf("%s[%d]", path, i), Reason: "options must be non-empty strings"}
		}
		if utf8.RuneCountInString(s) > MaxOptionLength {
			return nil, &FieldError{Path: fmt.Sprintf("%s[%d]", path, i), Reason: fmt.Sprintf("options must be at most %d characters", MaxOptionLength)}
		}
		options[i] = s
	}
	return options, nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
