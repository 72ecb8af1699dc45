package schema

// FieldType enumerates the supported form field types
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeTextarea FieldType = "textarea"
)

// Structural limits, hard-enforced on every parse
const (
	MaxFields       = 50
	MaxOptions      = 50
	MaxNameLength   = 100
	MaxOptionLength = 100
)

// Well-known meta keys. The validator carries meta through untouched;
// these keys are written by the enricher and read by document-filling
// consumers downstream.
const (
	MetaPlaceholderRaw = "placeholderRaw"
	MetaBusinessKey    = "businessKey"
)

// FieldDefinition is one validated form field inside a template.
type FieldDefinition struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"field_name"`
	Type        FieldType      `json:"field_type"`
	Placeholder string         `json:"placeholder,omitempty"`
	Required    bool           `json:"required"`
	Options     []string       `json:"options,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// IsValid reports whether t is one of the supported field types.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeSelect, FieldTypeTextarea:
		return true
	}
	return false
}

// MetaString returns the string value stored under key in the field's
// meta map, or "" if the key is absent or not a string.
func (f FieldDefinition) MetaString(key string) string {
	if f.Meta == nil {
		return ""
	}
	s, _ := f.Meta[key].(string)
	return s
}

// Clone returns a deep copy of the field. Options and Meta are copied so
// mutating the clone never aliases the original.
func (f FieldDefinition) Clone() FieldDefinition {
	out := f
	if f.Options != nil {
		out.Options = make([]string, len(f.Options))
		copy(out.Options, f.Options)
	}
	if f.Meta != nil {
		out.Meta = make(map[string]any, len(f.Meta))
		for k, v := range f.Meta {
			out.Meta[k] = v
		}
	}
	return out
}
