package enrich

import (
	"github.com/offerly-io/offerly/internal/schema"
)

// Enrich annotates fields with the business keys configured for the given
// category. It is pure and best-effort:
//
//   - categories without a config return the input slice unchanged
//   - a field that already carries a businessKey is never overwritten
//   - otherwise the field's meta.placeholderRaw is looked up in the table;
//     on a miss, "{{name}}" is tried as a fallback, and a fallback hit
//     back-fills placeholderRaw with the synthesized token
//   - fields matching nothing are returned unchanged
//
// Matched fields are copied before annotation; the input is never mutated.
func (r *Registry) Enrich(fields []schema.FieldDefinition, category string) []schema.FieldDefinition {
	cfg, ok := r.Lookup(category)
	if !ok || len(cfg) == 0 {
		return fields
	}

	out := make([]schema.FieldDefinition, len(fields))
	for i, field := range fields {
		out[i] = enrichField(field, cfg)
	}
	return out
}

func enrichField(field schema.FieldDefinition, cfg BusinessConfig) schema.FieldDefinition {
	if field.MetaString(schema.MetaBusinessKey) != "" {
		return field
	}

	if token := field.MetaString(schema.MetaPlaceholderRaw); token != "" {
		if mapping, ok := cfg[token]; ok {
			return withMeta(field, mapping.BusinessKey, "")
		}
	}

	// Fallback: wrap the field name in the placeholder delimiters and
	// re-query the table.
	synthesized := "{{" + field.Name + "}}"
	if mapping, ok := cfg[synthesized]; ok {
		return withMeta(field, mapping.BusinessKey, synthesized)
	}

	return field
}

// withMeta clones the field and sets its businessKey. When token is
// non-empty and the field has no placeholderRaw yet, the token is
// back-filled as well.
func withMeta(field schema.FieldDefinition, businessKey, token string) schema.FieldDefinition {
	out := field.Clone()
	if out.Meta == nil {
		out.Meta = make(map[string]any, 2)
	}
	out.Meta[schema.MetaBusinessKey] = businessKey
	if token != "" && out.MetaString(schema.MetaPlaceholderRaw) == "" {
		out.Meta[schema.MetaPlaceholderRaw] = token
	}
	return out
}
