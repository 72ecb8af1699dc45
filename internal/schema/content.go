package schema

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// CurrentVersion is the envelope version written by SerializeContent.
// Older content without a version key is read as version 1.
const CurrentVersion = 1

// TemplateContent is the versioned envelope persisted as a template's
// content column.
type TemplateContent struct {
	Version int               `json:"version"`
	Fields  []FieldDefinition `json:"fields"`
}

// ContentState classifies the outcome of parsing a content string.
type ContentState int

const (
	// ContentEmpty means the raw content was null, empty, or whitespace.
	// That is a valid state for a template with no fields yet.
	ContentEmpty ContentState = iota
	// ContentCorrupt means the content was present but is not valid JSON
	// or failed structural validation. Nothing in it can be trusted.
	ContentCorrupt
	// ContentOK means the envelope validated in full.
	ContentOK
)

func (s ContentState) String() string {
	switch s {
	case ContentEmpty:
		return "empty"
	case ContentCorrupt:
		return "corrupt"
	case ContentOK:
		return "ok"
	}
	return fmt.Sprintf("ContentState(%d)", int(s))
}

// ParseResult is the outcome of ParseContent. Empty and corrupt content
// are distinguished explicitly so callers can choose their own policy
// (e.g. offer a content reset only for corrupt templates).
type ParseResult struct {
	State  ContentState
	Fields []FieldDefinition
	Reason string // set when State == ContentCorrupt
}

// ParseContent parses and validates a raw content string. It never
// returns an error: absent content yields ContentEmpty, and anything
// undecodable or structurally invalid yields ContentCorrupt with a
// diagnostic reason (also logged). Validation is all-or-nothing: a
// single invalid field poisons the whole envelope and no partial field
// list is ever returned.
func ParseContent(raw string) ParseResult {
	if strings.TrimSpace(raw) == "" {
		return ParseResult{State: ContentEmpty}
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return corrupt(fmt.Sprintf("content is not valid JSON: %v", err))
	}

	envelope, ok := doc.(map[string]any)
	if !ok {
		return corrupt("content must be a JSON object")
	}

	// Content written before versioning existed has no version key;
	// treat it as version 1.
	if v, present := envelope["version"]; present {
		n, ok := v.(float64)
		if !ok || n != math.Trunc(n) || n < 1 {
			return corrupt("version must be a positive integer")
		}
	}

	rawFields, present := envelope["fields"]
	if !present {
		return ParseResult{State: ContentOK, Fields: []FieldDefinition{}}
	}
	list, ok := rawFields.([]any)
	if !ok {
		return corrupt("fields must be a list")
	}
	if len(list) > MaxFields {
		return corrupt(fmt.Sprintf("at most %d fields are allowed, got %d", MaxFields, len(list)))
	}

	fields := make([]FieldDefinition, len(list))
	for i, rawField := range list {
		field, ferr := validateField(rawField, fmt.Sprintf("fields[%d]", i))
		if ferr != nil {
			return corrupt(ferr.Error())
		}
		fields[i] = field
	}

	return ParseResult{State: ContentOK, Fields: fields}
}

func corrupt(reason string) ParseResult {
	slog.Warn("template content failed validation", "reason", reason)
	return ParseResult{State: ContentCorrupt, Reason: reason}
}

// SerializeContent writes fields into the current envelope format. It is
// the exact inverse of ParseContent for any field list ParseContent would
// accept: ParseContent(SerializeContent(fields)) returns fields.
func SerializeContent(fields []FieldDefinition) (string, error) {
	if fields == nil {
		fields = []FieldDefinition{}
	}
	data, err := json.Marshal(TemplateContent{Version: CurrentVersion, Fields: fields})
	if err != nil {
		return "", fmt.Errorf("serialize content: %w", err)
	}
	return string(data), nil
}
