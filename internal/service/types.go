package service

import "github.com/offerly-io/offerly/internal/schema"

// CreateRequest holds parameters for creating a template.
type CreateRequest struct {
	Title    string
	Slug     string // candidate; arbitration may derive a suffixed form
	Content  string // raw field envelope, may be empty
	Category string
	Tags     []string
}

// UpdateRequest holds parameters for updating a template. Nil pointers
// leave the corresponding column untouched; Content, when set, replaces
// the whole envelope.
type UpdateRequest struct {
	Title    *string
	Content  *string
	Category *string
	Tags     *[]string
}

// ContentInspection is the decoded view of a template's content. State
// distinguishes a brand-new empty template from a damaged one so the UI
// can offer a reset only where it applies.
type ContentInspection struct {
	State  string                   `json:"state"` // "empty", "corrupt" or "ok"
	Fields []schema.FieldDefinition `json:"fields"`
	Reason string                   `json:"reason,omitempty"` // set when corrupt
}
