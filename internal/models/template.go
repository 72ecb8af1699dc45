package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Template is a tenant-scoped document template. Content holds the
// serialized field envelope (see internal/schema); it is replaced whole
// on every edit, never patched. Slug is unique per tenant; the same
// slug may exist under different tenants.
type Template struct {
	ID        uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:text;not null;index;uniqueIndex:idx_templates_tenant_slug" json:"tenant_id"`
	Title     string         `gorm:"not null" json:"title"`
	Slug      string         `gorm:"not null;uniqueIndex:idx_templates_tenant_slug" json:"slug"`
	Content   string         `gorm:"type:text" json:"content"` // serialized field envelope
	Category  string         `gorm:"not null;default:'default'" json:"category"`
	Tags      []string       `gorm:"serializer:json" json:"tags,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName ensures GORM uses the "templates" table
func (Template) TableName() string {
	return "templates"
}

// BeforeCreate hook to generate UUID
func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
