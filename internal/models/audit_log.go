package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog represents a record of tenant actions for compliance
type AuditLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	TenantID    uuid.UUID `gorm:"type:text;index" json:"tenant_id"`
	UserID      uuid.UUID `gorm:"type:text;index" json:"user_id"`
	Action      string    `gorm:"not null" json:"action"`        // e.g., "create_template"
	Resource    string    `gorm:"not null" json:"resource"`      // e.g., "template:123"
	DetailsJSON string    `gorm:"type:text" json:"details_json"` // Additional context in JSON
	Timestamp   time.Time `gorm:"not null;index" json:"timestamp"`
}
