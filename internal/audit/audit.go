package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/offerly-io/offerly/internal/models"
	"gorm.io/gorm"
)

// LogAction records an audit log entry
func LogAction(db *gorm.DB, tenantID, userID uuid.UUID, action, resource string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	log := models.AuditLog{
		TenantID:    tenantID,
		UserID:      userID,
		Action:      action,
		Resource:    resource,
		DetailsJSON: string(detailsJSON),
		Timestamp:   time.Now(),
	}

	return db.Create(&log).Error
}

// Audit actions constants
const (
	ActionCreateTemplate = "create_template"
	ActionUpdateTemplate = "update_template"
	ActionDeleteTemplate = "delete_template"
)
