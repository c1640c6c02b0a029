package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog records one user-visible action against the system or a target
// database. Rows are append-only.
type AuditLog struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PerformedBy       string     `gorm:"not null;index" json:"performed_by"`
	ActionType        string     `gorm:"not null;index" json:"action_type"`
	ResourceType      string     `gorm:"not null;index" json:"resource_type"`
	ResourceID        string     `json:"resource_id,omitempty"`
	ResourceName      string     `json:"resource_name,omitempty"`
	ActionDescription string     `json:"action_description,omitempty"`
	QueryExecuted     string     `json:"query_executed,omitempty"`
	ConnectionID      *uuid.UUID `gorm:"type:uuid;index" json:"connection_id,omitempty"`
	Success           bool       `gorm:"not null;default:true" json:"success"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	IPAddress         string     `json:"ip_address,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
