package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Backup lifecycle states.
const (
	BackupStatusPending    = "pending"
	BackupStatusInProgress = "in_progress"
	BackupStatusCompleted  = "completed"
	BackupStatusFailed     = "failed"
)

// Backup types.
const (
	BackupTypeFull       = "full"
	BackupTypeSchemaOnly = "schema_only"
)

// Backup is a gzip-compressed logical dump of a target database.
type Backup struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ConnectionID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"connection_id"`
	Name            string     `gorm:"not null" json:"name"`
	BackupType      string     `gorm:"not null;default:full" json:"backup_type"`
	Status          string     `gorm:"not null;default:pending;index" json:"status"`
	FilePath        string     `json:"file_path,omitempty"`
	FileSizeBytes   int64      `json:"file_size_bytes"`
	TableCount      int        `json:"table_count"`
	TotalRows       int64      `json:"total_rows"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationSeconds float64    `json:"duration_seconds"`
	CreatedBy       string     `gorm:"not null;default:system" json:"created_by"`
	ScheduleID      *uuid.UUID `gorm:"type:uuid;index" json:"schedule_id,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (b *Backup) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}
