package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BackupSchedule fires a backup for a connection every IntervalHours hours
// while enabled. The scheduler loop owns NextRunAt.
type BackupSchedule struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ConnectionID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"connection_id"`
	Name          string     `gorm:"not null" json:"name"`
	BackupType    string     `gorm:"not null;default:full" json:"backup_type"`
	IntervalHours int        `gorm:"not null" json:"interval_hours"`
	Enabled       bool       `gorm:"not null;default:true" json:"enabled"`
	RetentionDays int        `gorm:"not null;default:30" json:"retention_days"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	NextRunAt     *time.Time `gorm:"index" json:"next_run_at,omitempty"`
	LastStatus    string     `json:"last_status,omitempty"`
	CreatedBy     string     `gorm:"not null;default:system" json:"created_by"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *BackupSchedule) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
