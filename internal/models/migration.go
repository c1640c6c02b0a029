package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Migration lifecycle states.
const (
	MigrationStatusPending    = "pending"
	MigrationStatusInProgress = "in_progress"
	MigrationStatusCompleted  = "completed"
	MigrationStatusFailed     = "failed"
	MigrationStatusRolledBack = "rolled_back"
	MigrationStatusCancelled  = "cancelled"
)

// Migration kinds.
const (
	MigrationTypeFull       = "full"
	MigrationTypeSchemaOnly = "schema_only"
)

// Migration copies selected tables from a source connection to a target
// connection. A background runner owns progress fields; handlers only read
// them for status polling.
type Migration struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SourceConnectionID uuid.UUID  `gorm:"type:uuid;not null;index" json:"source_connection_id"`
	TargetConnectionID uuid.UUID  `gorm:"type:uuid;not null;index" json:"target_connection_id"`
	Name               string     `gorm:"not null" json:"name"`
	SelectedTables     StringList `gorm:"type:text" json:"selected_tables"`
	MigrationType      string     `gorm:"not null;default:full" json:"migration_type"`
	Status             string     `gorm:"not null;default:pending;index" json:"status"`
	ProgressPercentage float64    `json:"progress_percentage"`
	CurrentStep        string     `json:"current_step,omitempty"`
	TotalTables        int        `json:"total_tables"`
	CompletedTables    int        `json:"completed_tables"`
	TotalRows          int64      `json:"total_rows"`
	MigratedRows       int64      `json:"migrated_rows"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	DurationSeconds    float64    `json:"duration_seconds"`
	SuccessMessage     string     `json:"success_message,omitempty"`
	ErrorMessage       string     `json:"error_message,omitempty"`
	Log                StringList `gorm:"type:text" json:"-"`
	CanRollback        bool       `gorm:"not null;default:true" json:"can_rollback"`
	RollbackSnapshotID *uuid.UUID `gorm:"type:uuid" json:"rollback_snapshot_id,omitempty"`
	CreatedBy          string     `gorm:"not null;default:system" json:"created_by"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *Migration) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
