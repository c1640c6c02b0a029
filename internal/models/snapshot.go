package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Snapshot lifecycle states.
const (
	SnapshotStatusPending    = "pending"
	SnapshotStatusInProgress = "in_progress"
	SnapshotStatusCompleted  = "completed"
	SnapshotStatusFailed     = "failed"
)

// Snapshot kinds.
const (
	SnapshotTypeFull         = "full"
	SnapshotTypeSchemaOnly   = "schema_only"
	SnapshotTypePreMigration = "pre_migration"
	SnapshotTypeManual       = "manual"
)

// Snapshot is a point-in-time capture of a target database: schema metadata
// as JSON plus, for full snapshots, a compressed dump file.
type Snapshot struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ConnectionID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"connection_id"`
	Name               string     `gorm:"not null" json:"name"`
	SnapshotType       string     `gorm:"not null;default:manual;index" json:"snapshot_type"`
	Description        string     `json:"description,omitempty"`
	FilePath           string     `json:"file_path,omitempty"`
	FileSizeBytes      int64      `json:"file_size_bytes"`
	SchemaMetadata     []byte     `gorm:"type:bytes" json:"-"`
	TableCount         int        `json:"table_count"`
	TotalRows          int64      `json:"total_rows"`
	Status             string     `gorm:"not null;default:pending;index" json:"status"`
	ProgressPercentage float64    `json:"progress_percentage"`
	ErrorMessage       string     `json:"error_message,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	DurationSeconds    float64    `json:"duration_seconds"`
	RestoredCount      int        `json:"restored_count"`
	LastRestoredAt     *time.Time `json:"last_restored_at,omitempty"`
	RelatedMigrationID *uuid.UUID `gorm:"type:uuid" json:"related_migration_id,omitempty"`
	CreatedBy          string     `gorm:"not null;default:system" json:"created_by"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Snapshot) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
