package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HealthMetric is one sample of a target database's vital signs.
type HealthMetric struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConnectionID      uuid.UUID `gorm:"type:uuid;not null;index" json:"connection_id"`
	Timestamp         time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
	ActiveConnections *int      `json:"active_connections,omitempty"`
	MaxConnections    *int      `json:"max_connections,omitempty"`
	AvgQueryTimeMs    *float64  `json:"avg_query_time_ms,omitempty"`
	SlowQueryCount    *int      `json:"slow_query_count,omitempty"`
	QueriesPerSecond  *float64  `json:"queries_per_second,omitempty"`
	CacheHitRatio     *float64  `json:"cache_hit_ratio,omitempty"`
	DatabaseSizeMB    *float64  `json:"database_size_mb,omitempty"`
}

func (m *HealthMetric) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
