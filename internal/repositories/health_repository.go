package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dblens/internal/models"
)

type HealthRepository struct {
	db *gorm.DB
}

func NewHealthRepository(db *gorm.DB) *HealthRepository {
	return &HealthRepository{db: db}
}

func (r *HealthRepository) Create(metric *models.HealthMetric) error {
	return r.db.Create(metric).Error
}

// History returns samples for a connection newer than since, oldest first.
func (r *HealthRepository) History(connectionID uuid.UUID, since time.Time, limit int) ([]models.HealthMetric, error) {
	var metrics []models.HealthMetric
	q := r.db.
		Where("connection_id = ? AND timestamp >= ?", connectionID, since).
		Order("timestamp")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&metrics).Error
	return metrics, err
}

// HealthStats aggregates samples over a window.
type HealthStats struct {
	SampleCount          int64    `json:"sample_count"`
	AvgActiveConnections *float64 `json:"avg_active_connections,omitempty"`
	MaxActiveConnections *int     `json:"max_active_connections,omitempty"`
	AvgCacheHitRatio     *float64 `json:"avg_cache_hit_ratio,omitempty"`
	AvgDatabaseSizeMB    *float64 `json:"avg_database_size_mb,omitempty"`
	MaxDatabaseSizeMB    *float64 `json:"max_database_size_mb,omitempty"`
}

func (r *HealthRepository) Stats(connectionID uuid.UUID, since time.Time) (*HealthStats, error) {
	var stats HealthStats
	err := r.db.Model(&models.HealthMetric{}).
		Select(`COUNT(*) AS sample_count,
			AVG(active_connections) AS avg_active_connections,
			MAX(active_connections) AS max_active_connections,
			AVG(cache_hit_ratio) AS avg_cache_hit_ratio,
			AVG(database_size_mb) AS avg_database_size_mb,
			MAX(database_size_mb) AS max_database_size_mb`).
		Where("connection_id = ? AND timestamp >= ?", connectionID, since).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *HealthRepository) DeleteOlderThan(cutoff time.Time) error {
	return r.db.Delete(&models.HealthMetric{}, "timestamp < ?", cutoff).Error
}
