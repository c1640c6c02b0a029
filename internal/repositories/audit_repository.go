package repositories

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dblens/internal/models"
)

// AuditFilter narrows an audit log listing. Zero values mean "no filter".
type AuditFilter struct {
	PerformedBy  string
	ActionType   string
	ResourceType string
	ConnectionID *uuid.UUID
	Since        time.Time
	Until        time.Time
	Page         int
	PageSize     int
}

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(log *models.AuditLog) error {
	return r.db.Create(log).Error
}

func (r *AuditRepository) FindByID(id uuid.UUID) (*models.AuditLog, error) {
	var log models.AuditLog
	err := r.db.First(&log, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *AuditRepository) List(filter AuditFilter) ([]models.AuditLog, int64, error) {
	q := r.db.Model(&models.AuditLog{})

	if filter.PerformedBy != "" {
		q = q.Where("performed_by = ?", filter.PerformedBy)
	}
	if filter.ActionType != "" {
		q = q.Where("action_type = ?", filter.ActionType)
	}
	if filter.ResourceType != "" {
		q = q.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ConnectionID != nil {
		q = q.Where("connection_id = ?", *filter.ConnectionID)
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("created_at <= ?", filter.Until)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}

	var logs []models.AuditLog
	err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error
	return logs, total, err
}

// ActionTypeCounts summarizes log volume per action type since a cutoff.
func (r *AuditRepository) ActionTypeCounts(since time.Time) (map[string]int64, error) {
	type row struct {
		ActionType string
		Count      int64
	}
	var rows []row
	err := r.db.Model(&models.AuditLog{}).
		Select("action_type, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("action_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.ActionType] = r.Count
	}
	return counts, nil
}

func (r *AuditRepository) FailureCount(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.AuditLog{}).
		Where("success = ? AND created_at >= ?", false, since).
		Count(&count).Error
	return count, err
}
