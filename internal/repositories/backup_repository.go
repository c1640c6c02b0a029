package repositories

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dblens/internal/models"
)

type BackupRepository struct {
	db *gorm.DB
}

func NewBackupRepository(db *gorm.DB) *BackupRepository {
	return &BackupRepository{db: db}
}

func (r *BackupRepository) Create(backup *models.Backup) error {
	return r.db.Create(backup).Error
}

func (r *BackupRepository) FindByID(id uuid.UUID) (*models.Backup, error) {
	var backup models.Backup
	err := r.db.First(&backup, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &backup, nil
}

func (r *BackupRepository) ListByConnection(connectionID uuid.UUID) ([]models.Backup, error) {
	var backups []models.Backup
	err := r.db.Where("connection_id = ?", connectionID).
		Order("created_at DESC").
		Find(&backups).Error
	return backups, err
}

func (r *BackupRepository) Update(backup *models.Backup) error {
	return r.db.Save(backup).Error
}

func (r *BackupRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.Backup{}, "id = ?", id).Error
}

// ListOlderThan returns completed schedule-owned backups that precede cutoff,
// for retention cleanup.
func (r *BackupRepository) ListOlderThan(scheduleID uuid.UUID, cutoff time.Time) ([]models.Backup, error) {
	var backups []models.Backup
	err := r.db.
		Where("schedule_id = ? AND status = ? AND created_at < ?",
			scheduleID, models.BackupStatusCompleted, cutoff).
		Find(&backups).Error
	return backups, err
}
