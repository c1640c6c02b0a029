package repositories

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dblens/internal/models"
)

type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Create(schedule *models.BackupSchedule) error {
	return r.db.Create(schedule).Error
}

func (r *ScheduleRepository) FindByID(id uuid.UUID) (*models.BackupSchedule, error) {
	var schedule models.BackupSchedule
	err := r.db.First(&schedule, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *ScheduleRepository) List() ([]models.BackupSchedule, error) {
	var schedules []models.BackupSchedule
	err := r.db.Order("created_at").Find(&schedules).Error
	return schedules, err
}

// Due returns enabled schedules whose next run time has passed.
func (r *ScheduleRepository) Due(now time.Time) ([]models.BackupSchedule, error) {
	var schedules []models.BackupSchedule
	err := r.db.
		Where("enabled = ? AND (next_run_at IS NULL OR next_run_at <= ?)", true, now).
		Find(&schedules).Error
	return schedules, err
}

func (r *ScheduleRepository) Update(schedule *models.BackupSchedule) error {
	return r.db.Save(schedule).Error
}

func (r *ScheduleRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.BackupSchedule{}, "id = ?", id).Error
}
