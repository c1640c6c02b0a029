package repositories

import (
	"errors"

	"gorm.io/gorm"

	"dblens/internal/models"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(key string) (*models.AppSetting, error) {
	var setting models.AppSetting
	err := r.db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// Set creates or updates a setting.
func (r *SettingRepository) Set(key, value, updatedBy string) error {
	existing, err := r.Get(key)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(&models.AppSetting{Key: key, Value: value, UpdatedBy: updatedBy}).Error
	}
	existing.Value = value
	existing.UpdatedBy = updatedBy
	return r.db.Save(existing).Error
}
