package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppSetting is a single key/value application setting.
type AppSetting struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Key       string    `gorm:"not null;uniqueIndex" json:"key"`
	Value     string    `json:"value"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *AppSetting) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// Well-known setting keys.
const (
	SettingDefaultDBUsername = "default_db_username"
	SettingDefaultDBPassword = "default_db_password"
)
