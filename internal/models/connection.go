package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Supported connection database types.
const (
	DBTypePostgreSQL = "postgresql"
	DBTypeMySQL      = "mysql"
	DBTypeSQLite     = "sqlite"
	DBTypeMongoDB    = "mongodb"
)

// ValidDBType reports whether t is a recognized database type.
func ValidDBType(t string) bool {
	switch t {
	case DBTypePostgreSQL, DBTypeMySQL, DBTypeSQLite, DBTypeMongoDB:
		return true
	}
	return false
}

// DatabaseConnection is a registered target database. Password never appears
// in JSON responses.
type DatabaseConnection struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string     `gorm:"not null" json:"name"`
	Type           string     `gorm:"column:db_type;not null" json:"type"`
	Host           string     `json:"host"`
	Port           int        `json:"port"`
	DatabaseName   string     `gorm:"not null" json:"database_name"`
	Username       string     `json:"username"`
	Password       string     `json:"-"`
	SSLMode        string     `json:"ssl_mode"`
	FilePath       string     `json:"file_path,omitempty"`
	OrganizationID *uuid.UUID `gorm:"type:uuid;index" json:"organization_id,omitempty"`
	CreatedBy      uuid.UUID  `gorm:"type:uuid;not null;index" json:"created_by_id"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	LastTestedAt   *time.Time `json:"last_tested_at,omitempty"`
	LastTestOK     bool       `json:"last_test_ok"`
}

func (d *DatabaseConnection) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}
