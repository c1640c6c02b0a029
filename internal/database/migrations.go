package database

import (
	"gorm.io/gorm"

	"dblens/internal/models"
)

// Migrate creates or updates every table the API owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Role{},
		&models.RolePermission{},
		&models.UserRoleAssignment{},
		&models.DatabaseConnection{},
		&models.Backup{},
		&models.BackupSchedule{},
		&models.Snapshot{},
		&models.Migration{},
		&models.HealthMetric{},
		&models.AuditLog{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.AppSetting{},
	)
}
