package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dblens/internal/models"
	"dblens/internal/repositories"
)

func TestAuditStatsRespectWindow(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AuditLog{}))

	svc := NewAuditService(repositories.NewAuditRepository(db))
	svc.Log(&models.AuditLog{PerformedBy: "ana", ActionType: "login", ResourceType: "session"})
	svc.Log(&models.AuditLog{PerformedBy: "ana", ActionType: "login", ResourceType: "session"})
	svc.Log(&models.AuditLog{PerformedBy: "ana", ActionType: "query_execute", ResourceType: "database_connection", ErrorMessage: "syntax error"})

	// push the failed entry outside the default window
	twoDaysAgo := time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("action_type = ?", "query_execute").
		Update("created_at", twoDaysAgo).Error)

	stats, err := svc.Stats(0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	assert.EqualValues(t, 0, stats.Failures)
	assert.EqualValues(t, 2, stats.ActionCounts["login"])
	assert.NotContains(t, stats.ActionCounts, "query_execute")

	stats, err = svc.Stats(72 * time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 1, stats.Failures)
}
