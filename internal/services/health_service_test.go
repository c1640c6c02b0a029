package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dblens/internal/models"
	"dblens/internal/repositories"
)

// testConnectionStack wires the connection, audit and setting layers over a
// throwaway sqlite database so service tests can run real connectors.
func testConnectionStack(t *testing.T) (*gorm.DB, *ConnectionService, *AuditService) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "app.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.DatabaseConnection{},
		&models.AppSetting{},
		&models.AuditLog{},
		&models.HealthMetric{},
	))

	auditSvc := NewAuditService(repositories.NewAuditRepository(db))
	connSvc := NewConnectionService(
		repositories.NewConnectionRepository(db),
		repositories.NewSettingRepository(db),
		auditSvc,
	)
	return db, connSvc, auditSvc
}

func createSQLiteConnection(t *testing.T, connSvc *ConnectionService, name string) *models.DatabaseConnection {
	t.Helper()
	actor := &models.User{ID: uuid.New(), Username: "ops"}
	conn, err := connSvc.Create(actor, nil, ConnectionInput{
		Name:         name,
		Type:         models.DBTypeSQLite,
		DatabaseName: name,
		FilePath:     filepath.Join(t.TempDir(), name+".db"),
	})
	require.NoError(t, err)
	return conn
}

func TestHealthCollectPersistsSample(t *testing.T) {
	db, connSvc, _ := testConnectionStack(t)
	conn := createSQLiteConnection(t, connSvc, "vitals")

	svc := NewHealthService(repositories.NewHealthRepository(db), connSvc)
	metric, err := svc.Collect(context.Background(), conn.ID)
	require.NoError(t, err)

	assert.Equal(t, conn.ID, metric.ConnectionID)
	require.NotNil(t, metric.ActiveConnections)
	assert.Equal(t, 1, *metric.ActiveConnections)
	require.NotNil(t, metric.AvgQueryTimeMs)
	assert.GreaterOrEqual(t, *metric.AvgQueryTimeMs, 0.0)
	require.NotNil(t, metric.DatabaseSizeMB)

	var stored int64
	require.NoError(t, db.Model(&models.HealthMetric{}).Count(&stored).Error)
	assert.EqualValues(t, 1, stored)
}
