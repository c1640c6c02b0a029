package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dblens/internal/models"
	"dblens/internal/repositories"
)

func testMigrationService(t *testing.T) (*MigrationService, *ConnectionService) {
	t.Helper()
	db, connSvc, auditSvc := testConnectionStack(t)
	require.NoError(t, db.AutoMigrate(&models.Migration{}, &models.Snapshot{}))

	snapSvc := NewSnapshotService(repositories.NewSnapshotRepository(db), connSvc, auditSvc, t.TempDir())
	svc := NewMigrationService(
		repositories.NewMigrationRepository(db),
		connSvc,
		snapSvc,
		NewSchemaService(connSvc),
		auditSvc,
	)
	return svc, connSvc
}

func seedSourceTable(t *testing.T, connSvc *ConnectionService, conn *models.DatabaseConnection) {
	t.Helper()
	ctx := context.Background()
	c, _, err := connSvc.Open(ctx, conn.ID)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Execute(ctx, "CREATE TABLE books (id INTEGER PRIMARY KEY, title TEXT)")
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		_, err = c.Execute(ctx, fmt.Sprintf("INSERT INTO books (id, title) VALUES (%d, 'b%d')", i, i))
		require.NoError(t, err)
	}
}

func TestMigrationCopiesTables(t *testing.T) {
	svc, connSvc := testMigrationService(t)
	source := createSQLiteConnection(t, connSvc, "mig-source")
	target := createSQLiteConnection(t, connSvc, "mig-target")
	seedSourceTable(t, connSvc, source)

	migration, err := svc.Start("ops", MigrationInput{
		SourceConnectionID: source.ID,
		TargetConnectionID: target.ID,
		SkipSnapshot:       true,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		m, err := svc.Get(migration.ID)
		return err == nil && m.Status != models.MigrationStatusPending && m.Status != models.MigrationStatusInProgress
	}, 5*time.Second, 20*time.Millisecond)

	done, err := svc.Get(migration.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MigrationStatusCompleted, done.Status)
	assert.EqualValues(t, 3, done.MigratedRows)
	assert.Equal(t, 1, done.CompletedTables)

	ctx := context.Background()
	c, _, err := connSvc.Open(ctx, target.ID)
	require.NoError(t, err)
	defer c.Close()
	result, err := c.Query(ctx, "SELECT COUNT(*) AS n FROM books", 0)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.EqualValues(t, 3, result.Rows[0]["n"])
}

func TestCancelledMigrationIsNotAFailure(t *testing.T) {
	svc, connSvc := testMigrationService(t)
	source := createSQLiteConnection(t, connSvc, "cancel-source")
	target := createSQLiteConnection(t, connSvc, "cancel-target")
	seedSourceTable(t, connSvc, source)

	migration := &models.Migration{
		SourceConnectionID: source.ID,
		TargetConnectionID: target.ID,
		Name:               "cancel-me",
		MigrationType:      models.MigrationTypeFull,
		Status:             models.MigrationStatusPending,
		CreatedBy:          "ops",
	}
	require.NoError(t, svc.migrationRepo.Create(migration))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.run(ctx, migration.ID, true)

	done, err := svc.Get(migration.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MigrationStatusCancelled, done.Status)
	assert.Empty(t, done.ErrorMessage)
	assert.Contains(t, strings.Join(done.Log, "\n"), "cancelled")
}
