package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"dblens/internal/connectors"
	"dblens/internal/logging"
	"dblens/internal/models"
	"dblens/internal/repositories"
)

// cancelled reports whether err stems from the migration's context being
// cancelled rather than from the copy itself.
func cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

var (
	ErrMigrationRunning    = errors.New("migration is still running")
	ErrMigrationNotRunning = errors.New("migration is not running")
	ErrMigrationNoRollback = errors.New("migration has no rollback snapshot")
	ErrSameConnection      = errors.New("source and target connections must differ")
)

// MigrationService copies tables between connections. Each migration runs in
// its own goroutine; cancellation is cooperative through a per-migration
// context kept in running.
type MigrationService struct {
	migrationRepo *repositories.MigrationRepository
	connSvc       *ConnectionService
	snapshotSvc   *SnapshotService
	schemaSvc     *SchemaService
	auditSvc      *AuditService

	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
}

func NewMigrationService(migrationRepo *repositories.MigrationRepository, connSvc *ConnectionService, snapshotSvc *SnapshotService, schemaSvc *SchemaService, auditSvc *AuditService) *MigrationService {
	return &MigrationService{
		migrationRepo: migrationRepo,
		connSvc:       connSvc,
		snapshotSvc:   snapshotSvc,
		schemaSvc:     schemaSvc,
		auditSvc:      auditSvc,
		running:       make(map[uuid.UUID]context.CancelFunc),
	}
}

func (s *MigrationService) List(limit int) ([]models.Migration, error) {
	return s.migrationRepo.List(limit)
}

func (s *MigrationService) Get(id uuid.UUID) (*models.Migration, error) {
	migration, err := s.migrationRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if migration == nil {
		return nil, errors.New("migration not found")
	}
	return migration, nil
}

func (s *MigrationService) Logs(id uuid.UUID) ([]string, error) {
	migration, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return migration.Log, nil
}

type MigrationInput struct {
	SourceConnectionID uuid.UUID
	TargetConnectionID uuid.UUID
	Name               string
	SelectedTables     []string
	MigrationType      string
	SkipSnapshot       bool
}

// Start validates the request, records the migration and kicks off the runner.
func (s *MigrationService) Start(actor string, in MigrationInput) (*models.Migration, error) {
	if in.SourceConnectionID == in.TargetConnectionID {
		return nil, ErrSameConnection
	}
	if _, err := s.connSvc.Get(in.SourceConnectionID); err != nil {
		return nil, err
	}
	if _, err := s.connSvc.Get(in.TargetConnectionID); err != nil {
		return nil, err
	}
	if in.MigrationType != models.MigrationTypeSchemaOnly {
		in.MigrationType = models.MigrationTypeFull
	}
	if in.Name == "" {
		in.Name = fmt.Sprintf("migration-%s", time.Now().Format("20060102-150405"))
	}

	migration := &models.Migration{
		SourceConnectionID: in.SourceConnectionID,
		TargetConnectionID: in.TargetConnectionID,
		Name:               in.Name,
		SelectedTables:     in.SelectedTables,
		MigrationType:      in.MigrationType,
		Status:             models.MigrationStatusPending,
		CanRollback:        !in.SkipSnapshot,
		CreatedBy:          actor,
	}
	if err := s.migrationRepo.Create(migration); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.running[migration.ID] = cancel
	s.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			s.mu.Lock()
			delete(s.running, migration.ID)
			s.mu.Unlock()
		}()
		s.run(ctx, migration.ID, in.SkipSnapshot)
	}()

	return migration, nil
}

// Cancel requests cooperative cancellation of a running migration.
func (s *MigrationService) Cancel(id uuid.UUID) error {
	s.mu.Lock()
	cancel, ok := s.running[id]
	s.mu.Unlock()
	if !ok {
		return ErrMigrationNotRunning
	}
	cancel()
	return nil
}

func (s *MigrationService) run(ctx context.Context, id uuid.UUID, skipSnapshot bool) {
	migration, err := s.Get(id)
	if err != nil {
		logging.Log.WithError(err).WithField("migration_id", id).Error("migration row disappeared")
		return
	}
	start := time.Now()
	migration.Status = models.MigrationStatusInProgress
	migration.StartedAt = &start
	migration.CurrentStep = "preparing"
	s.save(migration)
	s.log(id, "migration started")

	finish := func(status, message, errMessage string) {
		now := time.Now()
		migration.Status = status
		migration.SuccessMessage = message
		migration.ErrorMessage = errMessage
		migration.CompletedAt = &now
		migration.DurationSeconds = time.Since(start).Seconds()
		s.save(migration)

		entry := &models.AuditLog{
			PerformedBy:       migration.CreatedBy,
			ActionType:        "migration_" + status,
			ResourceType:      "migration",
			ResourceID:        migration.ID.String(),
			ResourceName:      migration.Name,
			ActionDescription: fmt.Sprintf("Migration %s", status),
		}
		if errMessage != "" {
			entry.ErrorMessage = errMessage
		}
		s.auditSvc.Log(entry)
	}

	if !skipSnapshot {
		migration.CurrentStep = "snapshotting target"
		s.save(migration)
		s.log(id, "capturing pre-migration snapshot of target")
		snapshot, err := s.snapshotSvc.CreateBeforeMigration(ctx, migration.TargetConnectionID, migration.ID)
		if err != nil {
			s.log(id, "snapshot failed: "+err.Error())
			finish(models.MigrationStatusFailed, "", "pre-migration snapshot failed: "+err.Error())
			return
		}
		migration.RollbackSnapshotID = &snapshot.ID
		s.save(migration)
	}

	source, _, err := s.connSvc.Open(ctx, migration.SourceConnectionID)
	if err != nil {
		finish(models.MigrationStatusFailed, "", "source connection failed: "+err.Error())
		return
	}
	defer source.Close()
	target, _, err := s.connSvc.Open(ctx, migration.TargetConnectionID)
	if err != nil {
		finish(models.MigrationStatusFailed, "", "target connection failed: "+err.Error())
		return
	}
	defer target.Close()

	schema, err := source.Inspect(ctx)
	if err != nil {
		if cancelled(err) {
			s.log(id, "cancelled")
			finish(models.MigrationStatusCancelled, "", "")
			return
		}
		finish(models.MigrationStatusFailed, "", "source introspection failed: "+err.Error())
		return
	}

	tables := selectTables(schema, migration.SelectedTables)
	migration.TotalTables = len(tables)
	s.save(migration)

	for i := range tables {
		select {
		case <-ctx.Done():
			s.log(id, "cancelled")
			finish(models.MigrationStatusCancelled, "", "")
			return
		default:
		}

		table := tables[i]
		migration.CurrentStep = "copying " + table.Name
		s.save(migration)

		rows, err := s.copyTable(ctx, source, target, table, migration.MigrationType == models.MigrationTypeSchemaOnly)
		if err != nil {
			// a cancel arriving mid-copy surfaces as a context error
			if cancelled(err) {
				s.log(id, "cancelled")
				finish(models.MigrationStatusCancelled, "", "")
				return
			}
			s.log(id, fmt.Sprintf("table %s failed: %s", table.Name, err))
			finish(models.MigrationStatusFailed, "", fmt.Sprintf("table %s: %s", table.Name, err))
			return
		}

		migration.CompletedTables++
		migration.MigratedRows += rows
		migration.TotalRows += rows
		migration.ProgressPercentage = float64(migration.CompletedTables) / float64(migration.TotalTables) * 100
		s.save(migration)
		s.log(id, fmt.Sprintf("table %s done (%d rows)", table.Name, rows))
	}

	s.schemaSvc.Invalidate(migration.TargetConnectionID)
	migration.CurrentStep = "done"
	migration.ProgressPercentage = 100
	finish(models.MigrationStatusCompleted,
		fmt.Sprintf("Migrated %d tables, %d rows", migration.CompletedTables, migration.MigratedRows), "")
}

func (s *MigrationService) copyTable(ctx context.Context, source, target connectors.Connector, table *models.Table, schemaOnly bool) (int64, error) {
	if _, err := target.Execute(ctx, connectors.CreateTableStatement(table)); err != nil {
		return 0, err
	}
	if schemaOnly {
		return 0, nil
	}

	result, err := source.Query(ctx, fmt.Sprintf("SELECT * FROM %s", connectors.QuoteIdent(table.Name)), 0)
	if err != nil {
		return 0, err
	}
	var copied int64
	for _, row := range result.Rows {
		select {
		case <-ctx.Done():
			return copied, ctx.Err()
		default:
		}
		if _, err := target.Execute(ctx, connectors.InsertStatement(table, result.Columns, row)); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}

// Rollback restores the pre-migration snapshot onto the target connection.
func (s *MigrationService) Rollback(ctx context.Context, actor string, id uuid.UUID) error {
	migration, err := s.Get(id)
	if err != nil {
		return err
	}
	if migration.Status == models.MigrationStatusInProgress || migration.Status == models.MigrationStatusPending {
		return ErrMigrationRunning
	}
	if !migration.CanRollback || migration.RollbackSnapshotID == nil {
		return ErrMigrationNoRollback
	}

	if _, err := s.snapshotSvc.Restore(ctx, actor, *migration.RollbackSnapshotID); err != nil {
		return err
	}

	migration.Status = models.MigrationStatusRolledBack
	s.save(migration)
	s.log(id, "rolled back from pre-migration snapshot")
	s.schemaSvc.Invalidate(migration.TargetConnectionID)
	return nil
}

func (s *MigrationService) save(migration *models.Migration) {
	if err := s.migrationRepo.Update(migration); err != nil {
		logging.Log.WithError(err).WithField("migration_id", migration.ID).Error("failed to persist migration state")
	}
}

func (s *MigrationService) log(id uuid.UUID, line string) {
	stamped := time.Now().Format("15:04:05") + " " + line
	if err := s.migrationRepo.AppendLog(id, stamped); err != nil {
		logging.Log.WithError(err).WithField("migration_id", id).Warn("failed to append migration log")
	}
}

func selectTables(schema *models.Schema, selected []string) []*models.Table {
	if len(selected) == 0 {
		out := make([]*models.Table, len(schema.Tables))
		for i := range schema.Tables {
			out[i] = &schema.Tables[i]
		}
		return out
	}
	want := make(map[string]bool, len(selected))
	for _, name := range selected {
		want[name] = true
	}
	var out []*models.Table
	for i := range schema.Tables {
		if want[schema.Tables[i].Name] {
			out = append(out, &schema.Tables[i])
		}
	}
	return out
}
