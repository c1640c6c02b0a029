package services

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"dblens/internal/connectors"
	"dblens/internal/logging"
	"dblens/internal/models"
	"dblens/internal/repositories"
)

var ErrSnapshotNotReady = errors.New("snapshot is not completed")

type SnapshotService struct {
	snapshotRepo *repositories.SnapshotRepository
	connSvc      *ConnectionService
	auditSvc     *AuditService
	snapshotDir  string
}

func NewSnapshotService(snapshotRepo *repositories.SnapshotRepository, connSvc *ConnectionService, auditSvc *AuditService, snapshotDir string) *SnapshotService {
	return &SnapshotService{
		snapshotRepo: snapshotRepo,
		connSvc:      connSvc,
		auditSvc:     auditSvc,
		snapshotDir:  snapshotDir,
	}
}

func (s *SnapshotService) List(connectionID uuid.UUID) ([]models.Snapshot, error) {
	return s.snapshotRepo.ListByConnection(connectionID)
}

func (s *SnapshotService) Get(id uuid.UUID) (*models.Snapshot, error) {
	snapshot, err := s.snapshotRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, errors.New("snapshot not found")
	}
	return snapshot, nil
}

// Create registers a snapshot and captures it in the background.
func (s *SnapshotService) Create(actor string, connectionID uuid.UUID, name, snapshotType, description string) (*models.Snapshot, error) {
	switch snapshotType {
	case models.SnapshotTypeFull, models.SnapshotTypeSchemaOnly, models.SnapshotTypePreMigration, models.SnapshotTypeManual:
	default:
		snapshotType = models.SnapshotTypeManual
	}
	conn, err := s.connSvc.Get(connectionID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = fmt.Sprintf("%s-%s", conn.Name, time.Now().Format("20060102-150405"))
	}

	snapshot := &models.Snapshot{
		ConnectionID: connectionID,
		Name:         name,
		SnapshotType: snapshotType,
		Description:  description,
		Status:       models.SnapshotStatusPending,
		CreatedBy:    actor,
	}
	if err := s.snapshotRepo.Create(snapshot); err != nil {
		return nil, err
	}

	go func() {
		if err := s.capture(context.Background(), snapshot.ID); err != nil {
			logging.Log.WithError(err).WithField("snapshot_id", snapshot.ID).Error("snapshot capture failed")
		}
	}()
	return snapshot, nil
}

// CreateBeforeMigration captures a full snapshot synchronously so a migration
// has something to roll back to.
func (s *SnapshotService) CreateBeforeMigration(ctx context.Context, connectionID, migrationID uuid.UUID) (*models.Snapshot, error) {
	conn, err := s.connSvc.Get(connectionID)
	if err != nil {
		return nil, err
	}
	snapshot := &models.Snapshot{
		ConnectionID:       connectionID,
		Name:               fmt.Sprintf("%s-pre-migration-%s", conn.Name, time.Now().Format("20060102-150405")),
		SnapshotType:       models.SnapshotTypePreMigration,
		Status:             models.SnapshotStatusPending,
		RelatedMigrationID: &migrationID,
		CreatedBy:          "migration",
	}
	if err := s.snapshotRepo.Create(snapshot); err != nil {
		return nil, err
	}
	if err := s.capture(ctx, snapshot.ID); err != nil {
		return nil, err
	}
	return s.Get(snapshot.ID)
}

func (s *SnapshotService) capture(ctx context.Context, id uuid.UUID) error {
	snapshot, err := s.Get(id)
	if err != nil {
		return err
	}
	start := time.Now()
	snapshot.Status = models.SnapshotStatusInProgress
	snapshot.StartedAt = &start
	snapshot.ProgressPercentage = 5
	if err := s.snapshotRepo.Update(snapshot); err != nil {
		return err
	}

	fail := func(cause error) error {
		snapshot.Status = models.SnapshotStatusFailed
		snapshot.ErrorMessage = cause.Error()
		now := time.Now()
		snapshot.CompletedAt = &now
		snapshot.DurationSeconds = time.Since(start).Seconds()
		if err := s.snapshotRepo.Update(snapshot); err != nil {
			logging.Log.WithError(err).Error("failed to mark snapshot as failed")
		}
		return cause
	}

	c, _, err := s.connSvc.Open(ctx, snapshot.ConnectionID)
	if err != nil {
		return fail(err)
	}
	defer c.Close()

	schema, err := c.Inspect(ctx)
	if err != nil {
		return fail(err)
	}
	metadata, err := json.Marshal(schema)
	if err != nil {
		return fail(err)
	}
	snapshot.SchemaMetadata = metadata
	snapshot.TableCount = len(schema.Tables)
	snapshot.ProgressPercentage = 40
	if err := s.snapshotRepo.Update(snapshot); err != nil {
		return err
	}

	if snapshot.SnapshotType != models.SnapshotTypeSchemaOnly {
		if err := os.MkdirAll(s.snapshotDir, 0o755); err != nil {
			return fail(err)
		}
		path := filepath.Join(s.snapshotDir, snapshot.ID.String()+".sql.gz")
		f, err := os.Create(path)
		if err != nil {
			return fail(err)
		}
		gz := gzip.NewWriter(f)
		stats, dumpErr := connectors.Dump(ctx, c, false, gz)
		if cerr := gz.Close(); dumpErr == nil {
			dumpErr = cerr
		}
		if cerr := f.Close(); dumpErr == nil {
			dumpErr = cerr
		}
		if dumpErr != nil {
			os.Remove(path)
			return fail(dumpErr)
		}
		info, err := os.Stat(path)
		if err != nil {
			return fail(err)
		}
		snapshot.FilePath = path
		snapshot.FileSizeBytes = info.Size()
		snapshot.TotalRows = stats.TotalRows
	}

	now := time.Now()
	snapshot.Status = models.SnapshotStatusCompleted
	snapshot.ProgressPercentage = 100
	snapshot.CompletedAt = &now
	snapshot.DurationSeconds = time.Since(start).Seconds()
	return s.snapshotRepo.Update(snapshot)
}

// Restore replays a full snapshot's dump into its connection.
func (s *SnapshotService) Restore(ctx context.Context, actor string, id uuid.UUID) (int64, error) {
	snapshot, err := s.Get(id)
	if err != nil {
		return 0, err
	}
	if snapshot.Status != models.SnapshotStatusCompleted {
		return 0, ErrSnapshotNotReady
	}
	if snapshot.FilePath == "" {
		return 0, errors.New("schema-only snapshots cannot be restored")
	}

	f, err := os.Open(snapshot.FilePath)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return 0, err
	}
	defer gz.Close()

	c, conn, err := s.connSvc.Open(ctx, snapshot.ConnectionID)
	if err != nil {
		return 0, err
	}
	defer c.Close()

	applied, err := connectors.Restore(ctx, c, gz)
	if err == nil {
		now := time.Now()
		snapshot.RestoredCount++
		snapshot.LastRestoredAt = &now
		if uerr := s.snapshotRepo.Update(snapshot); uerr != nil {
			logging.Log.WithError(uerr).Warn("failed to record snapshot restore")
		}
	}

	entry := &models.AuditLog{
		PerformedBy:       actor,
		ActionType:        "snapshot_restore",
		ResourceType:      "snapshot",
		ResourceID:        snapshot.ID.String(),
		ResourceName:      snapshot.Name,
		ActionDescription: fmt.Sprintf("Restored snapshot into %s", conn.Name),
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}
	s.auditSvc.Log(entry)
	return applied, err
}

func (s *SnapshotService) Delete(actor string, id uuid.UUID) error {
	snapshot, err := s.Get(id)
	if err != nil {
		return err
	}
	if snapshot.FilePath != "" {
		if err := os.Remove(snapshot.FilePath); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if err := s.snapshotRepo.Delete(id); err != nil {
		return err
	}
	s.auditSvc.Log(&models.AuditLog{
		PerformedBy:       actor,
		ActionType:        "snapshot_delete",
		ResourceType:      "snapshot",
		ResourceID:        id.String(),
		ResourceName:      snapshot.Name,
		ActionDescription: "Snapshot deleted",
	})
	return nil
}

// SchemaOf decodes the schema captured with a snapshot.
func (s *SnapshotService) SchemaOf(id uuid.UUID) (*models.Schema, error) {
	snapshot, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if snapshot.Status != models.SnapshotStatusCompleted || len(snapshot.SchemaMetadata) == 0 {
		return nil, ErrSnapshotNotReady
	}
	var schema models.Schema
	if err := json.Unmarshal(snapshot.SchemaMetadata, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// TableDiff describes per-table column changes between two snapshots.
type TableDiff struct {
	Table          string   `json:"table"`
	AddedColumns   []string `json:"added_columns,omitempty"`
	RemovedColumns []string `json:"removed_columns,omitempty"`
}

type SchemaDiff struct {
	AddedTables    []string    `json:"added_tables"`
	RemovedTables  []string    `json:"removed_tables"`
	ModifiedTables []TableDiff `json:"modified_tables"`
}

// Compare diffs the schemas captured by two snapshots of the same connection,
// treating the first as the baseline.
func (s *SnapshotService) Compare(baseID, otherID uuid.UUID) (*SchemaDiff, error) {
	base, err := s.SchemaOf(baseID)
	if err != nil {
		return nil, err
	}
	other, err := s.SchemaOf(otherID)
	if err != nil {
		return nil, err
	}

	baseTables := make(map[string]*models.Table, len(base.Tables))
	for i := range base.Tables {
		baseTables[base.Tables[i].Name] = &base.Tables[i]
	}
	otherTables := make(map[string]*models.Table, len(other.Tables))
	for i := range other.Tables {
		otherTables[other.Tables[i].Name] = &other.Tables[i]
	}

	diff := &SchemaDiff{AddedTables: []string{}, RemovedTables: []string{}, ModifiedTables: []TableDiff{}}
	for name := range otherTables {
		if _, ok := baseTables[name]; !ok {
			diff.AddedTables = append(diff.AddedTables, name)
		}
	}
	for name, baseTable := range baseTables {
		otherTable, ok := otherTables[name]
		if !ok {
			diff.RemovedTables = append(diff.RemovedTables, name)
			continue
		}
		td := diffColumns(baseTable, otherTable)
		if len(td.AddedColumns) > 0 || len(td.RemovedColumns) > 0 {
			diff.ModifiedTables = append(diff.ModifiedTables, td)
		}
	}
	return diff, nil
}

func diffColumns(base, other *models.Table) TableDiff {
	td := TableDiff{Table: base.Name}
	baseCols := make(map[string]bool, len(base.Columns))
	for _, c := range base.Columns {
		baseCols[c.Name] = true
	}
	otherCols := make(map[string]bool, len(other.Columns))
	for _, c := range other.Columns {
		otherCols[c.Name] = true
	}
	for name := range otherCols {
		if !baseCols[name] {
			td.AddedColumns = append(td.AddedColumns, name)
		}
	}
	for name := range baseCols {
		if !otherCols[name] {
			td.RemovedColumns = append(td.RemovedColumns, name)
		}
	}
	return td
}
