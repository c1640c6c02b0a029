package services

import (
	"compress/gzip"
	"context"
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

var ErrBackupNotReady = errors.New("backup file is not available")

type BackupService struct {
	backupRepo *repositories.BackupRepository
	connSvc    *ConnectionService
	auditSvc   *AuditService
	backupDir  string
}

func NewBackupService(backupRepo *repositories.BackupRepository, connSvc *ConnectionService, auditSvc *AuditService, backupDir string) *BackupService {
	return &BackupService{
		backupRepo: backupRepo,
		connSvc:    connSvc,
		auditSvc:   auditSvc,
		backupDir:  backupDir,
	}
}

func (s *BackupService) List(connectionID uuid.UUID) ([]models.Backup, error) {
	return s.backupRepo.ListByConnection(connectionID)
}

func (s *BackupService) Get(id uuid.UUID) (*models.Backup, error) {
	backup, err := s.backupRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if backup == nil {
		return nil, errors.New("backup not found")
	}
	return backup, nil
}

// Create registers a backup row and runs the dump in the background. The
// caller polls Get for status.
func (s *BackupService) Create(actor string, connectionID uuid.UUID, name, backupType string) (*models.Backup, error) {
	if backupType != models.BackupTypeFull && backupType != models.BackupTypeSchemaOnly {
		backupType = models.BackupTypeFull
	}
	conn, err := s.connSvc.Get(connectionID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = fmt.Sprintf("%s-%s", conn.Name, time.Now().Format("20060102-150405"))
	}

	backup := &models.Backup{
		ConnectionID: connectionID,
		Name:         name,
		BackupType:   backupType,
		Status:       models.BackupStatusPending,
		CreatedBy:    actor,
	}
	if err := s.backupRepo.Create(backup); err != nil {
		return nil, err
	}

	go s.run(backup.ID)
	return backup, nil
}

// CreateForSchedule is the scheduler entry point: same as Create but runs
// synchronously and tags the backup with its schedule.
func (s *BackupService) CreateForSchedule(ctx context.Context, schedule *models.BackupSchedule) (*models.Backup, error) {
	conn, err := s.connSvc.Get(schedule.ConnectionID)
	if err != nil {
		return nil, err
	}
	backup := &models.Backup{
		ConnectionID: schedule.ConnectionID,
		Name:         fmt.Sprintf("%s-scheduled-%s", conn.Name, time.Now().Format("20060102-150405")),
		BackupType:   schedule.BackupType,
		Status:       models.BackupStatusPending,
		CreatedBy:    "scheduler",
		ScheduleID:   &schedule.ID,
	}
	if err := s.backupRepo.Create(backup); err != nil {
		return nil, err
	}
	if err := s.perform(ctx, backup); err != nil {
		return backup, err
	}
	return backup, nil
}

func (s *BackupService) run(id uuid.UUID) {
	backup, err := s.backupRepo.FindByID(id)
	if err != nil || backup == nil {
		logging.Log.WithField("backup_id", id).Error("backup row disappeared before run")
		return
	}
	if err := s.perform(context.Background(), backup); err != nil {
		logging.Log.WithError(err).WithField("backup_id", id).Error("backup failed")
	}
}

func (s *BackupService) perform(ctx context.Context, backup *models.Backup) error {
	start := time.Now()
	backup.Status = models.BackupStatusInProgress
	backup.StartedAt = &start
	if err := s.backupRepo.Update(backup); err != nil {
		return err
	}

	fail := func(cause error) error {
		backup.Status = models.BackupStatusFailed
		backup.ErrorMessage = cause.Error()
		now := time.Now()
		backup.CompletedAt = &now
		backup.DurationSeconds = time.Since(start).Seconds()
		if err := s.backupRepo.Update(backup); err != nil {
			logging.Log.WithError(err).Error("failed to mark backup as failed")
		}
		return cause
	}

	c, conn, err := s.connSvc.Open(ctx, backup.ConnectionID)
	if err != nil {
		return fail(err)
	}
	defer c.Close()

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return fail(err)
	}
	path := filepath.Join(s.backupDir, backup.ID.String()+".sql.gz")
	f, err := os.Create(path)
	if err != nil {
		return fail(err)
	}

	gz := gzip.NewWriter(f)
	stats, dumpErr := connectors.Dump(ctx, c, backup.BackupType == models.BackupTypeSchemaOnly, gz)
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

	now := time.Now()
	backup.Status = models.BackupStatusCompleted
	backup.FilePath = path
	backup.FileSizeBytes = info.Size()
	backup.TableCount = stats.TableCount
	backup.TotalRows = stats.TotalRows
	backup.CompletedAt = &now
	backup.DurationSeconds = time.Since(start).Seconds()
	if err := s.backupRepo.Update(backup); err != nil {
		return err
	}

	s.auditSvc.Log(&models.AuditLog{
		PerformedBy:       backup.CreatedBy,
		ActionType:        "backup_create",
		ResourceType:      "backup",
		ResourceID:        backup.ID.String(),
		ResourceName:      backup.Name,
		ActionDescription: fmt.Sprintf("Backed up %s (%d tables, %d rows)", conn.Name, stats.TableCount, stats.TotalRows),
	})
	return nil
}

// Restore replays a completed backup into its connection.
func (s *BackupService) Restore(ctx context.Context, actor string, id uuid.UUID) (int64, error) {
	backup, err := s.Get(id)
	if err != nil {
		return 0, err
	}
	if backup.Status != models.BackupStatusCompleted || backup.FilePath == "" {
		return 0, ErrBackupNotReady
	}

	f, err := os.Open(backup.FilePath)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return 0, err
	}
	defer gz.Close()

	c, conn, err := s.connSvc.Open(ctx, backup.ConnectionID)
	if err != nil {
		return 0, err
	}
	defer c.Close()

	applied, err := connectors.Restore(ctx, c, gz)
	entry := &models.AuditLog{
		PerformedBy:       actor,
		ActionType:        "backup_restore",
		ResourceType:      "backup",
		ResourceID:        backup.ID.String(),
		ResourceName:      backup.Name,
		ActionDescription: fmt.Sprintf("Restored backup into %s", conn.Name),
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}
	s.auditSvc.Log(entry)
	return applied, err
}

// FilePath returns the on-disk dump for download.
func (s *BackupService) FilePath(id uuid.UUID) (string, string, error) {
	backup, err := s.Get(id)
	if err != nil {
		return "", "", err
	}
	if backup.Status != models.BackupStatusCompleted || backup.FilePath == "" {
		return "", "", ErrBackupNotReady
	}
	return backup.FilePath, backup.Name + ".sql.gz", nil
}

func (s *BackupService) Delete(actor string, id uuid.UUID) error {
	backup, err := s.Get(id)
	if err != nil {
		return err
	}
	if backup.FilePath != "" {
		if err := os.Remove(backup.FilePath); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if err := s.backupRepo.Delete(id); err != nil {
		return err
	}
	s.auditSvc.Log(&models.AuditLog{
		PerformedBy:       actor,
		ActionType:        "backup_delete",
		ResourceType:      "backup",
		ResourceID:        id.String(),
		ResourceName:      backup.Name,
		ActionDescription: "Backup deleted",
	})
	return nil
}

// PruneForSchedule deletes completed backups older than the schedule's
// retention window.
func (s *BackupService) PruneForSchedule(schedule *models.BackupSchedule) error {
	if schedule.RetentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -schedule.RetentionDays)
	old, err := s.backupRepo.ListOlderThan(schedule.ID, cutoff)
	if err != nil {
		return err
	}
	for i := range old {
		if err := s.Delete("scheduler", old[i].ID); err != nil {
			logging.Log.WithError(err).WithField("backup_id", old[i].ID).Warn("retention prune failed")
		}
	}
	return nil
}
