package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"dblens/internal/logging"
	"dblens/internal/models"
	"dblens/internal/repositories"
)

// Scheduler drives backup schedules: a minute tick picks up every enabled
// schedule whose NextRunAt has passed, runs the backup and prunes old files.
type Scheduler struct {
	scheduleRepo *repositories.ScheduleRepository
	backupSvc    *BackupService
}

func NewScheduler(scheduleRepo *repositories.ScheduleRepository, backupSvc *BackupService) *Scheduler {
	return &Scheduler{scheduleRepo: scheduleRepo, backupSvc: backupSvc}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	due, err := s.scheduleRepo.Due(now)
	if err != nil {
		logging.Log.WithError(err).Error("scheduler: failed to list due schedules")
		return
	}
	for i := range due {
		s.runSchedule(ctx, &due[i], now)
	}
}

func (s *Scheduler) runSchedule(ctx context.Context, schedule *models.BackupSchedule, now time.Time) {
	log := logging.Log.WithField("schedule_id", schedule.ID)

	_, err := s.backupSvc.CreateForSchedule(ctx, schedule)
	if err != nil {
		log.WithError(err).Error("scheduled backup failed")
		schedule.LastStatus = models.BackupStatusFailed
	} else {
		schedule.LastStatus = models.BackupStatusCompleted
	}

	next := now.Add(time.Duration(schedule.IntervalHours) * time.Hour)
	schedule.LastRunAt = &now
	schedule.NextRunAt = &next
	if err := s.scheduleRepo.Update(schedule); err != nil {
		log.WithError(err).Error("failed to update schedule after run")
		return
	}

	if err := s.backupSvc.PruneForSchedule(schedule); err != nil {
		log.WithError(err).Warn("retention prune failed")
	}
}

type ScheduleService struct {
	scheduleRepo *repositories.ScheduleRepository
	connSvc      *ConnectionService
}

func NewScheduleService(scheduleRepo *repositories.ScheduleRepository, connSvc *ConnectionService) *ScheduleService {
	return &ScheduleService{scheduleRepo: scheduleRepo, connSvc: connSvc}
}

func (s *ScheduleService) List() ([]models.BackupSchedule, error) {
	return s.scheduleRepo.List()
}

func (s *ScheduleService) Get(id uuid.UUID) (*models.BackupSchedule, error) {
	schedule, err := s.scheduleRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, errors.New("schedule not found")
	}
	return schedule, nil
}

type ScheduleInput struct {
	ConnectionID  uuid.UUID
	Name          string
	BackupType    string
	IntervalHours int
	RetentionDays int
	Enabled       *bool
}

func (s *ScheduleService) Create(actor string, in ScheduleInput) (*models.BackupSchedule, error) {
	if in.IntervalHours < 1 {
		return nil, errors.New("interval must be at least one hour")
	}
	if _, err := s.connSvc.Get(in.ConnectionID); err != nil {
		return nil, err
	}
	if in.BackupType != models.BackupTypeSchemaOnly {
		in.BackupType = models.BackupTypeFull
	}

	next := time.Now().Add(time.Duration(in.IntervalHours) * time.Hour)
	schedule := &models.BackupSchedule{
		ConnectionID:  in.ConnectionID,
		Name:          in.Name,
		BackupType:    in.BackupType,
		IntervalHours: in.IntervalHours,
		RetentionDays: in.RetentionDays,
		Enabled:       true,
		NextRunAt:     &next,
		CreatedBy:     actor,
	}
	if in.RetentionDays <= 0 {
		schedule.RetentionDays = 30
	}
	if in.Enabled != nil {
		schedule.Enabled = *in.Enabled
	}
	if err := s.scheduleRepo.Create(schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *ScheduleService) Update(id uuid.UUID, in ScheduleInput) (*models.BackupSchedule, error) {
	schedule, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		schedule.Name = in.Name
	}
	if in.BackupType != "" {
		schedule.BackupType = in.BackupType
	}
	if in.IntervalHours > 0 {
		schedule.IntervalHours = in.IntervalHours
		next := time.Now().Add(time.Duration(in.IntervalHours) * time.Hour)
		schedule.NextRunAt = &next
	}
	if in.RetentionDays > 0 {
		schedule.RetentionDays = in.RetentionDays
	}
	if in.Enabled != nil {
		schedule.Enabled = *in.Enabled
	}
	if err := s.scheduleRepo.Update(schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *ScheduleService) Delete(id uuid.UUID) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.scheduleRepo.Delete(id)
}
