package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dblens/internal/models"
	"dblens/internal/repositories"
)

const healthRetention = 7 * 24 * time.Hour

type HealthService struct {
	healthRepo *repositories.HealthRepository
	connSvc    *ConnectionService
}

func NewHealthService(healthRepo *repositories.HealthRepository, connSvc *ConnectionService) *HealthService {
	return &HealthService{healthRepo: healthRepo, connSvc: connSvc}
}

// Collect samples the target database's metrics and stores the result.
func (s *HealthService) Collect(ctx context.Context, connectionID uuid.UUID) (*models.HealthMetric, error) {
	c, _, err := s.connSvc.Open(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	m, err := c.Metrics(ctx)
	if err != nil {
		return nil, err
	}

	metric := &models.HealthMetric{
		ConnectionID:      connectionID,
		ActiveConnections: m.ActiveConnections,
		MaxConnections:    m.MaxConnections,
		AvgQueryTimeMs:    m.AvgQueryTimeMs,
		SlowQueryCount:    m.SlowQueryCount,
		QueriesPerSecond:  m.QueriesPerSecond,
		CacheHitRatio:     m.CacheHitRatio,
		DatabaseSizeMB:    m.DatabaseSizeMB,
	}
	if err := s.healthRepo.Create(metric); err != nil {
		return nil, err
	}
	return metric, nil
}

func (s *HealthService) History(connectionID uuid.UUID, window time.Duration, limit int) ([]models.HealthMetric, error) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return s.healthRepo.History(connectionID, time.Now().Add(-window), limit)
}

func (s *HealthService) Stats(connectionID uuid.UUID, window time.Duration) (*repositories.HealthStats, error) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return s.healthRepo.Stats(connectionID, time.Now().Add(-window))
}

// Prune drops samples past the retention window.
func (s *HealthService) Prune() error {
	return s.healthRepo.DeleteOlderThan(time.Now().Add(-healthRetention))
}
