package services

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"dblens/internal/logging"
	"dblens/internal/models"
	"dblens/internal/repositories"
)

type AuditService struct {
	auditRepo *repositories.AuditRepository
}

func NewAuditService(auditRepo *repositories.AuditRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// Log records an audit entry. Failures are logged and swallowed so auditing
// never breaks the operation being audited.
func (s *AuditService) Log(entry *models.AuditLog) {
	if entry.ErrorMessage == "" {
		entry.Success = true
	}
	if err := s.auditRepo.Create(entry); err != nil {
		logging.Log.WithError(err).WithField("action", entry.ActionType).Error("failed to write audit log")
	}
}

func (s *AuditService) List(filter repositories.AuditFilter) ([]models.AuditLog, int64, error) {
	return s.auditRepo.List(filter)
}

type AuditStats struct {
	Total        int64            `json:"total"`
	Failures     int64            `json:"failures"`
	ActionCounts map[string]int64 `json:"action_counts"`
}

// Stats summarizes log volume inside the window. A non-positive window
// defaults to the last 24 hours.
func (s *AuditService) Stats(window time.Duration) (*AuditStats, error) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	since := time.Now().Add(-window)

	counts, err := s.auditRepo.ActionTypeCounts(since)
	if err != nil {
		return nil, err
	}
	failures, err := s.auditRepo.FailureCount(since)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	return &AuditStats{Total: total, Failures: failures, ActionCounts: counts}, nil
}

// ExportCSV streams the filtered log as CSV.
func (s *AuditService) ExportCSV(filter repositories.AuditFilter, w io.Writer) error {
	filter.PageSize = 500
	filter.Page = 1

	cw := csv.NewWriter(w)
	header := []string{"timestamp", "performed_by", "action_type", "resource_type", "resource_id", "resource_name", "description", "success", "error", "ip_address"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for {
		logs, _, err := s.auditRepo.List(filter)
		if err != nil {
			return err
		}
		for _, l := range logs {
			record := []string{
				l.CreatedAt.Format("2006-01-02 15:04:05"),
				l.PerformedBy,
				l.ActionType,
				l.ResourceType,
				l.ResourceID,
				l.ResourceName,
				l.ActionDescription,
				strconv.FormatBool(l.Success),
				l.ErrorMessage,
				l.IPAddress,
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		if len(logs) < filter.PageSize {
			break
		}
		filter.Page++
	}

	cw.Flush()
	return cw.Error()
}
