package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dblens/internal/connectors"
	"dblens/internal/models"
	"dblens/internal/repositories"
)

var ErrConnectionNotFound = errors.New("database connection not found")

type ConnectionService struct {
	connRepo    *repositories.ConnectionRepository
	settingRepo *repositories.SettingRepository
	auditSvc    *AuditService
}

func NewConnectionService(connRepo *repositories.ConnectionRepository, settingRepo *repositories.SettingRepository, auditSvc *AuditService) *ConnectionService {
	return &ConnectionService{connRepo: connRepo, settingRepo: settingRepo, auditSvc: auditSvc}
}

func (s *ConnectionService) List(orgID *uuid.UUID) ([]models.DatabaseConnection, error) {
	return s.connRepo.List(orgID)
}

func (s *ConnectionService) Get(id uuid.UUID) (*models.DatabaseConnection, error) {
	conn, err := s.connRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, ErrConnectionNotFound
	}
	return conn, nil
}

type ConnectionInput struct {
	Name         string
	Type         string
	Host         string
	Port         int
	DatabaseName string
	Username     string
	Password     string
	SSLMode      string
	FilePath     string
}

// Create stores a connection. Empty username/password fall back to the
// organization-wide defaults kept in app settings.
func (s *ConnectionService) Create(actor *models.User, orgID *uuid.UUID, in ConnectionInput) (*models.DatabaseConnection, error) {
	if !models.ValidDBType(in.Type) {
		return nil, fmt.Errorf("unsupported database type: %s", in.Type)
	}
	s.applyDefaults(&in)

	conn := &models.DatabaseConnection{
		Name:           in.Name,
		Type:           in.Type,
		Host:           in.Host,
		Port:           in.Port,
		DatabaseName:   in.DatabaseName,
		Username:       in.Username,
		Password:       in.Password,
		SSLMode:        in.SSLMode,
		FilePath:       in.FilePath,
		CreatedBy:      actor.ID,
		OrganizationID: orgID,
	}
	if err := s.connRepo.Create(conn); err != nil {
		return nil, err
	}

	s.auditSvc.Log(&models.AuditLog{
		PerformedBy:       actor.Username,
		ActionType:        "connection_create",
		ResourceType:      "database_connection",
		ResourceID:        conn.ID.String(),
		ResourceName:      conn.Name,
		ActionDescription: fmt.Sprintf("Added %s connection", conn.Type),
	})
	return conn, nil
}

func (s *ConnectionService) Update(actor *models.User, id uuid.UUID, in ConnectionInput) (*models.DatabaseConnection, error) {
	conn, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if in.Type != "" && !models.ValidDBType(in.Type) {
		return nil, fmt.Errorf("unsupported database type: %s", in.Type)
	}

	if in.Name != "" {
		conn.Name = in.Name
	}
	if in.Type != "" {
		conn.Type = in.Type
	}
	if in.Host != "" {
		conn.Host = in.Host
	}
	if in.Port != 0 {
		conn.Port = in.Port
	}
	if in.DatabaseName != "" {
		conn.DatabaseName = in.DatabaseName
	}
	if in.Username != "" {
		conn.Username = in.Username
	}
	if in.Password != "" {
		conn.Password = in.Password
	}
	if in.SSLMode != "" {
		conn.SSLMode = in.SSLMode
	}
	if in.FilePath != "" {
		conn.FilePath = in.FilePath
	}

	if err := s.connRepo.Update(conn); err != nil {
		return nil, err
	}
	s.auditSvc.Log(&models.AuditLog{
		PerformedBy:       actor.Username,
		ActionType:        "connection_update",
		ResourceType:      "database_connection",
		ResourceID:        conn.ID.String(),
		ResourceName:      conn.Name,
		ActionDescription: "Connection updated",
	})
	return conn, nil
}

func (s *ConnectionService) Delete(actor *models.User, id uuid.UUID) error {
	conn, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.connRepo.Delete(id); err != nil {
		return err
	}
	s.auditSvc.Log(&models.AuditLog{
		PerformedBy:       actor.Username,
		ActionType:        "connection_delete",
		ResourceType:      "database_connection",
		ResourceID:        id.String(),
		ResourceName:      conn.Name,
		ActionDescription: "Connection removed",
	})
	return nil
}

type TestResult struct {
	OK        bool    `json:"ok"`
	Message   string  `json:"message"`
	LatencyMs float64 `json:"latency_ms"`
}

// Test opens the target database and pings it, recording the outcome on the
// connection row.
func (s *ConnectionService) Test(ctx context.Context, id uuid.UUID) (*TestResult, error) {
	conn, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := &TestResult{OK: true, Message: "connection successful"}

	c, err := connectors.Open(ctx, conn)
	if err == nil {
		err = c.Ping(ctx)
		c.Close()
	}
	if err != nil {
		result.OK = false
		result.Message = err.Error()
	}
	result.LatencyMs = float64(time.Since(start).Microseconds()) / 1000

	now := time.Now()
	conn.LastTestedAt = &now
	conn.LastTestOK = result.OK
	if err := s.connRepo.Update(conn); err != nil {
		return nil, err
	}
	return result, nil
}

// Open hands out a live connector for the stored connection. Callers own the
// returned connector and must Close it.
func (s *ConnectionService) Open(ctx context.Context, id uuid.UUID) (connectors.Connector, *models.DatabaseConnection, error) {
	conn, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	c, err := connectors.Open(ctx, conn)
	if err != nil {
		return nil, nil, err
	}
	return c, conn, nil
}

func (s *ConnectionService) applyDefaults(in *ConnectionInput) {
	if in.Username == "" {
		if setting, err := s.settingRepo.Get(models.SettingDefaultDBUsername); err == nil && setting != nil {
			in.Username = setting.Value
		}
	}
	if in.Password == "" {
		if setting, err := s.settingRepo.Get(models.SettingDefaultDBPassword); err == nil && setting != nil {
			in.Password = setting.Value
		}
	}
}
