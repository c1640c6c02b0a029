package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// Databases

func (c *Client) ListDatabases(ctx context.Context) ([]Connection, error) {
	var out []Connection
	err := c.do(ctx, http.MethodGet, "/databases", nil, &out)
	return out, err
}

func (c *Client) GetDatabase(ctx context.Context, id string) (*Connection, error) {
	var out Connection
	if err := c.do(ctx, http.MethodGet, "/databases/"+pathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConnectionInput creates or updates a connection. Zero values are left
// untouched on update.
type ConnectionInput struct {
	Name         string `json:"name,omitempty"`
	Type         string `json:"type,omitempty"`
	Host         string `json:"host,omitempty"`
	Port         int    `json:"port,omitempty"`
	DatabaseName string `json:"database_name,omitempty"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	SSLMode      string `json:"ssl_mode,omitempty"`
	FilePath     string `json:"file_path,omitempty"`
}

func (c *Client) CreateDatabase(ctx context.Context, in ConnectionInput) (*Connection, error) {
	var out Connection
	if err := c.do(ctx, http.MethodPost, "/databases", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateDatabase(ctx context.Context, id string, in ConnectionInput) (*Connection, error) {
	var out Connection
	if err := c.do(ctx, http.MethodPatch, "/databases/"+pathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDatabase(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/databases/"+pathEscape(id), nil, nil)
}

// TestResult reports a connection test.
type TestResult struct {
	OK        bool    `json:"ok"`
	Message   string  `json:"message"`
	LatencyMs float64 `json:"latency_ms"`
}

func (c *Client) TestDatabase(ctx context.Context, id string) (*TestResult, error) {
	var out TestResult
	if err := c.do(ctx, http.MethodPost, "/databases/"+pathEscape(id)+"/test", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSchema introspects the target database's structure.
func (c *Client) GetSchema(ctx context.Context, id string) (*Schema, error) {
	var out Schema
	if err := c.do(ctx, http.MethodGet, "/databases/"+pathEscape(id)+"/schema", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Query runs a read-only statement and records it in the local query history.
func (c *Client) Query(ctx context.Context, id, query string, limit int) (*QueryResult, error) {
	var out QueryResult
	err := c.do(ctx, http.MethodPost, "/databases/"+pathEscape(id)+"/query", map[string]interface{}{
		"query": query,
		"limit": limit,
	}, &out)
	c.recordHistory(id, query, err == nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Execute runs a write statement. When the server responds with
// requires_confirmation the result carries that flag and no rows were
// touched; call again with confirm=true to proceed.
func (c *Client) Execute(ctx context.Context, id, query string, confirm bool) (*QueryResult, error) {
	var out QueryResult
	err := c.do(ctx, http.MethodPost, "/databases/"+pathEscape(id)+"/execute", map[string]interface{}{
		"query":   query,
		"confirm": confirm,
	}, &out)
	c.recordHistory(id, query, err == nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Roles and permissions

func (c *Client) MyPermissions(ctx context.Context) (*UserPermissions, error) {
	var out UserPermissions
	if err := c.do(ctx, http.MethodGet, "/roles/my-permissions", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	var out []Role
	err := c.do(ctx, http.MethodGet, "/roles", nil, &out)
	return out, err
}

type RoleInput struct {
	Name        string   `json:"name,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	Description string   `json:"description,omitempty"`
	Level       int      `json:"level,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

func (c *Client) CreateRole(ctx context.Context, in RoleInput) (*Role, error) {
	var out Role
	if err := c.do(ctx, http.MethodPost, "/roles", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateRole(ctx context.Context, id string, in RoleInput) (*Role, error) {
	var out Role
	if err := c.do(ctx, http.MethodPatch, "/roles/"+pathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteRole(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/roles/"+pathEscape(id), nil, nil)
}

func (c *Client) AssignRole(ctx context.Context, userID, roleID string) error {
	return c.do(ctx, http.MethodPost, "/roles/assign", map[string]string{
		"user_id": userID,
		"role_id": roleID,
	}, nil)
}

// Backups

func (c *Client) ListBackups(ctx context.Context, connectionID string) ([]Backup, error) {
	var out []Backup
	err := c.do(ctx, http.MethodGet, "/databases/"+pathEscape(connectionID)+"/backups", nil, &out)
	return out, err
}

func (c *Client) CreateBackup(ctx context.Context, connectionID, name, backupType string) (*Backup, error) {
	var out Backup
	err := c.do(ctx, http.MethodPost, "/databases/"+pathEscape(connectionID)+"/backups", map[string]string{
		"name":        name,
		"backup_type": backupType,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBackup(ctx context.Context, id string) (*Backup, error) {
	var out Backup
	if err := c.do(ctx, http.MethodGet, "/backups/"+pathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RestoreBackup(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/backups/"+pathEscape(id)+"/restore", nil, nil)
}

func (c *Client) DeleteBackup(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/backups/"+pathEscape(id), nil, nil)
}

// Backup schedules

func (c *Client) ListSchedules(ctx context.Context) ([]BackupSchedule, error) {
	var out []BackupSchedule
	err := c.do(ctx, http.MethodGet, "/backup-schedules", nil, &out)
	return out, err
}

type ScheduleInput struct {
	ConnectionID  string `json:"connection_id,omitempty"`
	Name          string `json:"name,omitempty"`
	BackupType    string `json:"backup_type,omitempty"`
	IntervalHours int    `json:"interval_hours,omitempty"`
	RetentionDays int    `json:"retention_days,omitempty"`
	Enabled       *bool  `json:"enabled,omitempty"`
}

func (c *Client) CreateSchedule(ctx context.Context, in ScheduleInput) (*BackupSchedule, error) {
	var out BackupSchedule
	if err := c.do(ctx, http.MethodPost, "/backup-schedules", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSchedule(ctx context.Context, id string, in ScheduleInput) (*BackupSchedule, error) {
	var out BackupSchedule
	if err := c.do(ctx, http.MethodPatch, "/backup-schedules/"+pathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSchedule(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/backup-schedules/"+pathEscape(id), nil, nil)
}

// Snapshots

func (c *Client) ListSnapshots(ctx context.Context, connectionID string) ([]Snapshot, error) {
	var out []Snapshot
	err := c.do(ctx, http.MethodGet, "/databases/"+pathEscape(connectionID)+"/snapshots", nil, &out)
	return out, err
}

func (c *Client) CreateSnapshot(ctx context.Context, connectionID, name, snapshotType, description string) (*Snapshot, error) {
	var out Snapshot
	err := c.do(ctx, http.MethodPost, "/databases/"+pathEscape(connectionID)+"/snapshots", map[string]string{
		"name":          name,
		"snapshot_type": snapshotType,
		"description":   description,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	var out Snapshot
	if err := c.do(ctx, http.MethodGet, "/snapshots/"+pathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RestoreSnapshot(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/snapshots/"+pathEscape(id)+"/restore", nil, nil)
}

func (c *Client) DeleteSnapshot(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/snapshots/"+pathEscape(id), nil, nil)
}

// Migrations

func (c *Client) ListMigrations(ctx context.Context) ([]Migration, error) {
	var out []Migration
	err := c.do(ctx, http.MethodGet, "/migrations", nil, &out)
	return out, err
}

type MigrationInput struct {
	SourceConnectionID string   `json:"source_connection_id"`
	TargetConnectionID string   `json:"target_connection_id"`
	Name               string   `json:"name,omitempty"`
	SelectedTables     []string `json:"selected_tables,omitempty"`
	MigrationType      string   `json:"migration_type,omitempty"`
	SkipSnapshot       bool     `json:"skip_snapshot,omitempty"`
}

func (c *Client) StartMigration(ctx context.Context, in MigrationInput) (*Migration, error) {
	var out Migration
	if err := c.do(ctx, http.MethodPost, "/migrations", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMigration polls a migration's status and progress.
func (c *Client) GetMigration(ctx context.Context, id string) (*Migration, error) {
	var out Migration
	if err := c.do(ctx, http.MethodGet, "/migrations/"+pathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MigrationLogs(ctx context.Context, id string) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, "/migrations/"+pathEscape(id)+"/logs", nil, &out)
	return out, err
}

func (c *Client) CancelMigration(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/migrations/"+pathEscape(id)+"/cancel", nil, nil)
}

func (c *Client) RollbackMigration(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/migrations/"+pathEscape(id)+"/rollback", nil, nil)
}

// Health

func (c *Client) CurrentHealth(ctx context.Context, connectionID string) (*HealthMetric, error) {
	var out HealthMetric
	if err := c.do(ctx, http.MethodGet, "/databases/"+pathEscape(connectionID)+"/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) HealthHistory(ctx context.Context, connectionID string, hours int) ([]HealthMetric, error) {
	var out []HealthMetric
	path := fmt.Sprintf("/databases/%s/health/history%s", pathEscape(connectionID),
		queryString(map[string]string{"hours": strconv.Itoa(hours)}))
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Audit logs

type AuditPage struct {
	Logs  []AuditLog `json:"logs"`
	Total int64      `json:"total"`
}

// AuditLogs lists audit entries; every filter value is optional.
func (c *Client) AuditLogs(ctx context.Context, filters map[string]string) (*AuditPage, error) {
	var out AuditPage
	if err := c.do(ctx, http.MethodGet, "/audit-logs"+queryString(filters), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Organizations

func (c *Client) ListOrganizations(ctx context.Context) ([]Organization, error) {
	var out []Organization
	err := c.do(ctx, http.MethodGet, "/organizations", nil, &out)
	return out, err
}

func (c *Client) CreateOrganization(ctx context.Context, name, description string) (*Organization, error) {
	var out Organization
	err := c.do(ctx, http.MethodPost, "/organizations", map[string]string{
		"name":        name,
		"description": description,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
