// Package client is a Go SDK for the DBLens REST API. It owns token refresh,
// retry and error normalization so callers only deal with typed results.
package client

import "time"

// User is the account snapshot returned by the auth endpoints.
type User struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TokenPair is the payload of login, register and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// UserPermissions mirrors GET /roles/my-permissions.
type UserPermissions struct {
	UserID         string   `json:"user_id"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Roles          []string `json:"roles"`
	Permissions    []string `json:"permissions"`
	HighestRole    string   `json:"highest_role"`
	HighestLevel   int      `json:"highest_level"`
	IsSuperAdmin   bool     `json:"is_super_admin"`
	IsAdmin        bool     `json:"is_admin"`
	CanManageRoles bool     `json:"can_manage_roles"`
}

type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description,omitempty"`
	Level       int      `json:"level"`
	IsSystem    bool     `json:"is_system"`
	Permissions []string `json:"permission_keys,omitempty"`
}

// Connection is a stored target-database connection.
type Connection struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	Host         string     `json:"host,omitempty"`
	Port         int        `json:"port,omitempty"`
	DatabaseName string     `json:"database_name,omitempty"`
	Username     string     `json:"username,omitempty"`
	SSLMode      string     `json:"ssl_mode,omitempty"`
	FilePath     string     `json:"file_path,omitempty"`
	LastTestedAt *time.Time `json:"last_tested_at,omitempty"`
	LastTestOK   bool       `json:"last_test_ok"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Column, ForeignKey, Index, Table and Schema mirror the backend's schema
// introspection payload.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"type"`
	Nullable bool   `json:"nullable"`
	Default  string `json:"default,omitempty"`
}

type ForeignKey struct {
	ConstraintName   string `json:"constraint_name,omitempty"`
	Column           string `json:"column"`
	ReferencesTable  string `json:"references_table"`
	ReferencesColumn string `json:"references_column"`
}

type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

type Table struct {
	Name        string       `json:"name"`
	Type        string       `json:"type,omitempty"`
	Columns     []Column     `json:"columns"`
	PrimaryKeys []string     `json:"primary_keys,omitempty"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
	Indexes     []Index      `json:"indexes,omitempty"`
	RowCount    int64        `json:"row_count,omitempty"`
	ColorIndex  *int         `json:"color_index,omitempty"`
}

type Schema struct {
	DatabaseName string  `json:"database_name"`
	DatabaseType string  `json:"database_type"`
	Tables       []Table `json:"tables"`
}

// QueryResult is the uniform result of /query and /execute.
type QueryResult struct {
	Columns              []string                 `json:"columns,omitempty"`
	Rows                 []map[string]interface{} `json:"rows,omitempty"`
	RowCount             int                      `json:"row_count"`
	RowsAffected         int64                    `json:"rows_affected"`
	ExecutionTimeMs      float64                  `json:"execution_time_ms"`
	RequiresConfirmation bool                     `json:"requires_confirmation,omitempty"`
	StatementKind        string                   `json:"statement_kind,omitempty"`
}

type Backup struct {
	ID              string     `json:"id"`
	ConnectionID    string     `json:"connection_id"`
	Name            string     `json:"name"`
	BackupType      string     `json:"backup_type"`
	Status          string     `json:"status"`
	FileSizeBytes   int64      `json:"file_size_bytes"`
	TableCount      int        `json:"table_count"`
	TotalRows       int64      `json:"total_rows"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationSeconds float64    `json:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
}

type BackupSchedule struct {
	ID            string     `json:"id"`
	ConnectionID  string     `json:"connection_id"`
	Name          string     `json:"name"`
	BackupType    string     `json:"backup_type"`
	IntervalHours int        `json:"interval_hours"`
	Enabled       bool       `json:"enabled"`
	RetentionDays int        `json:"retention_days"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	NextRunAt     *time.Time `json:"next_run_at,omitempty"`
	LastStatus    string     `json:"last_status,omitempty"`
}

type Snapshot struct {
	ID                 string     `json:"id"`
	ConnectionID       string     `json:"connection_id"`
	Name               string     `json:"name"`
	SnapshotType       string     `json:"snapshot_type"`
	Description        string     `json:"description,omitempty"`
	Status             string     `json:"status"`
	ProgressPercentage float64    `json:"progress_percentage"`
	TableCount         int        `json:"table_count"`
	TotalRows          int64      `json:"total_rows"`
	ErrorMessage       string     `json:"error_message,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type Migration struct {
	ID                 string     `json:"id"`
	SourceConnectionID string     `json:"source_connection_id"`
	TargetConnectionID string     `json:"target_connection_id"`
	Name               string     `json:"name"`
	SelectedTables     []string   `json:"selected_tables,omitempty"`
	MigrationType      string     `json:"migration_type"`
	Status             string     `json:"status"`
	ProgressPercentage float64    `json:"progress_percentage"`
	CurrentStep        string     `json:"current_step,omitempty"`
	TotalTables        int        `json:"total_tables"`
	CompletedTables    int        `json:"completed_tables"`
	MigratedRows       int64      `json:"migrated_rows"`
	SuccessMessage     string     `json:"success_message,omitempty"`
	ErrorMessage       string     `json:"error_message,omitempty"`
	CanRollback        bool       `json:"can_rollback"`
	RollbackSnapshotID *string    `json:"rollback_snapshot_id,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type HealthMetric struct {
	ID                string    `json:"id"`
	ConnectionID      string    `json:"connection_id"`
	Timestamp         time.Time `json:"timestamp"`
	ActiveConnections *int      `json:"active_connections,omitempty"`
	MaxConnections    *int      `json:"max_connections,omitempty"`
	AvgQueryTimeMs    *float64  `json:"avg_query_time_ms,omitempty"`
	SlowQueryCount    *int      `json:"slow_query_count,omitempty"`
	QueriesPerSecond  *float64  `json:"queries_per_second,omitempty"`
	CacheHitRatio     *float64  `json:"cache_hit_ratio,omitempty"`
	DatabaseSizeMB    *float64  `json:"database_size_mb,omitempty"`
}

type AuditLog struct {
	ID                string    `json:"id"`
	PerformedBy       string    `json:"performed_by"`
	ActionType        string    `json:"action_type"`
	ResourceType      string    `json:"resource_type,omitempty"`
	ResourceID        string    `json:"resource_id,omitempty"`
	ResourceName      string    `json:"resource_name,omitempty"`
	ActionDescription string    `json:"action_description,omitempty"`
	QueryExecuted     string    `json:"query_executed,omitempty"`
	Success           bool      `json:"success"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	IPAddress         string    `json:"ip_address,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
