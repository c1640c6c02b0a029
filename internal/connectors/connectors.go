// Package connectors opens and introspects target databases. One Connector
// per database type; the rest of the server only sees this interface.
package connectors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dblens/internal/models"
)

var (
	// ErrUnsupportedDriver is returned for database types the server knows
	// about but cannot drive (currently mongodb).
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// QueryResult is the uniform shape of a read query across drivers.
type QueryResult struct {
	Columns         []string                 `json:"columns"`
	Rows            []map[string]interface{} `json:"rows"`
	RowCount        int                      `json:"row_count"`
	RowsAffected    int64                    `json:"rows_affected,omitempty"`
	ExecutionTimeMs float64                  `json:"execution_time_ms"`
}

// Metrics is one sample of a target database's vitals. Fields a driver cannot
// provide stay nil.
type Metrics struct {
	ActiveConnections *int
	MaxConnections    *int
	CacheHitRatio     *float64
	DatabaseSizeMB    *float64
	SlowQueryCount    *int
	QueriesPerSecond  *float64
	AvgQueryTimeMs    *float64
}

// Connector drives one target database.
type Connector interface {
	Ping(ctx context.Context) error
	Inspect(ctx context.Context) (*models.Schema, error)
	Query(ctx context.Context, query string, limit int) (*QueryResult, error)
	Execute(ctx context.Context, statement string) (int64, error)
	Metrics(ctx context.Context) (*Metrics, error)
	Close() error
}

// Open returns a connector for the connection's database type.
func Open(ctx context.Context, conn *models.DatabaseConnection) (Connector, error) {
	switch conn.Type {
	case models.DBTypePostgreSQL:
		return openPostgres(ctx, conn)
	case models.DBTypeMySQL:
		return openMySQL(ctx, conn)
	case models.DBTypeSQLite:
		return openSQLite(ctx, conn)
	case models.DBTypeMongoDB:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, conn.Type)
	default:
		return nil, fmt.Errorf("unknown database type %q", conn.Type)
	}
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
