package connectors

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dblens/internal/models"
)

type postgresConnector struct {
	pool   *pgxpool.Pool
	dbName string
}

func openPostgres(ctx context.Context, conn *models.DatabaseConnection) (Connector, error) {
	sslmode := conn.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		conn.Username, conn.Password, conn.Host, conn.Port, conn.DatabaseName, sslmode)

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	cfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &postgresConnector{pool: pool, dbName: conn.DatabaseName}, nil
}

func (c *postgresConnector) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *postgresConnector) Close() error {
	c.pool.Close()
	return nil
}

func (c *postgresConnector) Inspect(ctx context.Context) (*models.Schema, error) {
	tables, err := c.tableNames(ctx)
	if err != nil {
		return nil, err
	}

	schema := &models.Schema{
		DatabaseName: c.dbName,
		DatabaseType: models.DBTypePostgreSQL,
		Tables:       make([]models.Table, 0, len(tables)),
	}

	for _, name := range tables {
		table := models.Table{Name: name, Type: "table"}

		if table.Columns, err = c.columns(ctx, name); err != nil {
			return nil, err
		}
		if table.PrimaryKeys, err = c.primaryKeys(ctx, name); err != nil {
			return nil, err
		}
		if table.ForeignKeys, err = c.foreignKeys(ctx, name); err != nil {
			return nil, err
		}
		if table.Indexes, err = c.indexes(ctx, name); err != nil {
			return nil, err
		}
		if table.RowCount, err = c.rowCount(ctx, name); err != nil {
			return nil, err
		}

		schema.Tables = append(schema.Tables, table)
	}

	return schema, nil
}

func (c *postgresConnector) tableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (c *postgresConnector) columns(ctx context.Context, table string) ([]models.Column, error) {
	query := `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position
	`

	rows, err := c.pool.Query(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []models.Column
	for rows.Next() {
		var col models.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.Default); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (c *postgresConnector) primaryKeys(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = 'public'
			AND tc.table_name = $1
		ORDER BY kcu.ordinal_position
	`

	rows, err := c.pool.Query(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pks []string
	for rows.Next() {
		var pk string
		if err := rows.Scan(&pk); err != nil {
			return nil, err
		}
		pks = append(pks, pk)
	}
	return pks, rows.Err()
}

func (c *postgresConnector) foreignKeys(ctx context.Context, table string) ([]models.ForeignKey, error) {
	query := `
		SELECT
			tc.constraint_name,
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = 'public'
			AND tc.table_name = $1
	`

	rows, err := c.pool.Query(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []models.ForeignKey
	for rows.Next() {
		var fk models.ForeignKey
		if err := rows.Scan(&fk.ConstraintName, &fk.Column, &fk.ReferencesTable, &fk.ReferencesColumn); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func (c *postgresConnector) indexes(ctx context.Context, table string) ([]models.Index, error) {
	query := `
		SELECT i.relname, a.attname, ix.indisunique
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE t.relkind = 'r' AND t.relname = $1
		ORDER BY i.relname
	`

	rows, err := c.pool.Query(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := map[string]*models.Index{}
	var order []string
	for rows.Next() {
		var name, column string
		var unique bool
		if err := rows.Scan(&name, &column, &unique); err != nil {
			return nil, err
		}
		idx, ok := byName[name]
		if !ok {
			idx = &models.Index{Name: name, Unique: unique}
			byName[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	indexes := make([]models.Index, 0, len(order))
	for _, name := range order {
		indexes = append(indexes, *byName[name])
	}
	return indexes, nil
}

func (c *postgresConnector) rowCount(ctx context.Context, table string) (int64, error) {
	var count int64
	err := c.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, QuoteIdent(table))).Scan(&count)
	return count, err
}

func (c *postgresConnector) Query(ctx context.Context, query string, limit int) (*QueryResult, error) {
	start := time.Now()

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = string(f.Name)
	}

	result := &QueryResult{Columns: columns, Rows: []map[string]interface{}{}}
	for rows.Next() {
		if limit > 0 && result.RowCount >= limit {
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result.Rows = append(result.Rows, row)
		result.RowCount++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.ExecutionTimeMs = elapsedMs(start)
	return result, nil
}

func (c *postgresConnector) Execute(ctx context.Context, statement string) (int64, error) {
	tag, err := c.pool.Exec(ctx, statement)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (c *postgresConnector) Metrics(ctx context.Context) (*Metrics, error) {
	m := &Metrics{}

	var active, max int
	if err := c.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM pg_stat_activity WHERE datname = $1`, c.dbName).Scan(&active); err == nil {
		m.ActiveConnections = intPtr(active)
	}
	if err := c.pool.QueryRow(ctx,
		`SELECT setting::int FROM pg_settings WHERE name = 'max_connections'`).Scan(&max); err == nil {
		m.MaxConnections = intPtr(max)
	}

	var hit, read float64
	if err := c.pool.QueryRow(ctx,
		`SELECT COALESCE(blks_hit, 0), COALESCE(blks_read, 0) FROM pg_stat_database WHERE datname = $1`,
		c.dbName).Scan(&hit, &read); err == nil && hit+read > 0 {
		m.CacheHitRatio = floatPtr(hit / (hit + read) * 100)
	}

	var sizeBytes float64
	if err := c.pool.QueryRow(ctx,
		`SELECT pg_database_size($1)`, c.dbName).Scan(&sizeBytes); err == nil {
		m.DatabaseSizeMB = floatPtr(sizeBytes / 1024 / 1024)
	}

	return m, nil
}
