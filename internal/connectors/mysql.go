package connectors

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"dblens/internal/models"
)

type mysqlConnector struct {
	db     *sql.DB
	dbName string
}

func openMySQL(ctx context.Context, conn *models.DatabaseConnection) (Connector, error) {
	tls := "false"
	if conn.SSLMode != "" && conn.SSLMode != "disable" {
		tls = "true"
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=%s",
		conn.Username, conn.Password, conn.Host, conn.Port, conn.DatabaseName, tls)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &mysqlConnector{db: db, dbName: conn.DatabaseName}, nil
}

func (c *mysqlConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *mysqlConnector) Close() error {
	return c.db.Close()
}

func (c *mysqlConnector) Inspect(ctx context.Context) (*models.Schema, error) {
	schema := &models.Schema{
		DatabaseName: c.dbName,
		DatabaseType: models.DBTypeMySQL,
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, c.dbName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, name := range names {
		table := models.Table{Name: name, Type: "table"}

		if err := c.fillColumns(ctx, &table); err != nil {
			return nil, err
		}
		if err := c.fillForeignKeys(ctx, &table); err != nil {
			return nil, err
		}
		if err := c.db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdentMySQL(name))).Scan(&table.RowCount); err != nil {
			return nil, err
		}

		schema.Tables = append(schema.Tables, table)
	}

	return schema, nil
}

func (c *mysqlConnector) fillColumns(ctx context.Context, table *models.Table) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, column_default, column_key
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`, c.dbName, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var col models.Column
		var nullable, key string
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.Default, &key); err != nil {
			return err
		}
		col.Nullable = nullable == "YES"
		if key == "PRI" {
			table.PrimaryKeys = append(table.PrimaryKeys, col.Name)
		}
		table.Columns = append(table.Columns, col)
	}
	return rows.Err()
}

func (c *mysqlConnector) fillForeignKeys(ctx context.Context, table *models.Table) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT constraint_name, column_name, referenced_table_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ? AND table_name = ? AND referenced_table_name IS NOT NULL
	`, c.dbName, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var fk models.ForeignKey
		if err := rows.Scan(&fk.ConstraintName, &fk.Column, &fk.ReferencesTable, &fk.ReferencesColumn); err != nil {
			return err
		}
		table.ForeignKeys = append(table.ForeignKeys, fk)
	}
	return rows.Err()
}

func (c *mysqlConnector) Query(ctx context.Context, query string, limit int) (*QueryResult, error) {
	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows, limit, start)
}

func (c *mysqlConnector) Execute(ctx context.Context, statement string) (int64, error) {
	res, err := c.db.ExecContext(ctx, statement)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *mysqlConnector) Metrics(ctx context.Context) (*Metrics, error) {
	m := &Metrics{}

	var name string
	var value int
	if err := c.db.QueryRowContext(ctx,
		`SHOW STATUS LIKE 'Threads_connected'`).Scan(&name, &value); err == nil {
		m.ActiveConnections = intPtr(value)
	}
	if err := c.db.QueryRowContext(ctx,
		`SHOW VARIABLES LIKE 'max_connections'`).Scan(&name, &value); err == nil {
		m.MaxConnections = intPtr(value)
	}
	if err := c.db.QueryRowContext(ctx,
		`SHOW GLOBAL STATUS LIKE 'Slow_queries'`).Scan(&name, &value); err == nil {
		m.SlowQueryCount = intPtr(value)
	}

	var sizeMB float64
	if err := c.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(data_length + index_length) / 1024 / 1024, 0)
		FROM information_schema.tables WHERE table_schema = ?
	`, c.dbName).Scan(&sizeMB); err == nil {
		m.DatabaseSizeMB = floatPtr(sizeMB)
	}

	return m, nil
}
