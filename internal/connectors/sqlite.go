package connectors

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"dblens/internal/models"
)

type sqliteConnector struct {
	db   *sql.DB
	path string
}

// openSQLite opens the connection's database file; host and port are ignored
// for this driver.
func openSQLite(ctx context.Context, conn *models.DatabaseConnection) (Connector, error) {
	path := conn.FilePath
	if path == "" {
		path = conn.DatabaseName
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite files do not tolerate concurrent writers
	db.SetMaxOpenConns(1)

	return &sqliteConnector{db: db, path: path}, nil
}

func (c *sqliteConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *sqliteConnector) Close() error {
	return c.db.Close()
}

func (c *sqliteConnector) Inspect(ctx context.Context) (*models.Schema, error) {
	schema := &models.Schema{
		DatabaseName: c.path,
		DatabaseType: models.DBTypeSQLite,
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
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
		if err := c.fillIndexes(ctx, &table); err != nil {
			return nil, err
		}
		if err := c.db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s", QuoteIdent(name))).Scan(&table.RowCount); err != nil {
			return nil, err
		}

		schema.Tables = append(schema.Tables, table)
	}

	return schema, nil
}

func (c *sqliteConnector) fillColumns(ctx context.Context, table *models.Table) error {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", QuoteIdent(table.Name)))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid, notNull, pk int
		var name, dataType string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
			return err
		}
		col := models.Column{Name: name, DataType: dataType, Nullable: notNull == 0}
		if dflt.Valid {
			col.Default = &dflt.String
		}
		if pk > 0 {
			table.PrimaryKeys = append(table.PrimaryKeys, name)
		}
		table.Columns = append(table.Columns, col)
	}
	return rows.Err()
}

func (c *sqliteConnector) fillForeignKeys(ctx context.Context, table *models.Table) error {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", QuoteIdent(table.Name)))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, seq int
		var refTable, from, to, onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return err
		}
		table.ForeignKeys = append(table.ForeignKeys, models.ForeignKey{
			Column:           from,
			ReferencesTable:  refTable,
			ReferencesColumn: to,
		})
	}
	return rows.Err()
}

func (c *sqliteConnector) fillIndexes(ctx context.Context, table *models.Table) error {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", QuoteIdent(table.Name)))
	if err != nil {
		return err
	}
	defer rows.Close()

	type indexMeta struct {
		name   string
		unique bool
	}
	var metas []indexMeta
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return err
		}
		metas = append(metas, indexMeta{name: name, unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, meta := range metas {
		idx := models.Index{Name: meta.name, Unique: meta.unique}
		cols, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", QuoteIdent(meta.name)))
		if err != nil {
			return err
		}
		for cols.Next() {
			var seqno, cid int
			var colName sql.NullString
			if err := cols.Scan(&seqno, &cid, &colName); err != nil {
				cols.Close()
				return err
			}
			if colName.Valid {
				idx.Columns = append(idx.Columns, colName.String)
			}
		}
		if err := cols.Err(); err != nil {
			cols.Close()
			return err
		}
		cols.Close()
		table.Indexes = append(table.Indexes, idx)
	}
	return nil
}

func (c *sqliteConnector) Query(ctx context.Context, query string, limit int) (*QueryResult, error) {
	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows, limit, start)
}

func (c *sqliteConnector) Execute(ctx context.Context, statement string) (int64, error) {
	res, err := c.db.ExecContext(ctx, statement)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *sqliteConnector) Metrics(ctx context.Context) (*Metrics, error) {
	m := &Metrics{}

	if info, err := os.Stat(c.path); err == nil {
		m.DatabaseSizeMB = floatPtr(float64(info.Size()) / 1024 / 1024)
	}

	var pageCount, pageSize float64
	if err := c.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := c.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err == nil {
			m.DatabaseSizeMB = floatPtr(pageCount * pageSize / 1024 / 1024)
		}
	}

	// a file-backed database has exactly this process connected
	m.ActiveConnections = intPtr(1)
	m.MaxConnections = intPtr(1)

	start := time.Now()
	if err := c.db.QueryRowContext(ctx, "SELECT 1").Scan(new(int)); err == nil {
		m.AvgQueryTimeMs = floatPtr(elapsedMs(start))
	}

	return m, nil
}
