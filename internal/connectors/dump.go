package connectors

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"dblens/internal/models"
)

// DumpStats summarizes a completed logical dump.
type DumpStats struct {
	TableCount int
	TotalRows  int64
}

// Dump writes a logical SQL dump (CREATE TABLE statements, and INSERTs unless
// schemaOnly) of every table behind c. Statements are newline-terminated so
// Restore can replay them one by one.
func Dump(ctx context.Context, c Connector, schemaOnly bool, w io.Writer) (*DumpStats, error) {
	schema, err := c.Inspect(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DumpStats{TableCount: len(schema.Tables)}
	fmt.Fprintf(w, "-- dblens dump %s\n", time.Now().UTC().Format(time.RFC3339))

	for _, table := range schema.Tables {
		if _, err := io.WriteString(w, CreateTableStatement(&table)+"\n"); err != nil {
			return nil, err
		}

		if schemaOnly {
			continue
		}

		result, err := c.Query(ctx, fmt.Sprintf("SELECT * FROM %s", QuoteIdent(table.Name)), 0)
		if err != nil {
			return nil, err
		}
		for _, row := range result.Rows {
			if _, err := io.WriteString(w, InsertStatement(&table, result.Columns, row)+"\n"); err != nil {
				return nil, err
			}
			stats.TotalRows++
		}
	}

	return stats, nil
}

// Restore replays a dump produced by Dump against c, statement by statement.
// Comment lines are skipped.
func Restore(ctx context.Context, c Connector, r io.Reader) (int64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	var applied int64
	for scanner.Scan() {
		stmt := strings.TrimSpace(scanner.Text())
		if stmt == "" || strings.HasPrefix(stmt, "--") {
			continue
		}
		if _, err := c.Execute(ctx, stmt); err != nil {
			return applied, fmt.Errorf("restore failed at statement %d: %w", applied+1, err)
		}
		applied++
	}
	return applied, scanner.Err()
}

// CreateTableStatement renders a portable CREATE TABLE for a table description.
func CreateTableStatement(table *models.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (", QuoteIdent(table.Name))

	for i, col := range table.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", QuoteIdent(col.Name), col.DataType)
		if !col.Nullable {
			b.WriteString(" NOT NULL")
		}
	}

	if len(table.PrimaryKeys) > 0 {
		quoted := make([]string, len(table.PrimaryKeys))
		for i, pk := range table.PrimaryKeys {
			quoted[i] = QuoteIdent(pk)
		}
		fmt.Fprintf(&b, ", PRIMARY KEY (%s)", strings.Join(quoted, ", "))
	}

	b.WriteString(");")
	return b.String()
}

// InsertStatement renders one INSERT for a scanned row.
func InsertStatement(table *models.Table, columns []string, row map[string]interface{}) string {
	quoted := make([]string, len(columns))
	values := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = QuoteIdent(col)
		values[i] = sqlLiteral(row[col])
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		QuoteIdent(table.Name), strings.Join(quoted, ", "), strings.Join(values, ", "))
}

// sqlLiteral renders a Go value scanned from a driver as a SQL literal.
func sqlLiteral(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if value {
			return "TRUE"
		}
		return "FALSE"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", value)
	case float32, float64:
		return fmt.Sprintf("%v", value)
	case time.Time:
		return "'" + value.UTC().Format("2006-01-02 15:04:05") + "'"
	case []byte:
		return quoteString(string(value))
	case string:
		return quoteString(value)
	default:
		return quoteString(fmt.Sprintf("%v", value))
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
