package connectors

import (
	"database/sql"
	"strings"
	"time"
)

// QuoteIdent double-quotes an identifier, escaping embedded quotes. Works for
// postgres and sqlite; mysql connectors use backticks instead.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdentMySQL(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// scanRows drains a database/sql result set into the uniform QueryResult,
// stopping at limit rows when limit > 0.
func scanRows(rows *sql.Rows, limit int, start time.Time) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: columns, Rows: []map[string]interface{}{}}
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if limit > 0 && result.RowCount >= limit {
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
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
