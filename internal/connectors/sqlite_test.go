package connectors

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dblens/internal/models"
)

func openTestDB(t *testing.T, name string) Connector {
	t.Helper()
	conn := &models.DatabaseConnection{
		Type:         models.DBTypeSQLite,
		DatabaseName: filepath.Join(t.TempDir(), name),
	}
	c, err := Open(context.Background(), conn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func seedShop(t *testing.T, c Connector) {
	t.Helper()
	ctx := context.Background()
	stmts := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL)`,
		`CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id),
			total REAL
		)`,
		`INSERT INTO users (id, email) VALUES (1, 'alice@example.com')`,
		`INSERT INTO users (id, email) VALUES (2, 'bob@example.com')`,
		`INSERT INTO orders (id, user_id, total) VALUES (1, 1, 9.5)`,
		`INSERT INTO orders (id, user_id, total) VALUES (2, 1, 12.0)`,
		`INSERT INTO orders (id, user_id, total) VALUES (3, 2, 3.25)`,
	}
	for _, stmt := range stmts {
		_, err := c.Execute(ctx, stmt)
		require.NoError(t, err)
	}
}

func TestSQLiteInspect(t *testing.T) {
	c := openTestDB(t, "shop.db")
	seedShop(t, c)

	schema, err := c.Inspect(context.Background())
	require.NoError(t, err)
	require.Len(t, schema.Tables, 2)

	byName := map[string]models.Table{}
	for _, table := range schema.Tables {
		byName[table.Name] = table
	}

	users, ok := byName["users"]
	require.True(t, ok)
	assert.Equal(t, []string{"id"}, users.PrimaryKeys)
	assert.EqualValues(t, 2, users.RowCount)
	require.Len(t, users.Columns, 2)

	orders, ok := byName["orders"]
	require.True(t, ok)
	assert.EqualValues(t, 3, orders.RowCount)
	require.Len(t, orders.ForeignKeys, 1)
	assert.Equal(t, "user_id", orders.ForeignKeys[0].Column)
	assert.Equal(t, "users", orders.ForeignKeys[0].ReferencesTable)
	assert.Equal(t, "id", orders.ForeignKeys[0].ReferencesColumn)
}

func TestSQLiteQueryLimit(t *testing.T) {
	c := openTestDB(t, "shop.db")
	seedShop(t, c)
	ctx := context.Background()

	result, err := c.Query(ctx, "SELECT * FROM orders ORDER BY id", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.RowCount)
	assert.Len(t, result.Rows, 2)
	assert.Contains(t, result.Columns, "user_id")

	// limit 0 means unlimited
	result, err = c.Query(ctx, "SELECT * FROM orders", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, result.RowCount)
}

func TestSQLiteExecuteRowsAffected(t *testing.T) {
	c := openTestDB(t, "shop.db")
	seedShop(t, c)

	affected, err := c.Execute(context.Background(), "DELETE FROM orders WHERE user_id = 1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)
}

func TestDumpRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := openTestDB(t, "source.db")
	seedShop(t, source)

	var dump bytes.Buffer
	stats, err := Dump(ctx, source, false, &dump)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TableCount)
	assert.EqualValues(t, 5, stats.TotalRows)
	assert.Contains(t, dump.String(), "CREATE TABLE")
	assert.Contains(t, dump.String(), "INSERT INTO")

	target := openTestDB(t, "target.db")
	applied, err := Restore(ctx, target, bytes.NewReader(dump.Bytes()))
	require.NoError(t, err)
	assert.Greater(t, applied, int64(0))

	result, err := target.Query(ctx, "SELECT email FROM users ORDER BY id", 0)
	require.NoError(t, err)
	require.Equal(t, 2, result.RowCount)
	assert.Equal(t, "alice@example.com", result.Rows[0]["email"])

	result, err = target.Query(ctx, "SELECT COUNT(*) AS n FROM orders", 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.RowCount)
	assert.EqualValues(t, 3, result.Rows[0]["n"])
}

func TestSchemaOnlyDump(t *testing.T) {
	ctx := context.Background()
	source := openTestDB(t, "source.db")
	seedShop(t, source)

	var dump bytes.Buffer
	stats, err := Dump(ctx, source, true, &dump)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TableCount)
	assert.Zero(t, stats.TotalRows)
	assert.NotContains(t, dump.String(), "INSERT INTO")
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), &models.DatabaseConnection{Type: models.DBTypeMongoDB})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}
