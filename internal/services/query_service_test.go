package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dblens/internal/models"
)

func TestValidateReadQuery(t *testing.T) {
	valid := []string{
		"SELECT * FROM users",
		"select id, email from users where id = 1",
		"  SELECT 1  ",
		"SELECT * FROM orders;",
		"SHOW TABLES",
		"DESCRIBE users",
		"DESC users",
		"EXPLAIN SELECT * FROM users",
		"SELECT deleted_at FROM users", // substring of a keyword is fine
		"SELECT * FROM updates_log",
	}
	for _, q := range valid {
		assert.NoError(t, ValidateReadQuery(q), "query: %s", q)
	}

	invalid := []string{
		"",
		"   ",
		";",
		"DELETE FROM users",
		"UPDATE users SET role = 'admin'",
		"DROP TABLE users",
		"TRUNCATE users",
		"INSERT INTO users VALUES (1)",
		"CREATE TABLE t (id int)",
		"ALTER TABLE users ADD COLUMN x int",
		"GRANT ALL ON users TO public",
		"SELECT 1; DROP TABLE users",
		"SELECT * FROM users; DELETE FROM users",
		"SELECT * FROM users WHERE name = 'x' UNION SELECT 1 FROM t; UPDATE t SET x = 1",
		"EXPLAIN DELETE FROM users",
		"WITH x AS (SELECT 1) SELECT * FROM x", // CTEs are not on the allow list
	}
	for _, q := range invalid {
		assert.Error(t, ValidateReadQuery(q), "query: %s", q)
	}
}

func TestStatementKind(t *testing.T) {
	assert.Equal(t, "SELECT", StatementKind("select * from users"))
	assert.Equal(t, "DELETE", StatementKind("  DELETE FROM users"))
	assert.Equal(t, "UPDATE", StatementKind("update t set x = 1"))
	assert.Equal(t, "", StatementKind("  "))
}

func TestExecuteRequiresConfirmation(t *testing.T) {
	svc := NewQueryService(nil, nil, nil)
	actor := &models.User{Username: "alice"}
	id := uuid.New()

	destructive := []string{
		"DELETE FROM users WHERE id = 1",
		"DROP TABLE users",
		"TRUNCATE users",
		"UPDATE users SET role = 'viewer'",
	}
	for _, q := range destructive {
		_, err := svc.Execute(context.Background(), actor, id, q, false)
		require.ErrorIs(t, err, ErrConfirmationRequired, "query: %s", q)
	}

	_, err := svc.Execute(context.Background(), actor, id, "", false)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestExecuteReturnsRowsAffected(t *testing.T) {
	_, connSvc, auditSvc := testConnectionStack(t)
	conn := createSQLiteConnection(t, connSvc, "exec")
	svc := NewQueryService(connSvc, NewSchemaService(connSvc), auditSvc)
	actor := &models.User{ID: uuid.New(), Username: "ops"}
	ctx := context.Background()

	_, err := svc.Execute(ctx, actor, conn.ID, "CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)", false)
	require.NoError(t, err)

	result, err := svc.Execute(ctx, actor, conn.ID, "INSERT INTO notes (body) VALUES ('a'), ('b')", false)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.EqualValues(t, 2, result.RowsAffected)

	result, err = svc.Execute(ctx, actor, conn.ID, "UPDATE notes SET body = 'c'", true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.RowsAffected)
}
