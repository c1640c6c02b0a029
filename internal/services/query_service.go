package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"dblens/internal/connectors"
	"dblens/internal/models"
)

const defaultRowLimit = 1000

var readOnlyPrefixes = []string{"SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN"}

// dangerousKeywords are rejected anywhere inside a read-only query so a
// semicolon-smuggled statement cannot slip through.
var dangerousKeywords = []string{
	"DROP", "DELETE", "TRUNCATE", "ALTER", "CREATE",
	"INSERT", "UPDATE", "GRANT", "REVOKE", "EXEC", "EXECUTE",
}

// confirmKeywords are write statements which the API refuses to run until the
// caller repeats the request with confirm=true.
var confirmKeywords = map[string]bool{
	"DELETE":   true,
	"DROP":     true,
	"TRUNCATE": true,
	"UPDATE":   true,
}

var wordRe = regexp.MustCompile(`[A-Za-z_]+`)

var ErrEmptyQuery = errors.New("query is empty")

// ErrConfirmationRequired is returned for destructive writes that were not
// confirmed. Handlers translate this into a requires_confirmation response
// rather than an error.
var ErrConfirmationRequired = errors.New("destructive statement requires confirmation")

// ValidateReadQuery enforces the read-only contract: a single statement that
// starts with SELECT, SHOW, DESCRIBE or EXPLAIN and contains no write keyword.
func ValidateReadQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if trimmed == "" {
		return ErrEmptyQuery
	}
	if strings.Contains(trimmed, ";") {
		return errors.New("multiple statements are not allowed")
	}

	upper := strings.ToUpper(trimmed)
	allowed := false
	for _, prefix := range readOnlyPrefixes {
		if strings.HasPrefix(upper, prefix+" ") || upper == prefix {
			allowed = true
			break
		}
	}
	if !allowed {
		return errors.New("only SELECT, SHOW, DESCRIBE and EXPLAIN queries are allowed")
	}

	for _, word := range wordRe.FindAllString(upper, -1) {
		for _, kw := range dangerousKeywords {
			if word == kw {
				return fmt.Errorf("query contains forbidden keyword: %s", kw)
			}
		}
	}
	return nil
}

// StatementKind returns the leading keyword of a statement, uppercased.
func StatementKind(query string) string {
	word := wordRe.FindString(strings.ToUpper(strings.TrimSpace(query)))
	return word
}

type QueryService struct {
	connSvc   *ConnectionService
	schemaSvc *SchemaService
	auditSvc  *AuditService
}

func NewQueryService(connSvc *ConnectionService, schemaSvc *SchemaService, auditSvc *AuditService) *QueryService {
	return &QueryService{connSvc: connSvc, schemaSvc: schemaSvc, auditSvc: auditSvc}
}

// Read runs a validated read-only query with a row cap.
func (s *QueryService) Read(ctx context.Context, actor *models.User, connectionID uuid.UUID, query string, limit int) (*connectors.QueryResult, error) {
	if err := ValidateReadQuery(query); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > defaultRowLimit {
		limit = defaultRowLimit
	}

	c, conn, err := s.connSvc.Open(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	result, err := c.Query(ctx, query, limit)
	s.logQuery(actor, conn, "query_execute", query, err)
	return result, err
}

// Execute runs a write statement. Destructive kinds are refused until the
// caller confirms, and a successful write invalidates the schema cache.
func (s *QueryService) Execute(ctx context.Context, actor *models.User, connectionID uuid.UUID, query string, confirm bool) (*connectors.QueryResult, error) {
	kind := StatementKind(query)
	if kind == "" {
		return nil, ErrEmptyQuery
	}
	if confirmKeywords[kind] && !confirm {
		return nil, ErrConfirmationRequired
	}

	c, conn, err := s.connSvc.Open(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	start := time.Now()
	affected, err := c.Execute(ctx, query)
	s.logQuery(actor, conn, "write_execute", query, err)
	if err != nil {
		return nil, err
	}
	s.schemaSvc.Invalidate(connectionID)

	return &connectors.QueryResult{
		RowsAffected:    affected,
		ExecutionTimeMs: float64(time.Since(start).Microseconds()) / 1000,
	}, nil
}

func (s *QueryService) logQuery(actor *models.User, conn *models.DatabaseConnection, action, query string, execErr error) {
	entry := &models.AuditLog{
		PerformedBy:       actor.Username,
		ActionType:        action,
		ResourceType:      "database_connection",
		ResourceID:        conn.ID.String(),
		ResourceName:      conn.Name,
		ActionDescription: fmt.Sprintf("%s statement on %s", StatementKind(query), conn.DatabaseName),
		QueryExecuted:     query,
	}
	if execErr != nil {
		entry.Success = false
		entry.ErrorMessage = execErr.Error()
	}
	s.auditSvc.Log(entry)
}
