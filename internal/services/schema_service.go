package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"dblens/internal/models"
)

const schemaCacheTTL = 60 * time.Second

// SchemaService introspects target databases and caches the result briefly so
// repeated diagram loads do not hammer information_schema.
type SchemaService struct {
	connSvc *ConnectionService
	cache   *gocache.Cache
}

func NewSchemaService(connSvc *ConnectionService) *SchemaService {
	return &SchemaService{
		connSvc: connSvc,
		cache:   gocache.New(schemaCacheTTL, 5*time.Minute),
	}
}

func (s *SchemaService) Schema(ctx context.Context, connectionID uuid.UUID) (*models.Schema, error) {
	key := connectionID.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.Schema), nil
	}

	c, _, err := s.connSvc.Open(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	schema, err := c.Inspect(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, schema, gocache.DefaultExpiration)
	return schema, nil
}

// Invalidate drops the cached schema, used after writes that may have changed
// the structure.
func (s *SchemaService) Invalidate(connectionID uuid.UUID) {
	s.cache.Delete(connectionID.String())
}
