package repositories

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository fronts the fast path for session revocation checks and the
// fixed-window rate limiter. The metadata store stays authoritative; redis
// only avoids a DB roundtrip per request.
type RedisRepository struct {
	rdb *redis.Client
}

func NewRedisRepository(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{rdb: rdb}
}

func (r *RedisRepository) StoreSession(ctx context.Context, jti string, userID string) error {
	return r.rdb.Set(ctx, "session:"+jti, userID, 30*24*time.Hour).Err()
}

func (r *RedisRepository) DeleteSession(ctx context.Context, jti string) error {
	return r.rdb.Del(ctx, "session:"+jti).Err()
}

func (r *RedisRepository) Blacklist(ctx context.Context, jti string) error {
	return r.rdb.Set(ctx, "blacklist:"+jti, "true", 30*24*time.Hour).Err()
}

func (r *RedisRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := r.rdb.Exists(ctx, "blacklist:"+jti).Result()
	return exists == 1, err
}

// IncrementRequestCount bumps the caller's fixed-window counter and returns
// the new count. The key expires with the window.
func (r *RedisRepository) IncrementRequestCount(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, "ratelimit:"+key)
	pipe.Expire(ctx, "ratelimit:"+key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
