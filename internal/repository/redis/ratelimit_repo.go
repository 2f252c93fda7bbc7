package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const RateLimitPrefix = "ratelimit"

// RateLimitRepository 固定窗口计数：第一次 INCR 时设置过期
type RateLimitRepository struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimitRepository(rdb *redis.Client, limit int, window time.Duration) *RateLimitRepository {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimitRepository{rdb: rdb, limit: int64(limit), window: window}
}

// Allow scope 区分不同接口，subject 一般为客户端 IP
func (r *RateLimitRepository) Allow(ctx context.Context, scope, subject string) (bool, error) {
	if r.limit <= 0 {
		return true, nil
	}
	key := fmt.Sprintf("%s:%s:%s", RateLimitPrefix, scope, subject)
	count, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		_ = r.rdb.Expire(ctx, key, r.window).Err()
	}
	return count <= r.limit, nil
}
