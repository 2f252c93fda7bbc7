package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
	ErrExtendFailed     = errors.New("token extend failed")
	ErrTokenDeleted     = errors.New("token delete failed")
)

const (
	UserTokenPrefix = "login:user:token"
	UserTokenExpire = 30 * time.Minute
)

// TokenRepository 每个用户只保留一个有效 access token，后登录的顶掉先登录的
type TokenRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTokenRepository(rdb *redis.Client, ttl time.Duration) *TokenRepository {
	if ttl <= 0 {
		ttl = UserTokenExpire
	}
	return &TokenRepository{rdb: rdb, ttl: ttl}
}

func (r *TokenRepository) key(userID string) string {
	return fmt.Sprintf("%s:%s", UserTokenPrefix, userID)
}

func (r *TokenRepository) AddUserToken(ctx context.Context, userID, token string) error {
	if err := r.rdb.Set(ctx, r.key(userID), token, r.ttl).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (r *TokenRepository) GetUserToken(ctx context.Context, userID string) (string, error) {
	token, err := r.rdb.Get(ctx, r.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", ErrRedisUnavailable
	}
	return token, nil
}

// ExtendUserToken 滑动过期
func (r *TokenRepository) ExtendUserToken(ctx context.Context, userID string) error {
	if err := r.rdb.Expire(ctx, r.key(userID), r.ttl).Err(); err != nil {
		return ErrExtendFailed
	}
	return nil
}

// DeleteUserToken 幂等
func (r *TokenRepository) DeleteUserToken(ctx context.Context, userID string) error {
	if err := r.rdb.Del(ctx, r.key(userID)).Err(); err != nil {
		return ErrTokenDeleted
	}
	return nil
}
