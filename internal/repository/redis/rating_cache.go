package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"campus_hub/internal/model"
)

const (
	RatingSummaryTTL    = 10 * time.Minute
	LockTTL             = 300 * time.Millisecond
	RatingSummaryPrefix = "rating:summary:event" // 缓存某个活动的评分汇总
	LockKeyPrefix       = "lock:rating:event"    // 回填汇总的分布式锁
)

// RatingCacheRepository cache-aside：读未命中时由服务层回源并回填，写评分后删除
type RatingCacheRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

type DistLock struct {
	RDB *redis.Client
}

func NewRatingCacheRepository(rdb *redis.Client) *RatingCacheRepository {
	return &RatingCacheRepository{rdb: rdb, ttl: RatingSummaryTTL}
}

func (r *RatingCacheRepository) summaryKey(eventID string) string {
	return fmt.Sprintf("%s:%s", RatingSummaryPrefix, eventID)
}

// GetSummary 第二个返回值表示是否命中
func (r *RatingCacheRepository) GetSummary(ctx context.Context, eventID string) (*model.RatingSummary, bool, error) {
	raw, err := r.rdb.Get(ctx, r.summaryKey(eventID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var s model.RatingSummary
	if err := json.Unmarshal(raw, &s); err != nil {
		// 脏数据当作未命中
		return nil, false, nil
	}
	return &s, true, nil
}

func (r *RatingCacheRepository) SetSummary(ctx context.Context, eventID string, s *model.RatingSummary) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.summaryKey(eventID), raw, r.ttl).Err()
}

// DeleteSummary 立刻删除；delay>0 时再异步删一次，抵消并发回填窗口
func (r *RatingCacheRepository) DeleteSummary(ctx context.Context, eventID string, delay ...time.Duration) error {
	key := r.summaryKey(eventID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if len(delay) > 0 && delay[0] > 0 {
		d := delay[0]
		go func() {
			t := time.NewTimer(d)
			defer t.Stop()
			<-t.C
			_ = r.rdb.Del(context.Background(), key).Err()
		}()
	}
	return nil
}

func (l *DistLock) key(eventID string) string {
	return fmt.Sprintf("%s:%s", LockKeyPrefix, eventID)
}

// Acquire 请求加分布式锁
func (l *DistLock) Acquire(ctx context.Context, eventID, token string) (bool, error) {
	return l.RDB.SetNX(ctx, l.key(eventID), token, LockTTL).Result()
}

// Release 用lua保证只释放自己的锁
func (l *DistLock) Release(ctx context.Context, eventID, token string) error {
	_, err := redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`).Run(ctx, l.RDB, []string{l.key(eventID)}, token).Result()
	return err
}
