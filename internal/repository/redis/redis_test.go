package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus_hub/internal/model"
)

func TestTokenRepository(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := NewTokenRepository(db, time.Minute)
	ctx := context.Background()
	key := "login:user:token:u1"

	mock.ExpectSet(key, "tok", time.Minute).SetVal("OK")
	require.NoError(t, repo.AddUserToken(ctx, "u1", "tok"))

	mock.ExpectGet(key).SetVal("tok")
	got, err := repo.GetUserToken(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	mock.ExpectGet(key).RedisNil()
	_, err = repo.GetUserToken(ctx, "u1")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	mock.ExpectGet(key).SetErr(errors.New("conn refused"))
	_, err = repo.GetUserToken(ctx, "u1")
	assert.ErrorIs(t, err, ErrRedisUnavailable)

	mock.ExpectExpire(key, time.Minute).SetVal(true)
	require.NoError(t, repo.ExtendUserToken(ctx, "u1"))

	mock.ExpectDel(key).SetVal(1)
	require.NoError(t, repo.DeleteUserToken(ctx, "u1"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingCacheRepository(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := NewRatingCacheRepository(db)
	ctx := context.Background()
	key := "rating:summary:event:e1"

	mock.ExpectGet(key).RedisNil()
	s, hit, err := repo.GetSummary(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, s)

	summary := &model.RatingSummary{AverageRating: 4.5, TotalRatings: 2, Ratings: []model.Rating{}}
	raw, err := json.Marshal(summary)
	require.NoError(t, err)

	mock.ExpectSet(key, raw, RatingSummaryTTL).SetVal("OK")
	require.NoError(t, repo.SetSummary(ctx, "e1", summary))

	mock.ExpectGet(key).SetVal(string(raw))
	s, hit, err = repo.GetSummary(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 4.5, s.AverageRating)
	assert.Equal(t, 2, s.TotalRatings)

	mock.ExpectGet(key).SetVal("{broken")
	_, hit, err = repo.GetSummary(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, hit)

	mock.ExpectDel(key).SetVal(1)
	require.NoError(t, repo.DeleteSummary(ctx, "e1"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDistLockAcquire(t *testing.T) {
	db, mock := redismock.NewClientMock()
	lock := &DistLock{RDB: db}

	mock.ExpectSetNX("lock:rating:event:e1", "t1", LockTTL).SetVal(true)
	ok, err := lock.Acquire(context.Background(), "e1", "t1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectSetNX("lock:rating:event:e1", "t2", LockTTL).SetVal(false)
	ok, err = lock.Acquire(context.Background(), "e1", "t2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimitRepository(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := NewRateLimitRepository(db, 2, time.Minute)
	ctx := context.Background()
	key := "ratelimit:login:10.0.0.1"

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	ok, err := repo.Allow(ctx, "login", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectIncr(key).SetVal(2)
	ok, err = repo.Allow(ctx, "login", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectIncr(key).SetVal(3)
	ok, err = repo.Allow(ctx, "login", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())

	unlimited := NewRateLimitRepository(db, 0, time.Minute)
	ok, err = unlimited.Allow(ctx, "login", "x")
	require.NoError(t, err)
	assert.True(t, ok)
}
