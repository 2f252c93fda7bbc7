package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
)

func TestAverageRounding(t *testing.T) {
	cases := []struct {
		values []int
		want   float64
	}{
		{nil, 0},
		{[]int{5}, 5},
		{[]int{4, 5, 5}, 4.7},
		{[]int{1, 2}, 1.5},
		{[]int{1, 1, 2}, 1.3},
	}
	for _, tc := range cases {
		list := make([]model.Rating, 0, len(tc.values))
		for _, v := range tc.values {
			list = append(list, model.Rating{Rating: v})
		}
		assert.Equal(t, tc.want, Average(list), "values %v", tc.values)
	}
}

func TestRateUpsertsPerUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner", model.RoleCollegeAdmin, true)
	s1 := e.user(t, "s1", model.RoleStudent, true)
	s2 := e.user(t, "s2", model.RoleStudent, true)
	ev := e.event(t, owner, "Hack Night")

	_, err := e.ratings.Rate(ctx, s1, ev.ID, 6)
	assert.ErrorIs(t, err, pkg.ErrValidation)
	_, err = e.ratings.Rate(ctx, s1, "missing", 3)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	first, err := e.ratings.Rate(ctx, s1, ev.ID, 2)
	require.NoError(t, err)
	second, err := e.ratings.Rate(ctx, s1, ev.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 4, second.Rating)

	_, err = e.ratings.Rate(ctx, s2, ev.ID, 5)
	require.NoError(t, err)

	sum, err := e.ratings.Summary(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TotalRatings)
	assert.Equal(t, 4.5, sum.AverageRating)
	assert.Len(t, sum.Ratings, 2)
}

func TestSummaryCacheAside(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner", model.RoleCollegeAdmin, true)
	s1 := e.user(t, "s1", model.RoleStudent, true)
	ev := e.event(t, owner, "Hack Night")

	empty, err := e.ratings.Summary(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalRatings)
	assert.Equal(t, float64(0), empty.AverageRating)
	assert.NotNil(t, empty.Ratings)

	_, err = e.ratings.Summary(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, e.cache.Hits)

	_, err = e.ratings.Rate(ctx, s1, ev.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, e.cache.Deletes)

	sum, err := e.ratings.Summary(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalRatings)
	assert.Equal(t, float64(3), sum.AverageRating)
}

func TestSummaryFallsBackWhenLockHeld(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner", model.RoleCollegeAdmin, true)
	s1 := e.user(t, "s1", model.RoleStudent, true)
	ev := e.event(t, owner, "Hack Night")
	_, err := e.ratings.Rate(ctx, s1, ev.ID, 5)
	require.NoError(t, err)

	e.lock.Block = true
	sum, err := e.ratings.Summary(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalRatings)

	// 没拿到锁时不回填
	_, hit, err := e.cache.GetSummary(ctx, ev.ID)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestSummaryWithoutCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner", model.RoleCollegeAdmin, true)
	ev := e.event(t, owner, "Hack Night")

	svc := NewRatingService(e.mem.Stores(), nil, nil, nil)
	sum, err := svc.Summary(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.TotalRatings)
}
