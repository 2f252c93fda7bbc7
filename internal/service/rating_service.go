package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
	"campus_hub/internal/repository"
)

// 延迟双删间隔，覆盖并发读侧的回填窗口
const summaryDoubleDeleteDelay = 500 * time.Millisecond

type RatingService struct {
	events  repository.EventStore
	ratings repository.RatingStore
	cache   repository.RatingCache
	lock    repository.Locker
	log     *zap.Logger
	backoff time.Duration
}

// NewRatingService cache 与 lock 可以为空，此时每次直接回源
func NewRatingService(st repository.Stores, cache repository.RatingCache, lock repository.Locker, log *zap.Logger) *RatingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RatingService{
		events:  st.Events,
		ratings: st.Ratings,
		cache:   cache,
		lock:    lock,
		log:     log,
		backoff: 50 * time.Millisecond,
	}
}

// Rate 先写库再删缓存
func (s *RatingService) Rate(ctx context.Context, actor Actor, eventID string, value int) (*model.Rating, error) {
	if !model.ValidRating(value) {
		return nil, pkg.Invalid("rating", "must be between 1 and 5")
	}
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, err
	}

	r := &model.Rating{
		ID:      model.NewID(),
		UserID:  actor.ID,
		EventID: eventID,
		Rating:  value,
	}
	if err := s.ratings.Upsert(ctx, r); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.DeleteSummary(ctx, eventID, summaryDoubleDeleteDelay); err != nil {
			s.log.Warn("invalidate rating summary failed", zap.String("event_id", eventID), zap.Error(err))
		}
	}
	return r, nil
}

// Summary 读缓存；未命中时抢锁回源，抢不到锁短暂退避后再读一次
func (s *RatingService) Summary(ctx context.Context, eventID string) (*model.RatingSummary, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, err
	}
	if s.cache == nil {
		return s.load(ctx, eventID)
	}
	if sum, ok, err := s.cache.GetSummary(ctx, eventID); err == nil && ok {
		return sum, nil
	}
	if s.lock == nil {
		return s.loadAndFill(ctx, eventID)
	}

	token := uuid.NewString()
	got, err := s.lock.Acquire(ctx, eventID, token)
	if err == nil && got {
		defer func() {
			if err := s.lock.Release(ctx, eventID, token); err != nil {
				s.log.Warn("release rating lock failed", zap.String("event_id", eventID), zap.Error(err))
			}
		}()
		// 第二次检查
		if sum, ok, err := s.cache.GetSummary(ctx, eventID); err == nil && ok {
			return sum, nil
		}
		return s.loadAndFill(ctx, eventID)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.backoff):
	}
	if sum, ok, err := s.cache.GetSummary(ctx, eventID); err == nil && ok {
		return sum, nil
	}
	// 仍未命中，直接回源但不回填
	return s.load(ctx, eventID)
}

func (s *RatingService) loadAndFill(ctx context.Context, eventID string) (*model.RatingSummary, error) {
	sum, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetSummary(ctx, eventID, sum); err != nil {
		s.log.Warn("fill rating summary failed", zap.String("event_id", eventID), zap.Error(err))
	}
	return sum, nil
}

func (s *RatingService) load(ctx context.Context, eventID string) (*model.RatingSummary, error) {
	list, err := s.ratings.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Rating{}
	}
	return &model.RatingSummary{
		AverageRating: Average(list),
		TotalRatings:  len(list),
		Ratings:       list,
	}, nil
}

// Average 保留一位小数，无评分为 0
func Average(list []model.Rating) float64 {
	if len(list) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, r := range list {
		sum = sum.Add(decimal.NewFromInt(int64(r.Rating)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(list)))).Round(1).InexactFloat64()
}
