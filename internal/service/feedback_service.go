package service

import (
	"context"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
	"campus_hub/internal/repository"
)

type FeedbackService struct {
	users    repository.UserStore
	feedback repository.FeedbackStore
	now      clock
}

func NewFeedbackService(st repository.Stores) *FeedbackService {
	return &FeedbackService{users: st.Users, feedback: st.Feedback, now: utcNow}
}

func (s *FeedbackService) Submit(ctx context.Context, actor Actor, message string, rating int) (*model.Feedback, error) {
	message = pkg.Sanitize(message)
	if message == "" {
		return nil, pkg.Invalid("message", "required")
	}
	if !model.ValidRating(rating) {
		return nil, pkg.Invalid("rating", "must be between 1 and 5")
	}
	now := s.now()
	f := &model.Feedback{
		ID:        model.NewID(),
		UserID:    actor.ID,
		Message:   message,
		Rating:    rating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.feedback.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// List 时间倒序，附带提交者姓名与学院
func (s *FeedbackService) List(ctx context.Context) ([]model.Feedback, error) {
	list, err := s.feedback.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, f := range list {
		ids = append(ids, f.UserID)
	}
	users, err := s.users.FindByIDs(ctx, uniq(ids))
	if err != nil {
		return nil, err
	}
	for i := range list {
		if u, ok := users[list[i].UserID]; ok {
			list[i].Author = &model.UserSummary{ID: u.ID, Name: u.Name, College: u.College}
		}
	}
	return list, nil
}
