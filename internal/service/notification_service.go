package service

import (
	"context"

	"campus_hub/internal/model"
	"campus_hub/internal/repository"
)

// NotificationLimit 列表只返回最近的通知
const NotificationLimit = 20

type NotificationService struct {
	events repository.EventStore
	notes  repository.NotificationStore
}

func NewNotificationService(st repository.Stores) *NotificationService {
	return &NotificationService{events: st.Events, notes: st.Notifications}
}

func (s *NotificationService) List(ctx context.Context, actor Actor) ([]model.Notification, error) {
	list, err := s.notes.ListByRecipient(ctx, actor.ID, NotificationLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.EventID)
	}
	events, err := s.events.FindByIDs(ctx, uniq(ids))
	if err != nil {
		return nil, err
	}
	for i := range list {
		if e, ok := events[list[i].EventID]; ok {
			list[i].EventTitle = e.Title
		}
	}
	return list, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id string) error {
	return s.notes.MarkRead(ctx, id, actor.ID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor Actor) (int64, error) {
	return s.notes.MarkAllRead(ctx, actor.ID)
}
