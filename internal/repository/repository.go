package repository

import (
	"context"
	"time"

	"campus_hub/internal/model"
)

// 存储接口，mysql 与 mongo 两套实现。
// 查无记录返回 pkg.ErrNotFound，唯一键冲突返回 pkg.ErrDuplicate。

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
	List(ctx context.Context, f model.UserFilter) ([]model.User, error)
	UpdateProfile(ctx context.Context, id, name, college string) error
	UpdatePassword(ctx context.Context, id, hash string) error
	// Approve 只修改仍未审核的账号，返回是否发生修改
	Approve(ctx context.Context, id, by string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
}

type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	FindByID(ctx context.Context, id string) (*model.Event, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.Event, error)
	// List 按开始时间升序
	List(ctx context.Context, f model.EventFilter) ([]model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id string) error
	AddRegistrant(ctx context.Context, eventID, studentID string) error
	RemoveRegistrant(ctx context.Context, eventID, studentID string) error
	CountByOwner(ctx context.Context) ([]model.OwnerEventCount, error)
}

type RegistrationStore interface {
	Create(ctx context.Context, r *model.Registration) error
	FindByID(ctx context.Context, id string) (*model.Registration, error)
	FindByStudentEvent(ctx context.Context, studentID, eventID string) (*model.Registration, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Registration, error)
	// ListByEvents status 为空表示不过滤
	ListByEvents(ctx context.Context, eventIDs []string, status model.RegistrationStatus) ([]model.Registration, error)
	// UpdateStatus 仅当库中状态仍为 from 时写入，否则返回 pkg.ErrConflict
	UpdateStatus(ctx context.Context, r *model.Registration, from model.RegistrationStatus) error
	DeleteByStudentEvent(ctx context.Context, studentID, eventID string) error
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
}

type CommentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	FindByID(ctx context.Context, id string) (*model.Comment, error)
	// ListByEvent 置顶优先，其余按时间倒序
	ListByEvent(ctx context.Context, eventID string) ([]model.Comment, error)
	SetPinned(ctx context.Context, id string, pinned bool, by *string) error
}

type RatingStore interface {
	Upsert(ctx context.Context, r *model.Rating) error
	ListByEvent(ctx context.Context, eventID string) ([]model.Rating, error)
}

type FeedbackStore interface {
	Create(ctx context.Context, f *model.Feedback) error
	// List 按时间倒序
	List(ctx context.Context) ([]model.Feedback, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]model.Notification, error)
	// MarkRead 只能标记发给自己的通知
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

type Stores struct {
	Users         UserStore
	Events        EventStore
	Registrations RegistrationStore
	Comments      CommentStore
	Ratings       RatingStore
	Feedback      FeedbackStore
	Notifications NotificationStore
}

// TokenStore 登录会话
type TokenStore interface {
	AddUserToken(ctx context.Context, userID, token string) error
	GetUserToken(ctx context.Context, userID string) (string, error)
	ExtendUserToken(ctx context.Context, userID string) error
	DeleteUserToken(ctx context.Context, userID string) error
}

// RatingCache 评分汇总缓存
type RatingCache interface {
	GetSummary(ctx context.Context, eventID string) (*model.RatingSummary, bool, error)
	SetSummary(ctx context.Context, eventID string, s *model.RatingSummary) error
	DeleteSummary(ctx context.Context, eventID string, delay ...time.Duration) error
}

type Locker interface {
	Acquire(ctx context.Context, key, token string) (bool, error)
	Release(ctx context.Context, key, token string) error
}

type RateLimiter interface {
	Allow(ctx context.Context, scope, subject string) (bool, error)
}
