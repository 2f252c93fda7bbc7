package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
	"campus_hub/internal/realtime"
	"campus_hub/internal/repository"
)

const (
	commentMessage = "New comment on your event \"%s\" by %s"
	replyMessage   = "%s replied to your comment"
)

type CommentService struct {
	users    repository.UserStore
	events   repository.EventStore
	comments repository.CommentStore
	notes    repository.NotificationStore
	dispatch Dispatcher
	log      *zap.Logger
	now      clock
}

func NewCommentService(st repository.Stores, dispatch Dispatcher, log *zap.Logger) *CommentService {
	if dispatch == nil {
		dispatch = nopDispatcher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CommentService{
		users:    st.Users,
		events:   st.Events,
		comments: st.Comments,
		notes:    st.Notifications,
		dispatch: dispatch,
		log:      log,
		now:      utcNow,
	}
}

// List 顶层评论（置顶优先，其余时间倒序），每条带回复
func (s *CommentService) List(ctx context.Context, eventID string) ([]model.CommentThread, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, err
	}
	all, err := s.comments.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	authorIDs := make([]string, 0, len(all))
	for _, c := range all {
		authorIDs = append(authorIDs, c.UserID)
	}
	authors, err := s.users.FindByIDs(ctx, uniq(authorIDs))
	if err != nil {
		return nil, err
	}

	threads := make([]model.CommentThread, 0, len(all))
	index := make(map[string]int, len(all))
	replies := make(map[string][]model.Comment)
	for _, c := range all {
		if u, ok := authors[c.UserID]; ok {
			c.Author = u.Summary()
		}
		if parent, ok := c.Parent().ReplyTo(); ok {
			replies[parent] = append(replies[parent], c)
			continue
		}
		index[c.ID] = len(threads)
		threads = append(threads, model.CommentThread{Comment: c, Replies: []model.Comment{}})
	}
	for parent, rs := range replies {
		i, ok := index[parent]
		if !ok {
			continue
		}
		// 回复按时间正序，置顶不影响回复顺序
		slices.SortStableFunc(rs, func(a, b model.Comment) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
		threads[i].Replies = rs
	}
	return threads, nil
}

// Create 顶层评论；parentID 非空时等同 Reply
func (s *CommentService) Create(ctx context.Context, actor Actor, eventID, text, parentID string) (*model.Comment, error) {
	if parentID != "" {
		return s.Reply(ctx, actor, eventID, parentID, text)
	}
	text = pkg.Sanitize(text)
	if text == "" {
		return nil, pkg.Invalid("text", "comment text is required")
	}
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	c := s.newComment(actor, eventID, text, model.RootComment())
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	author, err := s.attachAuthor(ctx, c)
	if err != nil {
		return nil, err
	}

	if event.CollegeID != actor.ID {
		s.notify(ctx, &model.Notification{
			RecipientID: event.CollegeID,
			Type:        model.NotificationEventComment,
			Message:     fmt.Sprintf(commentMessage, event.Title, author),
			EventID:     event.ID,
			CommentID:   c.ID,
		})
	}
	return c, nil
}

// Reply 只允许回复同一活动下的顶层评论
func (s *CommentService) Reply(ctx context.Context, actor Actor, eventID, parentID, text string) (*model.Comment, error) {
	text = pkg.Sanitize(text)
	if text == "" {
		return nil, pkg.Invalid("text", "reply text is required")
	}
	parent, err := s.comments.FindByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, pkg.WithReason(pkg.ErrNotFound, "parent comment not found")
		}
		return nil, err
	}
	if parent.EventID != eventID {
		return nil, pkg.Invalid("parentId", "parent comment belongs to another event")
	}
	if parent.IsReply() {
		return nil, pkg.Invalid("parentId", "cannot reply to a reply")
	}

	c := s.newComment(actor, eventID, text, model.ReplyTo(parent.ID))
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	author, err := s.attachAuthor(ctx, c)
	if err != nil {
		return nil, err
	}

	if parent.UserID != actor.ID {
		s.notify(ctx, &model.Notification{
			RecipientID: parent.UserID,
			Type:        model.NotificationCommentReply,
			Message:     fmt.Sprintf(replyMessage, author),
			EventID:     eventID,
			CommentID:   c.ID,
		})
	}
	return c, nil
}

// TogglePin 只有活动创建者可以置顶或取消置顶
func (s *CommentService) TogglePin(ctx context.Context, actor Actor, eventID, commentID string) (*model.Comment, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.OwnedBy(actor.ID) {
		return nil, pkg.WithReason(pkg.ErrForbidden, "only the event owner can pin comments")
	}
	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.EventID != eventID {
		return nil, pkg.WithReason(pkg.ErrNotFound, "comment not found")
	}

	c.IsPinned = !c.IsPinned
	c.PinnedBy = nil
	if c.IsPinned {
		by := actor.ID
		c.PinnedBy = &by
	}
	if err := s.comments.SetPinned(ctx, c.ID, c.IsPinned, c.PinnedBy); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CommentService) newComment(actor Actor, eventID, text string, parent model.CommentParent) *model.Comment {
	now := s.now()
	c := &model.Comment{
		ID:        model.NewID(),
		EventID:   eventID,
		UserID:    actor.ID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.SetParent(parent)
	return c
}

// attachAuthor 返回作者名称用于通知文案
func (s *CommentService) attachAuthor(ctx context.Context, c *model.Comment) (string, error) {
	u, err := s.users.FindByID(ctx, c.UserID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return "Someone", nil
		}
		return "", err
	}
	c.Author = u.Summary()
	return u.Name, nil
}

// notify 落库后推送；推送失败不影响评论本身
func (s *CommentService) notify(ctx context.Context, n *model.Notification) {
	now := s.now()
	n.ID = model.NewID()
	n.CreatedAt = now
	n.UpdatedAt = now
	if err := s.notes.Create(ctx, n); err != nil {
		s.log.Warn("store notification failed", zap.String("recipient", n.RecipientID), zap.Error(err))
		return
	}
	s.dispatch.Notify(n.RecipientID, realtime.Message{Event: realtime.EventNotification, Data: n})
}
