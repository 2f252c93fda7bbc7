package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
	"campus_hub/internal/repository"
)

type EventService struct {
	users  repository.UserStore
	events repository.EventStore
	regs   repository.RegistrationStore
	log    *zap.Logger
	now    clock
}

func NewEventService(st repository.Stores, log *zap.Logger) *EventService {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventService{
		users:  st.Users,
		events: st.Events,
		regs:   st.Registrations,
		log:    log,
		now:    utcNow,
	}
}

type EventInput struct {
	Title       string
	Description string
	Category    model.Category
	Location    string
	StartDate   time.Time
	EndDate     time.Time
	College     string
	OnlineLink  string
}

func (in *EventInput) normalize() error {
	in.Title = pkg.Sanitize(in.Title)
	in.Description = pkg.Sanitize(in.Description)
	in.Location = pkg.Sanitize(in.Location)
	in.College = pkg.Sanitize(in.College)
	in.OnlineLink = pkg.Sanitize(in.OnlineLink)

	if in.Title == "" {
		return pkg.Invalid("title", "required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return pkg.Invalid("startDate", "startDate and endDate are required")
	}
	if !in.Category.Valid() {
		return pkg.Invalid("category", "must be one of Sports, Hackathon, Cultural, Workshop")
	}
	return nil
}

// approvedAdmin 调用者必须是已审核的 college_admin
func (s *EventService) approvedAdmin(ctx context.Context, actor Actor) (*model.User, error) {
	if !actor.Is(model.RoleCollegeAdmin) {
		return nil, pkg.ErrForbidden
	}
	admin, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, pkg.ErrUnauthenticated
		}
		return nil, err
	}
	if !admin.IsApproved {
		return nil, pkg.WithReason(pkg.ErrForbidden, "admin account not approved by superadmin")
	}
	return admin, nil
}

func (s *EventService) Create(ctx context.Context, actor Actor, in EventInput) (*model.Event, error) {
	admin, err := s.approvedAdmin(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if in.College == "" {
		in.College = admin.College
	}

	now := s.now()
	event := &model.Event{
		ID:            model.NewID(),
		CollegeID:     admin.ID,
		College:       in.College,
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		Location:      in.Location,
		StartDate:     in.StartDate.UTC(),
		EndDate:       in.EndDate.UTC(),
		OnlineLink:    in.OnlineLink,
		Registrations: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// canManage 活动创建者或超级管理员
func canManage(actor Actor, e *model.Event) bool {
	return actor.Is(model.RoleSuperadmin) || (actor.Is(model.RoleCollegeAdmin) && e.OwnedBy(actor.ID))
}

func (s *EventService) Update(ctx context.Context, actor Actor, id string, in EventInput) (*model.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, event) {
		return nil, pkg.WithReason(pkg.ErrForbidden, "you can only edit your own events")
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	event.Title = in.Title
	event.Description = in.Description
	event.Category = in.Category
	event.Location = in.Location
	event.StartDate = in.StartDate.UTC()
	event.EndDate = in.EndDate.UTC()
	event.OnlineLink = in.OnlineLink
	if in.College != "" {
		event.College = in.College
	}
	event.UpdatedAt = s.now()
	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	return s.events.FindByID(ctx, id)
}

func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx, model.EventFilter{})
}

func (s *EventService) ListMine(ctx context.Context, actor Actor) ([]model.Event, error) {
	if _, err := s.approvedAdmin(ctx, actor); err != nil {
		return nil, err
	}
	return s.events.List(ctx, model.EventFilter{OwnerID: actor.ID})
}

// ListRegistered 调用者报过名的活动
func (s *EventService) ListRegistered(ctx context.Context, actor Actor) ([]model.Event, error) {
	regs, err := s.regs.ListByStudent(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(regs))
	for _, r := range regs {
		ids = append(ids, r.EventID)
	}
	byID, err := s.events.FindByIDs(ctx, uniq(ids))
	if err != nil {
		return nil, err
	}
	out := make([]model.Event, 0, len(byID))
	for _, id := range uniq(ids) {
		if e, ok := byID[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

// Delete 级联删除该活动的报名记录，评论与评分保留
func (s *EventService) Delete(ctx context.Context, actor Actor, id string) error {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, event) {
		return pkg.WithReason(pkg.ErrForbidden, "you can only delete your own events")
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	removed, err := s.regs.DeleteByEvent(ctx, id)
	if err != nil {
		return err
	}
	s.log.Info("event deleted",
		zap.String("event_id", id),
		zap.String("actor", actor.ID),
		zap.Int64("registrations_removed", removed))
	return nil
}
