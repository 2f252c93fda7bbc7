package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"campus_hub/internal/metrics"
	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
	"campus_hub/internal/realtime"
	"campus_hub/internal/repository"
)

const (
	approvedMessage = `Your registration for "%s" has been approved. You can now download your ticket.`
	rejectedMessage = `Your registration for "%s" has been rejected.`
)

type RegistrationService struct {
	users    repository.UserStore
	events   repository.EventStore
	regs     repository.RegistrationStore
	dispatch Dispatcher
	mail     *MailService
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      clock
}

func NewRegistrationService(st repository.Stores, dispatch Dispatcher, mail *MailService, m *metrics.Metrics, log *zap.Logger) *RegistrationService {
	if dispatch == nil {
		dispatch = nopDispatcher{}
	}
	if m == nil {
		m = metrics.Nop()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RegistrationService{
		users:    st.Users,
		events:   st.Events,
		regs:     st.Registrations,
		dispatch: dispatch,
		mail:     mail,
		metrics:  m,
		log:      log,
		now:      utcNow,
	}
}

// RegistrationView 报名记录连同活动与学生信息
type RegistrationView struct {
	model.Registration
	Event   *model.Event       `json:"event,omitempty"`
	Student *model.UserSummary `json:"student,omitempty"`
}

type AdminStats struct {
	TotalEvents        int `json:"totalEvents"`
	TotalRegistrations int `json:"totalRegistrations"`
	ActiveUsers        int `json:"activeUsers"`
	PendingReviews     int `json:"pendingReviews"`
}

type Ticket struct {
	Filename string
	Body     string
}

func (s *RegistrationService) Register(ctx context.Context, actor Actor, eventID string) (*model.Registration, error) {
	if !actor.Is(model.RoleStudent) {
		return nil, pkg.ErrForbidden
	}
	if eventID == "" {
		return nil, pkg.Invalid("eventId", "required")
	}
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, err
	}

	now := s.now()
	reg := &model.Registration{
		ID:           model.NewID(),
		StudentID:    actor.ID,
		EventID:      eventID,
		Status:       model.StatusPending,
		RegisteredAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.regs.Create(ctx, reg); err != nil {
		if errors.Is(err, pkg.ErrDuplicate) {
			return nil, pkg.ErrDuplicateRegistration
		}
		return nil, err
	}
	// 报名列表只作展示，失败不影响报名结果
	if err := s.events.AddRegistrant(ctx, eventID, actor.ID); err != nil {
		s.log.Warn("add registrant failed", zap.String("event_id", eventID), zap.Error(err))
	}
	return reg, nil
}

// Cancel 不论状态直接删除，不推送任何消息
func (s *RegistrationService) Cancel(ctx context.Context, actor Actor, eventID string) error {
	if !actor.Is(model.RoleStudent) {
		return pkg.ErrForbidden
	}
	if eventID == "" {
		return pkg.Invalid("eventId", "required")
	}
	if err := s.regs.DeleteByStudentEvent(ctx, actor.ID, eventID); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return pkg.WithReason(pkg.ErrNotFound, "registration not found")
		}
		return err
	}
	if err := s.events.RemoveRegistrant(ctx, eventID, actor.ID); err != nil && !errors.Is(err, pkg.ErrNotFound) {
		s.log.Warn("remove registrant failed", zap.String("event_id", eventID), zap.Error(err))
	}
	return nil
}

func (s *RegistrationService) MyRegistrations(ctx context.Context, actor Actor) ([]RegistrationView, error) {
	regs, err := s.regs.ListByStudent(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, regs, false)
}

func (s *RegistrationService) Ticket(ctx context.Context, actor Actor, registrationID string) (*Ticket, error) {
	reg, err := s.regs.FindByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.StudentID != actor.ID {
		return nil, pkg.WithReason(pkg.ErrNotFound, "registration not found")
	}
	if reg.Status != model.StatusApproved {
		return nil, pkg.WithReason(pkg.ErrForbidden, "ticket not available, registration not approved yet")
	}
	event, err := s.events.FindByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	student, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Event Ticket\n\nEvent: %s\nDate: %s - %s\nStudent: %s\nStatus: APPROVED\nTicket: %s\n",
		event.Title,
		event.StartDate.Format("2006-01-02 15:04"),
		event.EndDate.Format("2006-01-02 15:04"),
		student.Name,
		reg.ID)
	return &Ticket{Filename: "ticket-" + reg.ID + ".txt", Body: body}, nil
}

func (s *RegistrationService) Approve(ctx context.Context, actor Actor, registrationID string) (*model.Registration, error) {
	return s.review(ctx, actor, registrationID, model.StatusApproved)
}

func (s *RegistrationService) Reject(ctx context.Context, actor Actor, registrationID string) (*model.Registration, error) {
	return s.review(ctx, actor, registrationID, model.StatusRejected)
}

// review 只有活动创建者能审核；pending 出发的比较交换保证并发审核只有一个生效
func (s *RegistrationService) review(ctx context.Context, actor Actor, registrationID string, to model.RegistrationStatus) (*model.Registration, error) {
	if !actor.Is(model.RoleCollegeAdmin) {
		return nil, pkg.ErrForbidden
	}
	reg, err := s.regs.FindByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, pkg.WithReason(pkg.ErrNotFound, "registration not found")
		}
		return nil, err
	}
	event, err := s.events.FindByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if !event.OwnedBy(actor.ID) {
		return nil, pkg.WithReason(pkg.ErrForbidden, "you can only review registrations for your events")
	}

	template := approvedMessage
	if to == model.StatusRejected {
		template = rejectedMessage
	}
	message := fmt.Sprintf(template, event.Title)

	from := reg.Status
	changed, err := reg.Transition(to, s.now(), message)
	if err != nil {
		return nil, err
	}
	if !changed {
		return reg, nil
	}
	if err := s.regs.UpdateStatus(ctx, reg, from); err != nil {
		if errors.Is(err, pkg.ErrConflict) {
			return nil, pkg.WithReason(pkg.ErrInvalidTransition, "registration was reviewed concurrently")
		}
		return nil, err
	}
	s.metrics.RegistrationTransitions.WithLabelValues(string(to)).Inc()

	s.dispatch.Notify(reg.StudentID, realtime.Message{
		Event: realtime.EventRegistrationChanged,
		Data: realtime.StatusChange{
			Event:   event.Title,
			Status:  string(reg.Status),
			Message: reg.Notification,
		},
	})
	if s.mail.Enabled() {
		if student, err := s.users.FindByID(ctx, reg.StudentID); err == nil {
			s.mail.RegistrationStatus(student.Email, student.Name, event.Title, string(reg.Status), reg.Notification)
		}
	}
	return reg, nil
}

func (s *RegistrationService) ownedEventIDs(ctx context.Context, actor Actor) ([]model.Event, []string, error) {
	if !actor.Is(model.RoleCollegeAdmin) {
		return nil, nil, pkg.ErrForbidden
	}
	events, err := s.events.List(ctx, model.EventFilter{OwnerID: actor.ID})
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return events, ids, nil
}

// AdminRegistrations pendingOnly 为真时只返回待审核
func (s *RegistrationService) AdminRegistrations(ctx context.Context, actor Actor, pendingOnly bool) ([]RegistrationView, error) {
	_, ids, err := s.ownedEventIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	var status model.RegistrationStatus
	if pendingOnly {
		status = model.StatusPending
	}
	regs, err := s.regs.ListByEvents(ctx, ids, status)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, regs, true)
}

func (s *RegistrationService) AdminStats(ctx context.Context, actor Actor) (*AdminStats, error) {
	events, ids, err := s.ownedEventIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	regs, err := s.regs.ListByEvents(ctx, ids, "")
	if err != nil {
		return nil, err
	}
	students := make(map[string]struct{}, len(regs))
	pending := 0
	for _, r := range regs {
		students[r.StudentID] = struct{}{}
		if r.Status == model.StatusPending {
			pending++
		}
	}
	return &AdminStats{
		TotalEvents:        len(events),
		TotalRegistrations: len(regs),
		ActiveUsers:        len(students),
		PendingReviews:     pending,
	}, nil
}

func (s *RegistrationService) views(ctx context.Context, regs []model.Registration, withStudent bool) ([]RegistrationView, error) {
	eventIDs := make([]string, 0, len(regs))
	studentIDs := make([]string, 0, len(regs))
	for _, r := range regs {
		eventIDs = append(eventIDs, r.EventID)
		studentIDs = append(studentIDs, r.StudentID)
	}
	events, err := s.events.FindByIDs(ctx, uniq(eventIDs))
	if err != nil {
		return nil, err
	}
	var students map[string]*model.User
	if withStudent {
		if students, err = s.users.FindByIDs(ctx, uniq(studentIDs)); err != nil {
			return nil, err
		}
	}

	out := make([]RegistrationView, 0, len(regs))
	for _, r := range regs {
		v := RegistrationView{Registration: r, Event: events[r.EventID]}
		if withStudent {
			if u, ok := students[r.StudentID]; ok {
				v.Student = &model.UserSummary{ID: u.ID, Name: u.Name, College: u.College}
			}
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RegisteredAt.After(out[j].RegisteredAt)
	})
	return out, nil
}
