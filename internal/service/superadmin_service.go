package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
	"campus_hub/internal/repository"
)

type SuperadminService struct {
	users  repository.UserStore
	events repository.EventStore
	tokens repository.TokenStore
	ev     *EventService
	mail   *MailService
	log    *zap.Logger
	now    clock
}

func NewSuperadminService(st repository.Stores, tokens repository.TokenStore, ev *EventService, mail *MailService, log *zap.Logger) *SuperadminService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SuperadminService{
		users:  st.Users,
		events: st.Events,
		tokens: tokens,
		ev:     ev,
		mail:   mail,
		log:    log,
		now:    utcNow,
	}
}

// EventView 活动连同创建者信息
type EventView struct {
	model.Event
	Owner *model.UserSummary `json:"owner,omitempty"`
}

// CollegeEventStat 按创建者所在学院汇总的活动数
type CollegeEventStat struct {
	College    string `json:"college"`
	AdminName  string `json:"adminName"`
	EventCount int64  `json:"eventCount"`
}

func (s *SuperadminService) guard(actor Actor) error {
	if !actor.Is(model.RoleSuperadmin) {
		return pkg.WithReason(pkg.ErrForbidden, "superadmin only")
	}
	return nil
}

func (s *SuperadminService) PendingUsers(ctx context.Context, actor Actor) ([]model.User, error) {
	if err := s.guard(actor); err != nil {
		return nil, err
	}
	approved := false
	return s.users.List(ctx, model.UserFilter{Role: model.RoleCollegeAdmin, Approved: &approved})
}

// ApproveUser 审核信息只写入一次，重复审核直接返回当前记录
func (s *SuperadminService) ApproveUser(ctx context.Context, actor Actor, userID string) (*model.User, error) {
	if err := s.guard(actor); err != nil {
		return nil, err
	}
	changed, err := s.users.Approve(ctx, userID, actor.ID, s.now())
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if changed {
		s.log.Info("admin approved", zap.String("user_id", userID), zap.String("by", actor.ID))
		s.mail.AccountApproved(user.Email, user.Name)
	}
	return user, nil
}

// RejectUser 只能驳回待审核的学院管理员
func (s *SuperadminService) RejectUser(ctx context.Context, actor Actor, userID string) error {
	if err := s.guard(actor); err != nil {
		return err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != model.RoleCollegeAdmin || user.IsApproved {
		return pkg.Invalid("userId", "only pending admin accounts can be rejected")
	}
	return s.users.Delete(ctx, userID)
}

// DeleteUser 删除账号并吊销其登录令牌
func (s *SuperadminService) DeleteUser(ctx context.Context, actor Actor, userID string) error {
	if err := s.guard(actor); err != nil {
		return err
	}
	if userID == actor.ID {
		return pkg.Invalid("userId", "cannot delete your own account")
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	if s.tokens != nil {
		if err := s.tokens.DeleteUserToken(ctx, userID); err != nil {
			s.log.Warn("revoke token failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return nil
}

func (s *SuperadminService) AllUsers(ctx context.Context, actor Actor) ([]model.User, error) {
	if err := s.guard(actor); err != nil {
		return nil, err
	}
	return s.users.List(ctx, model.UserFilter{})
}

func (s *SuperadminService) AllEvents(ctx context.Context, actor Actor) ([]EventView, error) {
	if err := s.guard(actor); err != nil {
		return nil, err
	}
	events, err := s.events.List(ctx, model.EventFilter{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.CollegeID)
	}
	owners, err := s.users.FindByIDs(ctx, uniq(ids))
	if err != nil {
		return nil, err
	}
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		out = append(out, EventView{Event: e, Owner: owners[e.CollegeID].Summary()})
	}
	return out, nil
}

func (s *SuperadminService) DeleteEvent(ctx context.Context, actor Actor, eventID string) error {
	if err := s.guard(actor); err != nil {
		return err
	}
	return s.ev.Delete(ctx, actor, eventID)
}

// EventStats 创建者已删除的活动不计入
func (s *SuperadminService) EventStats(ctx context.Context, actor Actor) ([]CollegeEventStat, error) {
	if err := s.guard(actor); err != nil {
		return nil, err
	}
	counts, err := s.events.CountByOwner(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(counts))
	for _, c := range counts {
		ids = append(ids, c.OwnerID)
	}
	owners, err := s.users.FindByIDs(ctx, uniq(ids))
	if err != nil {
		return nil, err
	}

	byCollege := make(map[string]*CollegeEventStat)
	order := make([]string, 0, len(counts))
	for _, c := range counts {
		owner, ok := owners[c.OwnerID]
		if !ok {
			continue
		}
		st, ok := byCollege[owner.College]
		if !ok {
			st = &CollegeEventStat{College: owner.College, AdminName: owner.Name}
			byCollege[owner.College] = st
			order = append(order, owner.College)
		}
		st.EventCount += c.Count
	}

	out := make([]CollegeEventStat, 0, len(order))
	for _, college := range order {
		out = append(out, *byCollege[college])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EventCount != out[j].EventCount {
			return out[i].EventCount > out[j].EventCount
		}
		return out[i].College < out[j].College
	})
	return out, nil
}

