package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
	"campus_hub/internal/realtime"
)

func TestRegisterForEvent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", model.RoleCollegeAdmin, true)
	student := e.user(t, "stu", model.RoleStudent, true)
	ev := e.event(t, admin, "Hack Night")

	_, err := e.regs.Register(ctx, admin, ev.ID)
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	_, err = e.regs.Register(ctx, student, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	reg, err := e.regs.Register(ctx, student, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, reg.Status)
	assert.Nil(t, reg.ApprovedAt)
	assert.Nil(t, reg.RejectedAt)

	_, err = e.regs.Register(ctx, student, ev.ID)
	assert.ErrorIs(t, err, pkg.ErrDuplicateRegistration)

	stored, err := e.events.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{student.ID}, stored.Registrations)
}

func TestApprovePublishesAndIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", model.RoleCollegeAdmin, true)
	student := e.user(t, "stu", model.RoleStudent, true)
	ev := e.event(t, admin, "Hack Night")
	reg, err := e.regs.Register(ctx, student, ev.ID)
	require.NoError(t, err)

	approved, err := e.regs.Approve(ctx, admin, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	assert.Nil(t, approved.RejectedAt)
	assert.Contains(t, approved.Notification, `"Hack Night" has been approved`)

	sent := e.dispatch.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, student.ID, sent[0].Identity)
	assert.Equal(t, realtime.EventRegistrationChanged, sent[0].Msg.Event)
	assert.Equal(t, realtime.StatusChange{
		Event:   "Hack Night",
		Status:  "approved",
		Message: approved.Notification,
	}, sent[0].Msg.Data)

	again, err := e.regs.Approve(ctx, admin, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, *approved.ApprovedAt, *again.ApprovedAt)
	assert.Len(t, e.dispatch.Sent(), 1)

	_, err = e.regs.Reject(ctx, admin, reg.ID)
	assert.ErrorIs(t, err, pkg.ErrInvalidTransition)

	e.mail.Wait()
	mails := e.mailer.all()
	require.Len(t, mails, 1)
	assert.Equal(t, "stu@campus.test", mails[0].to)
}

func TestRejectStampsRejectedAt(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", model.RoleCollegeAdmin, true)
	student := e.user(t, "stu", model.RoleStudent, true)
	ev := e.event(t, admin, "Chess Cup")
	reg, err := e.regs.Register(ctx, student, ev.ID)
	require.NoError(t, err)

	rejected, err := e.regs.Reject(ctx, admin, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, rejected.Status)
	assert.NotNil(t, rejected.RejectedAt)
	assert.Nil(t, rejected.ApprovedAt)
	assert.Equal(t, `Your registration for "Chess Cup" has been rejected.`, rejected.Notification)

	_, err = e.regs.Approve(ctx, admin, reg.ID)
	assert.ErrorIs(t, err, pkg.ErrInvalidTransition)
}

func TestReviewRequiresEventOwner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner", model.RoleCollegeAdmin, true)
	other := e.user(t, "other", model.RoleCollegeAdmin, true)
	student := e.user(t, "stu", model.RoleStudent, true)
	ev := e.event(t, owner, "Hack Night")
	reg, err := e.regs.Register(ctx, student, ev.ID)
	require.NoError(t, err)

	_, err = e.regs.Approve(ctx, other, reg.ID)
	assert.ErrorIs(t, err, pkg.ErrForbidden)
	_, err = e.regs.Approve(ctx, student, reg.ID)
	assert.ErrorIs(t, err, pkg.ErrForbidden)
	_, err = e.regs.Approve(ctx, owner, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	assert.Empty(t, e.dispatch.Sent())
}

func TestConcurrentReviewHasSingleWinner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", model.RoleCollegeAdmin, true)
	student := e.user(t, "stu", model.RoleStudent, true)
	ev := e.event(t, admin, "Hack Night")
	reg, err := e.regs.Register(ctx, student, ev.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, review := range []func(context.Context, Actor, string) (*model.Registration, error){e.regs.Approve, e.regs.Reject} {
		wg.Add(1)
		go func(i int, review func(context.Context, Actor, string) (*model.Registration, error)) {
			defer wg.Done()
			_, errs[i] = review(ctx, admin, reg.ID)
		}(i, review)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, pkg.ErrInvalidTransition)
			failures++
		}
	}
	assert.Equal(t, 1, failures)
	assert.Len(t, e.dispatch.Sent(), 1)
}

func TestCancelRegistration(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", model.RoleCollegeAdmin, true)
	student := e.user(t, "stu", model.RoleStudent, true)
	ev := e.event(t, admin, "Hack Night")
	reg, err := e.regs.Register(ctx, student, ev.ID)
	require.NoError(t, err)
	_, err = e.regs.Approve(ctx, admin, reg.ID)
	require.NoError(t, err)
	before := len(e.dispatch.Sent())

	require.NoError(t, e.regs.Cancel(ctx, student, ev.ID))
	assert.Len(t, e.dispatch.Sent(), before)

	err = e.regs.Cancel(ctx, student, ev.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	stored, err := e.events.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Registrations)

	// 取消后可以重新报名
	_, err = e.regs.Register(ctx, student, ev.ID)
	assert.NoError(t, err)
}

func TestTicket(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", model.RoleCollegeAdmin, true)
	student := e.user(t, "stu", model.RoleStudent, true)
	other := e.user(t, "other", model.RoleStudent, true)
	ev := e.event(t, admin, "Hack Night")
	reg, err := e.regs.Register(ctx, student, ev.ID)
	require.NoError(t, err)

	_, err = e.regs.Ticket(ctx, student, reg.ID)
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	_, err = e.regs.Approve(ctx, admin, reg.ID)
	require.NoError(t, err)

	_, err = e.regs.Ticket(ctx, other, reg.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	ticket, err := e.regs.Ticket(ctx, student, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, "ticket-"+reg.ID+".txt", ticket.Filename)
	assert.Contains(t, ticket.Body, "Event: Hack Night")
	assert.Contains(t, ticket.Body, "Student: stu")
	assert.Contains(t, ticket.Body, "Status: APPROVED")
}

func TestAdminRegistrationsAndStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", model.RoleCollegeAdmin, true)
	other := e.user(t, "other", model.RoleCollegeAdmin, true)
	s1 := e.user(t, "s1", model.RoleStudent, true)
	s2 := e.user(t, "s2", model.RoleStudent, true)
	ev1 := e.event(t, admin, "One")
	ev2 := e.event(t, admin, "Two")
	foreign := e.event(t, other, "Foreign")

	r1, err := e.regs.Register(ctx, s1, ev1.ID)
	require.NoError(t, err)
	_, err = e.regs.Register(ctx, s1, ev2.ID)
	require.NoError(t, err)
	_, err = e.regs.Register(ctx, s2, ev2.ID)
	require.NoError(t, err)
	_, err = e.regs.Register(ctx, s2, foreign.ID)
	require.NoError(t, err)
	_, err = e.regs.Approve(ctx, admin, r1.ID)
	require.NoError(t, err)

	all, err := e.regs.AdminRegistrations(ctx, admin, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, v := range all {
		require.NotNil(t, v.Event)
		require.NotNil(t, v.Student)
		assert.Equal(t, admin.ID, v.Event.CollegeID)
	}

	pending, err := e.regs.AdminRegistrations(ctx, admin, true)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	stats, err := e.regs.AdminStats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, &AdminStats{TotalEvents: 2, TotalRegistrations: 3, ActiveUsers: 2, PendingReviews: 2}, stats)

	_, err = e.regs.AdminStats(ctx, s1)
	assert.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestMyRegistrationsIncludesEvent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", model.RoleCollegeAdmin, true)
	student := e.user(t, "stu", model.RoleStudent, true)
	ev := e.event(t, admin, "Hack Night")
	_, err := e.regs.Register(ctx, student, ev.ID)
	require.NoError(t, err)

	mine, err := e.regs.MyRegistrations(ctx, student)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Event)
	assert.Equal(t, "Hack Night", mine[0].Event.Title)
	assert.Nil(t, mine[0].Student)
}
