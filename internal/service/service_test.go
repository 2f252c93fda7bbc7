package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
	"campus_hub/internal/testutil"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *fakeMailer) all() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type env struct {
	mem      *testutil.MemStore
	tokens   *testutil.Tokens
	dispatch *testutil.Dispatcher
	cache    *testutil.SummaryCache
	lock     *testutil.Locker
	mailer   *fakeMailer
	mail     *MailService
	issuer   *pkg.TokenIssuer

	auth     *AuthService
	events   *EventService
	regs     *RegistrationService
	comments *CommentService
	ratings  *RatingService
	feedback *FeedbackService
	notes    *NotificationService
	super    *SuperadminService
}

func tickingClock() clock {
	var mu sync.Mutex
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		mem:      testutil.NewMemStore(),
		tokens:   testutil.NewTokens(),
		dispatch: &testutil.Dispatcher{},
		cache:    testutil.NewSummaryCache(),
		lock:     testutil.NewLocker(),
		mailer:   &fakeMailer{},
		issuer: pkg.NewTokenIssuer(pkg.JWTConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
		}),
	}
	st := e.mem.Stores()
	log := zap.NewNop()
	now := tickingClock()

	e.mail = NewMailService(e.mailer, log)
	e.auth = NewAuthService(st.Users, e.tokens, e.issuer, false)
	e.events = NewEventService(st, log)
	e.regs = NewRegistrationService(st, e.dispatch, e.mail, nil, log)
	e.comments = NewCommentService(st, e.dispatch, log)
	e.ratings = NewRatingService(st, e.cache, e.lock, log)
	e.feedback = NewFeedbackService(st)
	e.notes = NewNotificationService(st)
	e.super = NewSuperadminService(st, e.tokens, e.events, e.mail, log)

	e.auth.now = now
	e.events.now = now
	e.regs.now = now
	e.comments.now = now
	e.feedback.now = now
	e.super.now = now
	e.ratings.backoff = time.Millisecond
	return e
}

// user 直接写库，跳过注册流程
func (e *env) user(t *testing.T, name string, role model.Role, approved bool) Actor {
	t.Helper()
	u := &model.User{
		ID:         model.NewID(),
		Name:       name,
		Email:      name + "@campus.test",
		College:    name + " College",
		Role:       role,
		IsApproved: approved,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, e.mem.Stores().Users.Create(context.Background(), u))
	return Actor{ID: u.ID, Role: role}
}

func (e *env) event(t *testing.T, owner Actor, title string) *model.Event {
	t.Helper()
	ev, err := e.events.Create(context.Background(), owner, EventInput{
		Title:     title,
		Category:  model.CategoryHackathon,
		StartDate: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return ev
}
