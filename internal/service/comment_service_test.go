package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
	"campus_hub/internal/realtime"
)

func TestCommentNotifiesOwner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner", model.RoleCollegeAdmin, true)
	student := e.user(t, "stu", model.RoleStudent, true)
	ev := e.event(t, owner, "Hack Night")

	c, err := e.comments.Create(ctx, student, ev.ID, "  looks fun  ", "")
	require.NoError(t, err)
	assert.Equal(t, "looks fun", c.Text)
	assert.False(t, c.IsReply())
	require.NotNil(t, c.Author)
	assert.Equal(t, "stu", c.Author.Name)

	notes, err := e.notes.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationEventComment, notes[0].Type)
	assert.Equal(t, `New comment on your event "Hack Night" by stu`, notes[0].Message)
	assert.Equal(t, "Hack Night", notes[0].EventTitle)

	sent := e.dispatch.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, owner.ID, sent[0].Identity)
	assert.Equal(t, realtime.EventNotification, sent[0].Msg.Event)

	// 创建者评论自己的活动不通知
	_, err = e.comments.Create(ctx, owner, ev.ID, "welcome all", "")
	require.NoError(t, err)
	assert.Len(t, e.dispatch.Sent(), 1)
}

func TestCommentValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner", model.RoleCollegeAdmin, true)
	student := e.user(t, "stu", model.RoleStudent, true)
	ev := e.event(t, owner, "Hack Night")

	_, err := e.comments.Create(ctx, student, ev.ID, "   ", "")
	assert.ErrorIs(t, err, pkg.ErrValidation)
	_, err = e.comments.Create(ctx, student, "missing", "hello", "")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestReplyRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner", model.RoleCollegeAdmin, true)
	s1 := e.user(t, "s1", model.RoleStudent, true)
	s2 := e.user(t, "s2", model.RoleStudent, true)
	ev := e.event(t, owner, "Hack Night")
	otherEv := e.event(t, owner, "Other")

	root, err := e.comments.Create(ctx, s1, ev.ID, "question?", "")
	require.NoError(t, err)
	before := len(e.dispatch.Sent())

	reply, err := e.comments.Reply(ctx, s2, ev.ID, root.ID, "answer")
	require.NoError(t, err)
	assert.True(t, reply.IsReply())
	parent, ok := reply.Parent().ReplyTo()
	require.True(t, ok)
	assert.Equal(t, root.ID, parent)

	sent := e.dispatch.Sent()
	require.Len(t, sent, before+1)
	assert.Equal(t, s1.ID, sent[before].Identity)
	notes, err := e.notes.List(ctx, s1)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "s2 replied to your comment", notes[0].Message)

	// 回复自己的评论不通知
	_, err = e.comments.Reply(ctx, s1, ev.ID, root.ID, "thanks")
	require.NoError(t, err)
	assert.Len(t, e.dispatch.Sent(), before+1)

	_, err = e.comments.Reply(ctx, s1, ev.ID, reply.ID, "nested")
	assert.ErrorIs(t, err, pkg.ErrValidation)

	_, err = e.comments.Reply(ctx, s1, otherEv.ID, root.ID, "wrong event")
	assert.ErrorIs(t, err, pkg.ErrValidation)

	_, err = e.comments.Reply(ctx, s1, ev.ID, "missing", "hello")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	// 带 parentId 的创建等同回复
	viaCreate, err := e.comments.Create(ctx, s2, ev.ID, "me too", root.ID)
	require.NoError(t, err)
	assert.True(t, viaCreate.IsReply())
}

func TestListThreads(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner", model.RoleCollegeAdmin, true)
	s1 := e.user(t, "s1", model.RoleStudent, true)
	ev := e.event(t, owner, "Hack Night")

	first, err := e.comments.Create(ctx, s1, ev.ID, "first", "")
	require.NoError(t, err)
	second, err := e.comments.Create(ctx, s1, ev.ID, "second", "")
	require.NoError(t, err)
	r1, err := e.comments.Reply(ctx, owner, ev.ID, first.ID, "reply one")
	require.NoError(t, err)
	r2, err := e.comments.Reply(ctx, s1, ev.ID, first.ID, "reply two")
	require.NoError(t, err)

	threads, err := e.comments.List(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, second.ID, threads[0].ID)
	assert.Equal(t, first.ID, threads[1].ID)
	assert.Empty(t, threads[0].Replies)
	require.Len(t, threads[1].Replies, 2)
	assert.Equal(t, r1.ID, threads[1].Replies[0].ID)
	assert.Equal(t, r2.ID, threads[1].Replies[1].ID)
	require.NotNil(t, threads[1].Replies[0].Author)
	assert.Equal(t, "owner", threads[1].Replies[0].Author.Name)

	_, err = e.comments.TogglePin(ctx, owner, ev.ID, first.ID)
	require.NoError(t, err)
	threads, err = e.comments.List(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, threads[0].ID)
	assert.True(t, threads[0].IsPinned)
}

func TestListThreadsPinnedReplyKeepsChronology(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner", model.RoleCollegeAdmin, true)
	s1 := e.user(t, "s1", model.RoleStudent, true)
	ev := e.event(t, owner, "Hack Night")

	root, err := e.comments.Create(ctx, s1, ev.ID, "question", "")
	require.NoError(t, err)
	var ids []string
	for _, text := range []string{"a", "b", "c"} {
		r, err := e.comments.Reply(ctx, owner, ev.ID, root.ID, text)
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}
	_, err = e.comments.TogglePin(ctx, owner, ev.ID, ids[0])
	require.NoError(t, err)

	threads, err := e.comments.List(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	require.Len(t, threads[0].Replies, 3)
	got := []string{threads[0].Replies[0].ID, threads[0].Replies[1].ID, threads[0].Replies[2].ID}
	assert.Equal(t, ids, got)
	assert.True(t, threads[0].Replies[0].IsPinned)
}

func TestTogglePin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner", model.RoleCollegeAdmin, true)
	other := e.user(t, "other", model.RoleCollegeAdmin, true)
	student := e.user(t, "stu", model.RoleStudent, true)
	ev := e.event(t, owner, "Hack Night")
	c, err := e.comments.Create(ctx, student, ev.ID, "pin me", "")
	require.NoError(t, err)

	_, err = e.comments.TogglePin(ctx, other, ev.ID, c.ID)
	assert.ErrorIs(t, err, pkg.ErrForbidden)
	_, err = e.comments.TogglePin(ctx, student, ev.ID, c.ID)
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	pinned, err := e.comments.TogglePin(ctx, owner, ev.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, pinned.IsPinned)
	require.NotNil(t, pinned.PinnedBy)
	assert.Equal(t, owner.ID, *pinned.PinnedBy)

	unpinned, err := e.comments.TogglePin(ctx, owner, ev.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, unpinned.IsPinned)
	assert.Nil(t, unpinned.PinnedBy)
}
