package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
	"campus_hub/internal/repository"
)

// setupTestDB 需要 CAMPUS_TEST_MONGO_URI，未设置时跳过
func setupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("CAMPUS_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CAMPUS_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, uri)
	require.NoError(t, err)

	db := client.Database("campus_test_" + model.NewID()[:8])
	require.NoError(t, EnsureIndexes(ctx, db))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func testStores(t *testing.T) (repository.Stores, context.Context) {
	db := setupTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return NewStores(db), ctx
}

func TestUserStoreUniqueEmail(t *testing.T) {
	st, ctx := testStores(t)

	u := &model.User{Name: "Ann", Email: "ann@example.com", Password: "x", Role: model.RoleCollegeAdmin}
	require.NoError(t, st.Users.Create(ctx, u))

	dup := &model.User{Name: "Ann2", Email: "ann@example.com", Password: "x", Role: model.RoleStudent}
	assert.ErrorIs(t, st.Users.Create(ctx, dup), pkg.ErrDuplicate)

	changed, err := st.Users.Approve(ctx, u.ID, "root", time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = st.Users.Approve(ctx, u.ID, "root", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = st.Users.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestRegistrationStoreCAS(t *testing.T) {
	st, ctx := testStores(t)

	reg := &model.Registration{StudentID: "s1", EventID: "e1", Status: model.StatusPending}
	require.NoError(t, st.Registrations.Create(ctx, reg))
	assert.ErrorIs(t, st.Registrations.Create(ctx, &model.Registration{StudentID: "s1", EventID: "e1", Status: model.StatusPending}), pkg.ErrDuplicate)

	approve := *reg
	_, err := approve.Transition(model.StatusApproved, time.Now().UTC(), "ok")
	require.NoError(t, err)
	require.NoError(t, st.Registrations.UpdateStatus(ctx, &approve, model.StatusPending))

	reject := *reg
	_, err = reject.Transition(model.StatusRejected, time.Now().UTC(), "no")
	require.NoError(t, err)
	assert.ErrorIs(t, st.Registrations.UpdateStatus(ctx, &reject, model.StatusPending), pkg.ErrConflict)

	got, err := st.Registrations.FindByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
	assert.NotNil(t, got.ApprovedAt)
	assert.Nil(t, got.RejectedAt)
}

func TestEventStoreRegistrantsAndStats(t *testing.T) {
	st, ctx := testStores(t)

	e := &model.Event{CollegeID: "a1", Title: "Hack", Category: model.CategoryHackathon, StartDate: time.Now(), EndDate: time.Now().Add(time.Hour)}
	require.NoError(t, st.Events.Create(ctx, e))
	require.NoError(t, st.Events.Create(ctx, &model.Event{CollegeID: "a1", Title: "Run", Category: model.CategorySports, StartDate: time.Now(), EndDate: time.Now()}))
	require.NoError(t, st.Events.Create(ctx, &model.Event{CollegeID: "a2", Title: "Art", Category: model.CategoryCultural, StartDate: time.Now(), EndDate: time.Now()}))

	require.NoError(t, st.Events.AddRegistrant(ctx, e.ID, "s1"))
	require.NoError(t, st.Events.AddRegistrant(ctx, e.ID, "s1"))
	got, err := st.Events.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, got.Registrations)

	require.NoError(t, st.Events.RemoveRegistrant(ctx, e.ID, "s1"))
	got, err = st.Events.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Registrations)

	stats, err := st.Events.CountByOwner(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "a1", stats[0].OwnerID)
	assert.Equal(t, int64(2), stats[0].Count)
}

func TestRatingStoreUpsert(t *testing.T) {
	st, ctx := testStores(t)

	r := &model.Rating{UserID: "u1", EventID: "e1", Rating: 3}
	require.NoError(t, st.Ratings.Upsert(ctx, r))
	firstID := r.ID

	again := &model.Rating{UserID: "u1", EventID: "e1", Rating: 5}
	require.NoError(t, st.Ratings.Upsert(ctx, again))
	assert.Equal(t, firstID, again.ID)

	list, err := st.Ratings.ListByEvent(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 5, list[0].Rating)
}

func TestNotificationStoreScopedRead(t *testing.T) {
	st, ctx := testStores(t)

	n := &model.Notification{RecipientID: "u1", Type: model.NotificationEventComment, Message: "hi"}
	require.NoError(t, st.Notifications.Create(ctx, n))

	assert.ErrorIs(t, st.Notifications.MarkRead(ctx, n.ID, "u2"), pkg.ErrNotFound)
	require.NoError(t, st.Notifications.MarkRead(ctx, n.ID, "u1"))

	require.NoError(t, st.Notifications.Create(ctx, &model.Notification{RecipientID: "u1", Type: model.NotificationCommentReply, Message: "re"}))
	changed, err := st.Notifications.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)
}
