package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campus_hub/internal/pkg"
	"campus_hub/internal/repository"
)

const (
	colUsers         = "users"
	colEvents        = "events"
	colRegistrations = "registrations"
	colComments      = "comments"
	colRatings       = "ratings"
	colFeedback      = "feedback"
	colNotifications = "notifications"
)

// Connect 建立连接并 Ping
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes 唯一索引承担去重语义，启动或 migrate 时执行
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	plan := map[string][]mongo.IndexModel{
		colUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("uk_user_email").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "role", Value: 1}, {Key: "is_approved", Value: 1}},
				Options: options.Index().SetName("idx_user_role_approved"),
			},
		},
		colEvents: {
			{
				Keys:    bson.D{{Key: "college_id", Value: 1}, {Key: "start_date", Value: 1}},
				Options: options.Index().SetName("idx_event_owner_start"),
			},
			{
				Keys:    bson.D{{Key: "start_date", Value: 1}},
				Options: options.Index().SetName("idx_event_start"),
			},
		},
		colRegistrations: {
			{
				Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "event_id", Value: 1}},
				Options: options.Index().SetName("uk_registration_student_event").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "status", Value: 1}},
				Options: options.Index().SetName("idx_registration_event_status"),
			},
		},
		colComments: {
			{
				Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "is_pinned", Value: -1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_comment_event_pin_time"),
			},
		},
		colRatings: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "event_id", Value: 1}},
				Options: options.Index().SetName("uk_rating_user_event").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "event_id", Value: 1}},
				Options: options.Index().SetName("idx_rating_event"),
			},
		},
		colFeedback: {
			{
				Keys:    bson.D{{Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_feedback_time"),
			},
		},
		colNotifications: {
			{
				Keys:    bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_notification_recipient_time"),
			},
		},
	}
	for col, indexes := range plan {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", col, err)
		}
	}
	return nil
}

func NewStores(db *mongo.Database) repository.Stores {
	return repository.Stores{
		Users:         &UserStore{c: db.Collection(colUsers)},
		Events:        &EventStore{c: db.Collection(colEvents)},
		Registrations: &RegistrationStore{c: db.Collection(colRegistrations)},
		Comments:      &CommentStore{c: db.Collection(colComments)},
		Ratings:       &RatingStore{c: db.Collection(colRatings)},
		Feedback:      &FeedbackStore{c: db.Collection(colFeedback)},
		Notifications: &NotificationStore{c: db.Collection(colNotifications)},
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return pkg.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return pkg.ErrDuplicate
	default:
		return err
	}
}

func findAll[T any](ctx context.Context, c *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func now() time.Time {
	// mongo 只保存到毫秒
	return time.Now().UTC().Truncate(time.Millisecond)
}
