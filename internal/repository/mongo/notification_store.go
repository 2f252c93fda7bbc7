package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
)

type NotificationStore struct {
	c *mongo.Collection
}

func (s *NotificationStore) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = model.NewID()
	}
	ts := now()
	n.CreatedAt, n.UpdatedAt = ts, ts
	_, err := s.c.InsertOne(ctx, n)
	return translate(err)
}

func (s *NotificationStore) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]model.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return findAll[model.Notification](ctx, s.c, bson.M{"recipient_id": recipientID}, opts)
}

func (s *NotificationStore) MarkRead(ctx context.Context, id, recipientID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "recipient_id": recipientID},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"recipient_id": recipientID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": now()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
