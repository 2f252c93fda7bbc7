package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campus_hub/internal/model"
)

type RatingStore struct {
	c *mongo.Collection
}

// Upsert 以 (user_id, event_id) 为键，首次写入才生成 _id 与 created_at
func (s *RatingStore) Upsert(ctx context.Context, r *model.Rating) error {
	if r.ID == "" {
		r.ID = model.NewID()
	}
	ts := now()
	filter := bson.M{"user_id": r.UserID, "event_id": r.EventID}
	update := bson.M{
		"$set": bson.M{"rating": r.Rating, "updated_at": ts},
		"$setOnInsert": bson.M{
			"_id":        r.ID,
			"created_at": ts,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored model.Rating
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return translate(err)
	}
	*r = stored
	return nil
}

func (s *RatingStore) ListByEvent(ctx context.Context, eventID string) ([]model.Rating, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findAll[model.Rating](ctx, s.c, bson.M{"event_id": eventID}, opts)
}
