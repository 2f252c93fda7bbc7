package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campus_hub/internal/model"
)

type FeedbackStore struct {
	c *mongo.Collection
}

func (s *FeedbackStore) Create(ctx context.Context, f *model.Feedback) error {
	if f.ID == "" {
		f.ID = model.NewID()
	}
	ts := now()
	f.CreatedAt, f.UpdatedAt = ts, ts
	_, err := s.c.InsertOne(ctx, f)
	return translate(err)
}

func (s *FeedbackStore) List(ctx context.Context) ([]model.Feedback, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findAll[model.Feedback](ctx, s.c, bson.M{}, opts)
}
