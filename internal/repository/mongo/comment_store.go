package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
)

type CommentStore struct {
	c *mongo.Collection
}

func (s *CommentStore) Create(ctx context.Context, c *model.Comment) error {
	if c.ID == "" {
		c.ID = model.NewID()
	}
	ts := now()
	c.CreatedAt, c.UpdatedAt = ts, ts
	_, err := s.c.InsertOne(ctx, c)
	return translate(err)
}

func (s *CommentStore) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *CommentStore) ListByEvent(ctx context.Context, eventID string) ([]model.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "is_pinned", Value: -1}, {Key: "created_at", Value: -1}})
	return findAll[model.Comment](ctx, s.c, bson.M{"event_id": eventID}, opts)
}

func (s *CommentStore) SetPinned(ctx context.Context, id string, pinned bool, by *string) error {
	update := bson.M{"$set": bson.M{"is_pinned": pinned, "updated_at": now()}}
	if by != nil {
		update["$set"].(bson.M)["pinned_by"] = *by
	} else {
		update["$unset"] = bson.M{"pinned_by": ""}
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return pkg.ErrNotFound
	}
	return nil
}
