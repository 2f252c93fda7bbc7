package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
)

type UserStore struct {
	c *mongo.Collection
}

func (s *UserStore) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = model.NewID()
	}
	ts := now()
	u.CreatedAt, u.UpdatedAt = ts, ts
	_, err := s.c.InsertOne(ctx, u)
	return translate(err)
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *UserStore) FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	out := make(map[string]*model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	list, err := findAll[model.User](ctx, s.c, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

func (s *UserStore) List(ctx context.Context, f model.UserFilter) ([]model.User, error) {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Approved != nil {
		filter["is_approved"] = *f.Approved
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findAll[model.User](ctx, s.c, filter, opts)
}

func (s *UserStore) UpdateProfile(ctx context.Context, id, name, college string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":       name,
		"college":    college,
		"updated_at": now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func (s *UserStore) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password":   hash,
		"updated_at": now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func (s *UserStore) Approve(ctx context.Context, id, by string, at time.Time) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "is_approved": false},
		bson.M{"$set": bson.M{
			"is_approved": true,
			"approved_by": by,
			"approved_at": at,
			"updated_at":  now(),
		}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return pkg.ErrNotFound
	}
	return nil
}
