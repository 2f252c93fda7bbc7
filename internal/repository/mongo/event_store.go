package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
)

type EventStore struct {
	c *mongo.Collection
}

func (s *EventStore) Create(ctx context.Context, e *model.Event) error {
	if e.ID == "" {
		e.ID = model.NewID()
	}
	if e.Registrations == nil {
		e.Registrations = []string{}
	}
	ts := now()
	e.CreatedAt, e.UpdatedAt = ts, ts
	_, err := s.c.InsertOne(ctx, e)
	return translate(err)
}

func (s *EventStore) FindByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *EventStore) FindByIDs(ctx context.Context, ids []string) (map[string]*model.Event, error) {
	out := make(map[string]*model.Event, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	list, err := findAll[model.Event](ctx, s.c, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

func (s *EventStore) List(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	filter := bson.M{}
	if f.OwnerID != "" {
		filter["college_id"] = f.OwnerID
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})
	return findAll[model.Event](ctx, s.c, filter, opts)
}

func (s *EventStore) Update(ctx context.Context, e *model.Event) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": e.ID}, bson.M{"$set": bson.M{
		"title":       e.Title,
		"description": e.Description,
		"category":    e.Category,
		"location":    e.Location,
		"start_date":  e.StartDate,
		"end_date":    e.EndDate,
		"online_link": e.OnlineLink,
		"college":     e.College,
		"updated_at":  now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func (s *EventStore) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

// AddRegistrant $addToSet 天然去重
func (s *EventStore) AddRegistrant(ctx context.Context, eventID, studentID string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": eventID}, bson.M{"$addToSet": bson.M{"registrations": studentID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func (s *EventStore) RemoveRegistrant(ctx context.Context, eventID, studentID string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": eventID}, bson.M{"$pull": bson.M{"registrations": studentID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func (s *EventStore) CountByOwner(ctx context.Context) ([]model.OwnerEventCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$college_id"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]model.OwnerEventCount, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
