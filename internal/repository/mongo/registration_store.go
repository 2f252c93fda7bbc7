package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
)

type RegistrationStore struct {
	c *mongo.Collection
}

func (s *RegistrationStore) Create(ctx context.Context, r *model.Registration) error {
	if r.ID == "" {
		r.ID = model.NewID()
	}
	ts := now()
	r.CreatedAt, r.UpdatedAt = ts, ts
	if r.RegisteredAt.IsZero() {
		r.RegisteredAt = ts
	}
	_, err := s.c.InsertOne(ctx, r)
	return translate(err)
}

func (s *RegistrationStore) FindByID(ctx context.Context, id string) (*model.Registration, error) {
	var r model.Registration
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *RegistrationStore) FindByStudentEvent(ctx context.Context, studentID, eventID string) (*model.Registration, error) {
	var r model.Registration
	if err := s.c.FindOne(ctx, bson.M{"student_id": studentID, "event_id": eventID}).Decode(&r); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *RegistrationStore) ListByStudent(ctx context.Context, studentID string) ([]model.Registration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "registered_at", Value: -1}})
	return findAll[model.Registration](ctx, s.c, bson.M{"student_id": studentID}, opts)
}

func (s *RegistrationStore) ListByEvents(ctx context.Context, eventIDs []string, status model.RegistrationStatus) ([]model.Registration, error) {
	if len(eventIDs) == 0 {
		return []model.Registration{}, nil
	}
	filter := bson.M{"event_id": bson.M{"$in": eventIDs}}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "registered_at", Value: -1}})
	return findAll[model.Registration](ctx, s.c, filter, opts)
}

// UpdateStatus 过滤条件带上旧状态，单文档更新本身是原子的
func (s *RegistrationStore) UpdateStatus(ctx context.Context, r *model.Registration, from model.RegistrationStatus) error {
	set := bson.M{
		"status":       r.Status,
		"notification": r.Notification,
		"updated_at":   r.UpdatedAt,
	}
	if r.ApprovedAt != nil {
		set["approved_at"] = *r.ApprovedAt
	}
	if r.RejectedAt != nil {
		set["rejected_at"] = *r.RejectedAt
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": r.ID, "status": from}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return pkg.ErrConflict
	}
	return nil
}

func (s *RegistrationStore) DeleteByStudentEvent(ctx context.Context, studentID, eventID string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"student_id": studentID, "event_id": eventID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func (s *RegistrationStore) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
