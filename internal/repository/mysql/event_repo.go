package mysql

import (
	"context"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
)

type EventRepository struct {
	DB *gorm.DB
}

func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	if e.Registrations == nil {
		e.Registrations = []string{}
	}
	return translate(r.DB.WithContext(ctx).Create(e).Error)
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	if err := r.DB.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (r *EventRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*model.Event, error) {
	out := make(map[string]*model.Event, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []model.Event
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

func (r *EventRepository) List(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	q := r.DB.WithContext(ctx).Model(&model.Event{})
	if f.OwnerID != "" {
		q = q.Where("college_id = ?", f.OwnerID)
	}
	var list []model.Event
	err := q.Order("start_date ASC").Find(&list).Error
	return list, err
}

// Update 只更新可编辑字段，报名列表与创建者不变；与 mongo、内存实现保持同一字段集
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	res := r.DB.WithContext(ctx).Model(&model.Event{}).
		Where("id = ?", e.ID).
		Updates(map[string]any{
			"title":       e.Title,
			"description": e.Description,
			"category":    e.Category,
			"location":    e.Location,
			"start_date":  e.StartDate,
			"end_date":    e.EndDate,
			"online_link": e.OnlineLink,
			"college":     e.College,
			"updated_at":  e.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, e.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&model.Event{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

// AddRegistrant select for update 避免并发覆盖 JSON 列
func (r *EventRepository) AddRegistrant(ctx context.Context, eventID, studentID string) error {
	return r.mutateRegistrants(ctx, eventID, func(list []string) ([]string, bool) {
		if slices.Contains(list, studentID) {
			return list, false
		}
		return append(list, studentID), true
	})
}

func (r *EventRepository) RemoveRegistrant(ctx context.Context, eventID, studentID string) error {
	return r.mutateRegistrants(ctx, eventID, func(list []string) ([]string, bool) {
		idx := slices.Index(list, studentID)
		if idx < 0 {
			return list, false
		}
		return slices.Delete(list, idx, idx+1), true
	})
}

func (r *EventRepository) mutateRegistrants(ctx context.Context, eventID string, fn func([]string) ([]string, bool)) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event model.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "registrations").
			First(&event, "id = ?", eventID).Error; err != nil {
			return translate(err)
		}
		next, changed := fn(event.Registrations)
		if !changed {
			return nil
		}
		if next == nil {
			next = []string{}
		}
		event.Registrations = next
		return tx.Model(&event).Select("registrations").Updates(&event).Error
	})
}

func (r *EventRepository) CountByOwner(ctx context.Context) ([]model.OwnerEventCount, error) {
	var rows []model.OwnerEventCount
	err := r.DB.WithContext(ctx).Model(&model.Event{}).
		Select("college_id AS owner_id, COUNT(*) AS count").
		Group("college_id").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}
