package mysql

import (
	"context"

	"gorm.io/gorm"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
)

type CommentRepository struct {
	DB *gorm.DB
}

func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return translate(r.DB.WithContext(ctx).Create(c).Error)
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	if err := r.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// ListByEvent 索引 (event_id, is_pinned, created_at)
func (r *CommentRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Comment, error) {
	var list []model.Comment
	err := r.DB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("is_pinned DESC, created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *CommentRepository) SetPinned(ctx context.Context, id string, pinned bool, by *string) error {
	res := r.DB.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_pinned": pinned, "pinned_by": by})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkg.ErrNotFound
	}
	return nil
}
