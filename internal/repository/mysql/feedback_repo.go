package mysql

import (
	"context"

	"gorm.io/gorm"

	"campus_hub/internal/model"
)

type FeedbackRepository struct {
	DB *gorm.DB
}

func (r *FeedbackRepository) Create(ctx context.Context, f *model.Feedback) error {
	return translate(r.DB.WithContext(ctx).Create(f).Error)
}

func (r *FeedbackRepository) List(ctx context.Context) ([]model.Feedback, error) {
	var list []model.Feedback
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&list).Error
	return list, err
}
