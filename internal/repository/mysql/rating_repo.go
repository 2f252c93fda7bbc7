package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus_hub/internal/model"
)

type RatingRepository struct {
	DB *gorm.DB
}

// Upsert 唯一 (user_id, event_id)，重复评分覆盖旧值
func (r *RatingRepository) Upsert(ctx context.Context, rating *model.Rating) error {
	now := time.Now().UTC()
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = now
	}
	rating.UpdatedAt = now
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
	}).Create(rating).Error
	if err != nil {
		return translate(err)
	}
	// 冲突更新时主键以库中为准
	var stored model.Rating
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", rating.UserID, rating.EventID).
		First(&stored).Error; err != nil {
		return translate(err)
	}
	*rating = stored
	return nil
}

func (r *RatingRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Rating, error) {
	var list []model.Rating
	err := r.DB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}
