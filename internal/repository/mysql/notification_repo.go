package mysql

import (
	"context"

	"gorm.io/gorm"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return translate(r.DB.WithContext(ctx).Create(n).Error)
}

// ListByRecipient 索引 (recipient_id, created_at)
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]model.Notification, error) {
	var list []model.Notification
	q := r.DB.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, err
}

// MarkRead 带接收者条件，别人的通知按不存在处理
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	res := r.DB.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := r.DB.WithContext(ctx).Model(&model.Notification{}).
			Where("id = ? AND recipient_id = ?", id, recipientID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return pkg.ErrNotFound
		}
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
