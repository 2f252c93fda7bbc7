package mysql

import (
	"context"

	"gorm.io/gorm"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
)

type RegistrationRepository struct {
	DB *gorm.DB
}

// Create 唯一索引 (student_id, event_id) 保证同一学生只能报名一次
func (r *RegistrationRepository) Create(ctx context.Context, reg *model.Registration) error {
	return translate(r.DB.WithContext(ctx).Create(reg).Error)
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*model.Registration, error) {
	var reg model.Registration
	if err := r.DB.WithContext(ctx).First(&reg, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

func (r *RegistrationRepository) FindByStudentEvent(ctx context.Context, studentID, eventID string) (*model.Registration, error) {
	var reg model.Registration
	if err := r.DB.WithContext(ctx).
		Where("student_id = ? AND event_id = ?", studentID, eventID).
		First(&reg).Error; err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

func (r *RegistrationRepository) ListByStudent(ctx context.Context, studentID string) ([]model.Registration, error) {
	var list []model.Registration
	err := r.DB.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("registered_at DESC").
		Find(&list).Error
	return list, err
}

func (r *RegistrationRepository) ListByEvents(ctx context.Context, eventIDs []string, status model.RegistrationStatus) ([]model.Registration, error) {
	if len(eventIDs) == 0 {
		return []model.Registration{}, nil
	}
	q := r.DB.WithContext(ctx).Where("event_id IN ?", eventIDs)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []model.Registration
	err := q.Order("registered_at DESC").Find(&list).Error
	return list, err
}

// UpdateStatus 比较并交换：WHERE status = from，并发审核只有一个能成功
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, reg *model.Registration, from model.RegistrationStatus) error {
	res := r.DB.WithContext(ctx).Model(&model.Registration{}).
		Where("id = ? AND status = ?", reg.ID, from).
		Updates(map[string]any{
			"status":       reg.Status,
			"notification": reg.Notification,
			"approved_at":  reg.ApprovedAt,
			"rejected_at":  reg.RejectedAt,
			"updated_at":   reg.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkg.ErrConflict
	}
	return nil
}

func (r *RegistrationRepository) DeleteByStudentEvent(ctx context.Context, studentID, eventID string) error {
	res := r.DB.WithContext(ctx).
		Where("student_id = ? AND event_id = ?", studentID, eventID).
		Delete(&model.Registration{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func (r *RegistrationRepository) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	res := r.DB.WithContext(ctx).Where("event_id = ?", eventID).Delete(&model.Registration{})
	return res.RowsAffected, res.Error
}
