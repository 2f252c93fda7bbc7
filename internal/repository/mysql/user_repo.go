package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return translate(r.DB.WithContext(ctx).Create(user).Error)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	out := make(map[string]*model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []model.User
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

func (r *UserRepository) List(ctx context.Context, f model.UserFilter) ([]model.User, error) {
	q := r.DB.WithContext(ctx).Model(&model.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Approved != nil {
		q = q.Where("is_approved = ?", *f.Approved)
	}
	var list []model.User
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, college string) error {
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "college": college})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// 值未变化时 MySQL 也会返回 0，这里再确认一次是否存在
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Approve 条件更新，已审核的账号不会被重复写入
func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Approve(ctx context.Context, id, by string, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND is_approved = ?", id, false).
		Updates(map[string]any{"is_approved": true, "approved_by": by, "approved_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&model.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkg.ErrNotFound
	}
	return nil
}
