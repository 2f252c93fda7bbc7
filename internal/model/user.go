package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent      Role = "student"
	RoleCollegeAdmin Role = "college_admin"
	RoleSuperadmin   Role = "superadmin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCollegeAdmin, RoleSuperadmin:
		return true
	}
	return false
}

type User struct {
	ID         string     `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Name       string     `gorm:"size:64;not null" bson:"name" json:"name"`
	Email      string     `gorm:"uniqueIndex;size:128;not null" bson:"email" json:"email"`
	Password   string     `gorm:"size:255;not null" bson:"password" json:"-"`
	College    string     `gorm:"size:128;index" bson:"college,omitempty" json:"college,omitempty"`
	Role       Role       `gorm:"size:16;not null;index" bson:"role" json:"role"`
	IsApproved bool       `gorm:"not null" bson:"is_approved" json:"is_approved"`
	ApprovedBy *string    `gorm:"size:36" bson:"approved_by,omitempty" json:"approved_by,omitempty"`
	ApprovedAt *time.Time `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`
}

// UserFilter 用户列表查询条件，零值表示不过滤
type UserFilter struct {
	Role     Role
	Approved *bool
}

// UserSummary 嵌入到评论、反馈等返回体中的作者信息
type UserSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    Role   `json:"role,omitempty"`
	College string `json:"college,omitempty"`
}

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Role: u.Role, College: u.College}
}

// NewID 所有实体统一使用 UUID 字符串主键，两种存储后端通用
func NewID() string {
	return uuid.NewString()
}
