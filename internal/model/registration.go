package model

import (
	"time"

	"campus_hub/internal/pkg"
)

type RegistrationStatus string

const (
	StatusPending  RegistrationStatus = "pending"
	StatusApproved RegistrationStatus = "approved"
	StatusRejected RegistrationStatus = "rejected"
)

func (s RegistrationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal approved / rejected 均为终态
func (s RegistrationStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Registration struct {
	ID           string             `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	StudentID    string             `gorm:"size:36;not null;uniqueIndex:uk_student_event,priority:1" bson:"student_id" json:"student_id"`
	EventID      string             `gorm:"size:36;not null;uniqueIndex:uk_student_event,priority:2;index" bson:"event_id" json:"event_id"`
	Status       RegistrationStatus `gorm:"size:16;not null;index" bson:"status" json:"status"`
	Notification string             `gorm:"size:255" bson:"notification" json:"notification"`
	RegisteredAt time.Time          `gorm:"not null" bson:"registered_at" json:"registered_at"`
	ApprovedAt   *time.Time         `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	RejectedAt   *time.Time         `bson:"rejected_at,omitempty" json:"rejected_at,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Transition 审核状态迁移：只允许 pending -> approved / rejected。
// 重复同一迁移视为幂等，返回 changed=false 且不改动时间戳。
func (r *Registration) Transition(to RegistrationStatus, at time.Time, message string) (bool, error) {
	if !to.Terminal() {
		return false, pkg.Invalid("status", "must be approved or rejected")
	}
	if r.Status == to {
		return false, nil
	}
	if r.Status != StatusPending {
		return false, pkg.ErrInvalidTransition
	}

	r.Status = to
	r.Notification = message
	r.UpdatedAt = at
	stamp := at
	if to == StatusApproved {
		r.ApprovedAt = &stamp
	} else {
		r.RejectedAt = &stamp
	}
	return true, nil
}
