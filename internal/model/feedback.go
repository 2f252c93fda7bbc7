package model

import "time"

// Feedback 创建后不可修改
type Feedback struct {
	ID        string       `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	UserID    string       `gorm:"size:36;not null;index" bson:"user_id" json:"user_id"`
	Message   string       `gorm:"type:text;not null" bson:"message" json:"message"`
	Rating    int          `gorm:"not null" bson:"rating" json:"rating"`
	Author    *UserSummary `gorm:"-" bson:"-" json:"user,omitempty"`
	CreatedAt time.Time    `gorm:"index" bson:"created_at" json:"created_at"`
	UpdatedAt time.Time    `bson:"updated_at" json:"updated_at"`
}

func (Feedback) TableName() string {
	return "feedback"
}
