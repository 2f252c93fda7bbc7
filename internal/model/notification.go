package model

import "time"

type NotificationType string

const (
	NotificationEventComment NotificationType = "event_comment"
	NotificationCommentReply NotificationType = "comment_reply"
)

type Notification struct {
	ID          string           `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	RecipientID string           `gorm:"size:36;not null;index:idx_recipient_time,priority:1" bson:"recipient_id" json:"recipient_id"`
	Type        NotificationType `gorm:"size:20;not null" bson:"type" json:"type"`
	Message     string           `gorm:"size:255;not null" bson:"message" json:"message"`
	EventID     string           `gorm:"size:36" bson:"event_id,omitempty" json:"event_id,omitempty"`
	CommentID   string           `gorm:"size:36" bson:"comment_id,omitempty" json:"comment_id,omitempty"`
	IsRead      bool             `gorm:"not null;index" bson:"is_read" json:"is_read"`
	// 查询时填充
	EventTitle string    `gorm:"-" bson:"-" json:"event_title,omitempty"`
	CreatedAt  time.Time `gorm:"index:idx_recipient_time,priority:2" bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}
