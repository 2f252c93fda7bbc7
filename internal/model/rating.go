package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Rating struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:uk_user_event,priority:1" bson:"user_id" json:"user_id"`
	EventID   string    `gorm:"size:36;not null;uniqueIndex:uk_user_event,priority:2;index" bson:"event_id" json:"event_id"`
	Rating    int       `gorm:"not null" bson:"rating" json:"rating"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// RatingSummary 活动评分汇总
type RatingSummary struct {
	AverageRating float64  `json:"averageRating"`
	TotalRatings  int      `json:"totalRatings"`
	Ratings       []Rating `json:"ratings"`
}

func ValidRating(v int) bool {
	return v >= MinRating && v <= MaxRating
}
