package model

import "time"

type Category string

const (
	CategorySports    Category = "Sports"
	CategoryHackathon Category = "Hackathon"
	CategoryCultural  Category = "Cultural"
	CategoryWorkshop  Category = "Workshop"
)

func (c Category) Valid() bool {
	switch c {
	case CategorySports, CategoryHackathon, CategoryCultural, CategoryWorkshop:
		return true
	}
	return false
}

type Event struct {
	ID          string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	CollegeID   string    `gorm:"size:36;not null;index:idx_owner_start,priority:1" bson:"college_id" json:"college_id"`
	College     string    `gorm:"size:128" bson:"college" json:"college"`
	Title       string    `gorm:"size:200;not null" bson:"title" json:"title"`
	Description string    `gorm:"type:text" bson:"description,omitempty" json:"description,omitempty"`
	Category    Category  `gorm:"size:16;not null" bson:"category" json:"category"`
	Location    string    `gorm:"size:200" bson:"location,omitempty" json:"location,omitempty"`
	StartDate   time.Time `gorm:"not null;index:idx_owner_start,priority:2;index" bson:"start_date" json:"start_date"`
	EndDate     time.Time `gorm:"not null" bson:"end_date" json:"end_date"`
	OnlineLink  string    `gorm:"size:255" bson:"online_link,omitempty" json:"online_link,omitempty"`
	// Registrations 仅作展示，报名以 registrations 表为准
	Registrations []string  `gorm:"type:json;serializer:json" bson:"registrations" json:"registrations"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// OwnedBy 判断活动是否属于该管理员
func (e *Event) OwnedBy(userID string) bool {
	return e != nil && e.CollegeID == userID
}

type EventFilter struct {
	OwnerID string
}

// OwnerEventCount 按创建者聚合的活动数量
type OwnerEventCount struct {
	OwnerID string `bson:"_id"`
	Count   int64  `bson:"count"`
}
