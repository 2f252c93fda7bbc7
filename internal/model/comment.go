package model

import "time"

type Comment struct {
	ID       string  `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	EventID  string  `gorm:"size:36;not null;index:idx_event_pin_time,priority:1" bson:"event_id" json:"event_id"`
	UserID   string  `gorm:"size:36;not null;index" bson:"user_id" json:"user_id"`
	Text     string  `gorm:"type:text;not null" bson:"text" json:"text"`
	ParentID *string `gorm:"size:36;index" bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	IsPinned bool    `gorm:"not null;index:idx_event_pin_time,priority:2" bson:"is_pinned" json:"is_pinned"`
	PinnedBy *string `gorm:"size:36" bson:"pinned_by,omitempty" json:"pinned_by,omitempty"`
	// 不落库，查询时填充
	Author    *UserSummary `gorm:"-" bson:"-" json:"user,omitempty"`
	CreatedAt time.Time    `gorm:"index:idx_event_pin_time,priority:3" bson:"created_at" json:"created_at"`
	UpdatedAt time.Time    `bson:"updated_at" json:"updated_at"`
}

// CommentParent 评论的父级：零值为顶层评论，ReplyTo 构造回复
type CommentParent struct {
	replyTo string
}

func RootComment() CommentParent {
	return CommentParent{}
}

func ReplyTo(commentID string) CommentParent {
	return CommentParent{replyTo: commentID}
}

func (p CommentParent) IsRoot() bool {
	return p.replyTo == ""
}

// ReplyTo 返回被回复的评论 ID
func (p CommentParent) ReplyTo() (string, bool) {
	return p.replyTo, p.replyTo != ""
}

func (c *Comment) Parent() CommentParent {
	if c.ParentID == nil {
		return RootComment()
	}
	return ReplyTo(*c.ParentID)
}

func (c *Comment) SetParent(p CommentParent) {
	if id, ok := p.ReplyTo(); ok {
		c.ParentID = &id
		return
	}
	c.ParentID = nil
}

// IsReply 带 ParentID 的评论是回复，否则是顶层评论
func (c *Comment) IsReply() bool {
	return !c.Parent().IsRoot()
}

// CommentThread 顶层评论及其回复
type CommentThread struct {
	Comment
	Replies []Comment `json:"replies"`
}
