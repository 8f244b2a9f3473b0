package models

import "time"

// Post is a reply inside a topic.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Author    *User     `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	TopicID   uint      `gorm:"not null;index" json:"topic_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// PostUpdate carries the fields of a partial post update; nil fields are left unchanged.
type PostUpdate struct {
	Content *string
}

// IsEmpty reports whether the update changes nothing.
func (u PostUpdate) IsEmpty() bool {
	return u.Content == nil
}
