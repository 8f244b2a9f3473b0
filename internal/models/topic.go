package models

import "time"

// Topic is a discussion thread inside a category.
type Topic struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Author     *User     `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	CategoryID uint      `gorm:"not null;index" json:"category_id"`
	Title      string    `gorm:"size:200;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	Posts      []Post    `gorm:"foreignKey:TopicID;constraint:OnDelete:CASCADE" json:"posts,omitempty"`
}

// TopicUpdate carries the fields of a partial topic update; nil fields are left unchanged.
type TopicUpdate struct {
	Title   *string
	Content *string
}

// IsEmpty reports whether the update changes nothing.
func (u TopicUpdate) IsEmpty() bool {
	return u.Title == nil && u.Content == nil
}

// TopicFilter narrows a topic listing. A zero Limit means the default of 10.
type TopicFilter struct {
	CategoryID *uint
	AuthorID   *uint
	Limit      int
}
