package models

import "time"

// Category groups topics. Deleting it removes its topics and their posts.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Author      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Topics      []Topic   `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"topics,omitempty"`
}

// CategoryUpdate carries the fields of a partial category update; nil fields are left unchanged.
type CategoryUpdate struct {
	Name        *string
	Description *string
}

// IsEmpty reports whether the update changes nothing.
func (u CategoryUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil
}
