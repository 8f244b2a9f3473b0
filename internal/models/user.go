// Package models contains the forum's persisted entities, query result shapes and error types.
package models

import "time"

// User is a registered forum member.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:80;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	IsAdmin   bool      `gorm:"column:admin;not null;default:false" json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}
