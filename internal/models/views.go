package models

import "time"

// CategoryView is a category joined with its author's username.
type CategoryView struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	AuthorName  string    `json:"author_name"`
}

// CategoryStats is a category with the number of topics and posts it holds.
type CategoryStats struct {
	CategoryView
	TopicsCount int64 `json:"topics_count"`
	PostsCount  int64 `json:"posts_count"`
}

// TopicView is a topic joined with author, category and reply count.
type TopicView struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"user_id"`
	CategoryID   uint      `json:"category_id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	AuthorName   string    `json:"author_name"`
	CategoryName string    `json:"category_name"`
	PostsCount   int64     `json:"posts_count"`
}

// PostView is a post joined with its author and topic title.
type PostView struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	TopicID    uint      `json:"topic_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	AuthorName string    `json:"author_name"`
	TopicTitle string    `json:"topic_title"`
}

// ExcerptLength is the number of characters kept in a RecentPost excerpt.
const ExcerptLength = 100

// RecentPost is a short listing entry for the admin posts page.
type RecentPost struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	TopicID    uint      `json:"topic_id"`
	Excerpt    string    `json:"excerpt"`
	CreatedAt  time.Time `json:"created_at"`
	AuthorName string    `json:"author_name"`
	TopicTitle string    `json:"topic_title"`
}

// Excerpt shortens content to ExcerptLength characters, marking the cut with "...".
func Excerpt(content string) string {
	r := []rune(content)
	if len(r) <= ExcerptLength {
		return content
	}
	return string(r[:ExcerptLength]) + "..."
}

// UserStats is a user with counts of authored topics and posts.
type UserStats struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	IsAdmin     bool      `gorm:"column:admin" json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
	TopicsCount int64     `json:"topics_count"`
	PostsCount  int64     `json:"posts_count"`
}

// ForumStats are the global counters shown on the about page.
type ForumStats struct {
	Users      int64      `json:"users"`
	Categories int64      `json:"categories"`
	Topics     int64      `json:"topics"`
	Posts      int64      `json:"posts"`
	LastPostAt *time.Time `json:"last_post_at,omitempty"`
}

// UserUpdate carries the fields of a partial account update; nil fields are left unchanged.
// PasswordHash must already be hashed.
type UserUpdate struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// IsEmpty reports whether the update changes nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.Username == nil && u.Email == nil && u.PasswordHash == nil
}
