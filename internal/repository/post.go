package repository

import (
	"context"
	"errors"

	"forum/internal/cache"
	"forum/internal/models"
	"forum/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, id uint, update models.PostUpdate) (bool, error)
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.PostView, error)
	ListByTopic(ctx context.Context, topicID uint) ([]models.PostView, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.PostView, error)
	ListRecent(ctx context.Context, limit int) ([]models.RecentPost, error)
}

type postRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewPostRepository returns a PostRepository backed by db. store may be nil.
func NewPostRepository(db *gorm.DB, store *cache.Store) PostRepository {
	return &postRepository{db: db, cache: store}
}

func applyPostDetails(db *gorm.DB) *gorm.DB {
	return db.Table("posts").
		Select("posts.id, posts.user_id, posts.topic_id, posts.content, posts.created_at, " +
			"users.username AS author_name, topics.title AS topic_title").
		Joins("JOIN users ON users.id = posts.user_id").
		Joins("JOIN topics ON topics.id = posts.topic_id")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := inTx(ctx, r.db, "posts", "create", func(tx *gorm.DB) error {
		return tx.Omit("Author").Create(post).Error
	})
	if err != nil {
		return err
	}
	r.cache.InvalidatePosts(ctx, post.TopicID)
	observability.RecordContentEvent("post", "create")
	return nil
}

func (r *postRepository) Update(ctx context.Context, id uint, update models.PostUpdate) (bool, error) {
	var post models.Post
	found := false
	err := inTx(ctx, r.db, "posts", "update", func(tx *gorm.DB) error {
		err := tx.Select("id", "topic_id").Take(&post, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		if update.IsEmpty() {
			return nil
		}
		return tx.Model(&models.Post{}).Where("id = ?", id).Update("content", *update.Content).Error
	})
	if err != nil {
		return false, err
	}
	if found {
		r.cache.InvalidatePosts(ctx, post.TopicID)
		observability.RecordContentEvent("post", "update")
	}
	return found, nil
}

// Delete removes the post. Deleting an absent post succeeds without effect.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	var post models.Post
	found := false
	err := inTx(ctx, r.db, "posts", "delete", func(tx *gorm.DB) error {
		err := tx.Select("id", "topic_id").Take(&post, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return tx.Delete(&models.Post{}, id).Error
	})
	if err != nil {
		return err
	}
	if found {
		r.cache.InvalidatePosts(ctx, post.TopicID)
		observability.RecordContentEvent("post", "delete")
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.PostView, error) {
	var view models.PostView
	err := applyPostDetails(r.db.WithContext(ctx)).Where("posts.id = ?", id).Take(&view).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &view, nil
}

// ListByTopic returns the posts of a topic oldest first.
func (r *postRepository) ListByTopic(ctx context.Context, topicID uint) ([]models.PostView, error) {
	views := []models.PostView{}
	err := applyPostDetails(r.db.WithContext(ctx)).
		Where("posts.topic_id = ?", topicID).
		Order("posts.created_at ASC, posts.id ASC").
		Scan(&views).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return views, nil
}

// ListByUser returns a user's latest posts, newest first.
func (r *postRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.PostView, error) {
	views := []models.PostView{}
	err := applyPostDetails(r.db.WithContext(ctx)).
		Where("posts.user_id = ?", userID).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(normalizeLimit(limit, defaultTopicLimit)).
		Scan(&views).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return views, nil
}

// ListRecent returns the latest posts across the forum with shortened content.
func (r *postRepository) ListRecent(ctx context.Context, limit int) ([]models.RecentPost, error) {
	views := []models.PostView{}
	err := applyPostDetails(r.db.WithContext(ctx)).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(normalizeLimit(limit, defaultRecentLimit)).
		Scan(&views).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	recent := make([]models.RecentPost, 0, len(views))
	for _, v := range views {
		recent = append(recent, models.RecentPost{
			ID:         v.ID,
			UserID:     v.UserID,
			TopicID:    v.TopicID,
			Excerpt:    models.Excerpt(v.Content),
			CreatedAt:  v.CreatedAt,
			AuthorName: v.AuthorName,
			TopicTitle: v.TopicTitle,
		})
	}
	return recent, nil
}
