package repository

import (
	"context"
	"errors"

	"forum/internal/cache"
	"forum/internal/models"
	"forum/internal/observability"

	"gorm.io/gorm"
)

// TopicRepository defines persistence operations for topics.
type TopicRepository interface {
	Create(ctx context.Context, topic *models.Topic) error
	Update(ctx context.Context, id uint, update models.TopicUpdate) (bool, error)
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.TopicView, error)
	List(ctx context.Context, filter models.TopicFilter) ([]models.TopicView, error)
	ListWithStats(ctx context.Context) ([]models.TopicView, error)
}

type topicRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewTopicRepository returns a TopicRepository backed by db. store may be nil.
func NewTopicRepository(db *gorm.DB, store *cache.Store) TopicRepository {
	return &topicRepository{db: db, cache: store}
}

// applyTopicDetails selects topic columns with author, category and reply count.
func applyTopicDetails(db *gorm.DB) *gorm.DB {
	return db.Table("topics").
		Select("topics.id, topics.user_id, topics.category_id, topics.title, topics.content, topics.created_at, " +
			"users.username AS author_name, categories.name AS category_name, " +
			"(SELECT COUNT(*) FROM posts WHERE posts.topic_id = topics.id) AS posts_count").
		Joins("JOIN users ON users.id = topics.user_id").
		Joins("JOIN categories ON categories.id = topics.category_id")
}

func (r *topicRepository) Create(ctx context.Context, topic *models.Topic) error {
	err := inTx(ctx, r.db, "topics", "create", func(tx *gorm.DB) error {
		return tx.Omit("Author", "Posts").Create(topic).Error
	})
	if err != nil {
		return err
	}
	r.cache.InvalidateTopic(ctx, topic.ID)
	observability.RecordContentEvent("topic", "create")
	return nil
}

func (r *topicRepository) Update(ctx context.Context, id uint, update models.TopicUpdate) (bool, error) {
	found := false
	err := inTx(ctx, r.db, "topics", "update", func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.Topic{}, id)
		if err != nil || !ok {
			return err
		}
		found = true
		if update.IsEmpty() {
			return nil
		}

		fields := map[string]interface{}{}
		if update.Title != nil {
			fields["title"] = *update.Title
		}
		if update.Content != nil {
			fields["content"] = *update.Content
		}
		return tx.Model(&models.Topic{}).Where("id = ?", id).Updates(fields).Error
	})
	if err != nil {
		return false, err
	}
	if found {
		r.cache.InvalidateTopic(ctx, id)
		observability.RecordContentEvent("topic", "update")
	}
	return found, nil
}

// Delete removes the topic and its posts. Deleting an absent topic succeeds without effect.
func (r *topicRepository) Delete(ctx context.Context, id uint) error {
	err := inTx(ctx, r.db, "topics", "delete", func(tx *gorm.DB) error {
		if err := tx.Where("topic_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Topic{}, id).Error
	})
	if err != nil {
		return err
	}
	r.cache.InvalidateTopic(ctx, id)
	observability.RecordContentEvent("topic", "delete")
	return nil
}

func (r *topicRepository) GetByID(ctx context.Context, id uint) (*models.TopicView, error) {
	var view models.TopicView
	err := r.cache.CacheAside(ctx, cache.TopicKey(id), &view, cache.TopicTTL, func() error {
		err := applyTopicDetails(r.db.WithContext(ctx)).Where("topics.id = ?", id).Take(&view).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errAbsent
		}
		return err
	})
	if errors.Is(err, errAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &view, nil
}

// List returns topics newest first, optionally restricted to a category or author.
func (r *topicRepository) List(ctx context.Context, filter models.TopicFilter) ([]models.TopicView, error) {
	q := applyTopicDetails(r.db.WithContext(ctx))
	if filter.CategoryID != nil {
		q = q.Where("topics.category_id = ?", *filter.CategoryID)
	}
	if filter.AuthorID != nil {
		q = q.Where("topics.user_id = ?", *filter.AuthorID)
	}

	views := []models.TopicView{}
	err := q.Order("topics.created_at DESC, topics.id DESC").
		Limit(normalizeLimit(filter.Limit, defaultTopicLimit)).
		Scan(&views).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return views, nil
}

// ListWithStats returns every topic with author, category and reply count, newest first.
func (r *topicRepository) ListWithStats(ctx context.Context) ([]models.TopicView, error) {
	views := []models.TopicView{}
	err := applyTopicDetails(r.db.WithContext(ctx)).
		Order("topics.created_at DESC, topics.id DESC").
		Scan(&views).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return views, nil
}
