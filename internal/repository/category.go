package repository

import (
	"context"
	"errors"

	"forum/internal/cache"
	"forum/internal/models"
	"forum/internal/observability"

	"gorm.io/gorm"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, id uint, update models.CategoryUpdate) (bool, error)
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.CategoryView, error)
	List(ctx context.Context) ([]models.CategoryView, error)
	ListWithStats(ctx context.Context) ([]models.CategoryStats, error)
}

type categoryRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewCategoryRepository returns a CategoryRepository backed by db. store may be nil.
func NewCategoryRepository(db *gorm.DB, store *cache.Store) CategoryRepository {
	return &categoryRepository{db: db, cache: store}
}

const categoryColumns = "categories.id, categories.user_id, categories.name, categories.description, " +
	"categories.created_at, users.username AS author_name"

func (r *categoryRepository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("categories").
		Joins("JOIN users ON users.id = categories.user_id")
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	err := inTx(ctx, r.db, "categories", "create", func(tx *gorm.DB) error {
		return tx.Omit("Author", "Topics").Create(category).Error
	})
	if err != nil {
		return err
	}
	r.cache.InvalidateCategories(ctx)
	observability.RecordContentEvent("category", "create")
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, id uint, update models.CategoryUpdate) (bool, error) {
	found := false
	err := inTx(ctx, r.db, "categories", "update", func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.Category{}, id)
		if err != nil || !ok {
			return err
		}
		found = true
		if update.IsEmpty() {
			return nil
		}

		fields := map[string]interface{}{}
		if update.Name != nil {
			fields["name"] = *update.Name
		}
		if update.Description != nil {
			fields["description"] = *update.Description
		}
		return tx.Model(&models.Category{}).Where("id = ?", id).Updates(fields).Error
	})
	if err != nil {
		return false, err
	}
	if found {
		r.cache.InvalidateAll(ctx)
		observability.RecordContentEvent("category", "update")
	}
	return found, nil
}

// Delete removes the category, its topics and their posts. Deleting an absent
// category succeeds without effect.
func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	err := inTx(ctx, r.db, "categories", "delete", func(tx *gorm.DB) error {
		var topicIDs []uint
		if err := tx.Model(&models.Topic{}).Where("category_id = ?", id).Pluck("id", &topicIDs).Error; err != nil {
			return err
		}
		if len(topicIDs) > 0 {
			if err := tx.Where("topic_id IN ?", topicIDs).Delete(&models.Post{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", topicIDs).Delete(&models.Topic{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Category{}, id).Error
	})
	if err != nil {
		return err
	}
	r.cache.InvalidateAll(ctx)
	observability.RecordContentEvent("category", "delete")
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.CategoryView, error) {
	var view models.CategoryView
	err := r.base(ctx).Select(categoryColumns).Where("categories.id = ?", id).Take(&view).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &view, nil
}

// List returns every category ordered by name.
func (r *categoryRepository) List(ctx context.Context) ([]models.CategoryView, error) {
	views := []models.CategoryView{}
	err := r.cache.CacheAside(ctx, cache.CategoryIndexKey, &views, cache.CategoryIndexTTL, func() error {
		return r.base(ctx).Select(categoryColumns).Order("categories.name ASC, categories.id ASC").Scan(&views).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return views, nil
}

// ListWithStats returns every category with its topic and post counts, ordered by name.
func (r *categoryRepository) ListWithStats(ctx context.Context) ([]models.CategoryStats, error) {
	rows := []models.CategoryStats{}
	err := r.cache.CacheAside(ctx, cache.CategoryStatsKey, &rows, cache.CategoryStatsTTL, func() error {
		return r.base(ctx).
			Select(categoryColumns + ", " +
				"(SELECT COUNT(*) FROM topics WHERE topics.category_id = categories.id) AS topics_count, " +
				"(SELECT COUNT(*) FROM posts JOIN topics ON topics.id = posts.topic_id " +
				"WHERE topics.category_id = categories.id) AS posts_count").
			Order("categories.name ASC, categories.id ASC").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}
