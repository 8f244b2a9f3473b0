package repository

import (
	"context"
	"errors"

	"forum/internal/cache"
	"forum/internal/models"

	"gorm.io/gorm"
)

// StatsRepository computes forum-wide counters.
type StatsRepository interface {
	ForumStats(ctx context.Context) (*models.ForumStats, error)
}

type statsRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewStatsRepository returns a StatsRepository backed by db. store may be nil.
func NewStatsRepository(db *gorm.DB, store *cache.Store) StatsRepository {
	return &statsRepository{db: db, cache: store}
}

// ForumStats returns user, category, topic and post counts plus the time of the latest post.
func (r *statsRepository) ForumStats(ctx context.Context) (*models.ForumStats, error) {
	var stats models.ForumStats
	err := r.cache.CacheAside(ctx, cache.ForumStatsKey, &stats, cache.ForumStatsTTL, func() error {
		db := r.db.WithContext(ctx)
		counts := []struct {
			model interface{}
			dest  *int64
		}{
			{&models.User{}, &stats.Users},
			{&models.Category{}, &stats.Categories},
			{&models.Topic{}, &stats.Topics},
			{&models.Post{}, &stats.Posts},
		}
		for _, c := range counts {
			if err := db.Model(c.model).Count(c.dest).Error; err != nil {
				return err
			}
		}

		var last models.Post
		err := db.Select("id", "created_at").Order("created_at DESC, id DESC").Take(&last).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			stats.LastPostAt = nil
		case err != nil:
			return err
		default:
			at := last.CreatedAt
			stats.LastPostAt = &at
		}
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &stats, nil
}
