// Package bootstrap prepares the database, Redis and initial data for a process.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"forum/internal/cache"
	"forum/internal/config"
	"forum/internal/database"
	"forum/internal/middleware"
	"forum/internal/models"
	"forum/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedDefaults bool
}

// InitRuntime connects to the database and Redis, ensures the configured root
// admin exists and optionally seeds the default categories.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	middleware.SetLevel(cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Nil when REDIS_URL is empty or unreachable.
	r := cache.InitRedis(cfg.RedisURL)

	root, err := EnsureRootAdmin(ctx, cfg, db)
	if err != nil {
		_ = database.Close(db)
		return nil, nil, fmt.Errorf("failed to bootstrap root admin: %w", err)
	}

	if opts.SeedDefaults {
		if err := SeedDefaults(ctx, db, root); err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
	}

	return db, r, nil
}

// EnsureRootAdmin creates the account named by ADMIN_USERNAME, or promotes it
// when it already exists. Existing credentials are left untouched. It returns
// nil when no root admin is configured.
func EnsureRootAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) (*models.User, error) {
	if cfg == nil || db == nil {
		return nil, nil
	}
	username := strings.TrimSpace(cfg.AdminUsername)
	if username == "" {
		return nil, nil
	}
	if cfg.AdminPassword == "" {
		return nil, errors.New("ADMIN_PASSWORD must be set when ADMIN_USERNAME is configured")
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		email = strings.ToLower(username) + "@forum.local"
	}

	var root models.User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := tx.Where("username = ?", username).First(&root).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash root password: %w", err)
			}
			root = models.User{
				Username: username,
				Email:    email,
				Password: string(hashed),
				IsAdmin:  true,
			}
			return tx.Create(&root).Error
		case findErr != nil:
			return findErr
		case !root.IsAdmin:
			root.IsAdmin = true
			return tx.Model(&models.User{}).Where("id = ?", root.ID).Update("admin", true).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "root admin ensured", "user_id", root.ID, "username", root.Username)
	return &root, nil
}

// SeedDefaults creates the default categories on an empty forum. Categories
// need an author, so nothing is seeded without a root admin.
func SeedDefaults(ctx context.Context, db *gorm.DB, root *models.User) error {
	if root == nil {
		middleware.Logger.InfoContext(ctx, "skipping default categories: no root admin configured")
		return nil
	}
	n, err := seed.Categories(db.WithContext(ctx), root.ID)
	if err != nil {
		return fmt.Errorf("failed to seed default categories: %w", err)
	}
	if n > 0 {
		middleware.Logger.InfoContext(ctx, "seeded default categories", "count", n)
	}
	return nil
}
