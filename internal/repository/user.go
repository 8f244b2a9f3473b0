package repository

import (
	"context"
	"errors"

	"forum/internal/cache"
	"forum/internal/models"

	"gorm.io/gorm"
)

// Conflict messages returned by UserRepository.
const (
	MsgUsernameTaken   = "Username is already taken"
	MsgEmailRegistered = "Email is already registered"
	MsgUserHasContent  = "User still authors categories, topics or posts"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id uint, update models.UserUpdate) (bool, error)
	SetAdmin(ctx context.Context, id uint, admin bool) (bool, error)
	Delete(ctx context.Context, id uint) (bool, error)
	GetStats(ctx context.Context, id uint) (*models.UserStats, error)
	ListWithStats(ctx context.Context) ([]models.UserStats, error)
	ListLatest(ctx context.Context, limit int) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewUserRepository returns a UserRepository backed by db. store may be nil.
func NewUserRepository(db *gorm.DB, store *cache.Store) UserRepository {
	return &userRepository{db: db, cache: store}
}

// Create inserts the user. A duplicate username or email is reported as a
// CONFLICT AppError naming the offending field.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	err := inTx(ctx, r.db, "users", "create", func(tx *gorm.DB) error {
		err := tx.Create(user).Error
		if err != nil && isUniqueConstraintError(err) {
			return uniqueUserError(err)
		}
		return err
	})
	if err != nil {
		return err
	}
	r.cache.InvalidateUsers(ctx)
	return nil
}

func uniqueUserError(err error) *models.AppError {
	switch uniqueViolationColumn(err, "username", "email") {
	case "username":
		return models.NewConflictError(MsgUsernameTaken)
	case "email":
		return models.NewConflictError(MsgEmailRegistered)
	default:
		return models.NewConflictError("User already exists")
	}
}

func (r *userRepository) first(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) Update(ctx context.Context, id uint, update models.UserUpdate) (bool, error) {
	found := false
	err := inTx(ctx, r.db, "users", "update", func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.User{}, id)
		if err != nil || !ok {
			return err
		}
		found = true

		fields := map[string]interface{}{}
		if update.Username != nil {
			fields["username"] = *update.Username
		}
		if update.Email != nil {
			fields["email"] = *update.Email
		}
		if update.PasswordHash != nil {
			fields["password"] = *update.PasswordHash
		}
		if len(fields) == 0 {
			return nil
		}
		err = tx.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
		if err != nil && isUniqueConstraintError(err) {
			return uniqueUserError(err)
		}
		return err
	})
	if err != nil {
		return false, err
	}
	if found {
		// Usernames are denormalized into cached listings.
		r.cache.InvalidateAll(ctx)
	}
	return found, nil
}

func (r *userRepository) SetAdmin(ctx context.Context, id uint, admin bool) (bool, error) {
	found := false
	err := inTx(ctx, r.db, "users", "set_admin", func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.User{}, id)
		if err != nil || !ok {
			return err
		}
		found = true
		return tx.Model(&models.User{}).Where("id = ?", id).Update("admin", admin).Error
	})
	if err != nil {
		return false, err
	}
	if found {
		r.cache.InvalidateUsers(ctx)
	}
	return found, nil
}

// Delete removes a user that authors no content. It returns false when the
// user does not exist and a CONFLICT AppError while content remains.
func (r *userRepository) Delete(ctx context.Context, id uint) (bool, error) {
	found := false
	err := inTx(ctx, r.db, "users", "delete", func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.User{}, id)
		if err != nil || !ok {
			return err
		}
		found = true

		for _, model := range []interface{}{&models.Category{}, &models.Topic{}, &models.Post{}} {
			var n int64
			if err := tx.Model(model).Where("user_id = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return models.NewConflictError(MsgUserHasContent)
			}
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return false, err
	}
	if found {
		r.cache.InvalidateUsers(ctx)
	}
	return found, nil
}

const userStatsColumns = "users.id, users.username, users.email, users.admin, users.created_at, " +
	"(SELECT COUNT(*) FROM topics WHERE topics.user_id = users.id) AS topics_count, " +
	"(SELECT COUNT(*) FROM posts WHERE posts.user_id = users.id) AS posts_count"

// GetStats returns one user with topic and post counts, or nil when absent.
func (r *userRepository) GetStats(ctx context.Context, id uint) (*models.UserStats, error) {
	var stats models.UserStats
	err := r.db.WithContext(ctx).Table("users").Select(userStatsColumns).Where("users.id = ?", id).Take(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &stats, nil
}

// ListWithStats returns every user with topic and post counts in registration order.
func (r *userRepository) ListWithStats(ctx context.Context) ([]models.UserStats, error) {
	rows := []models.UserStats{}
	err := r.cache.CacheAside(ctx, cache.UserStatsIndexKey, &rows, cache.UserStatsTTL, func() error {
		return r.db.WithContext(ctx).Table("users").Select(userStatsColumns).Order("users.id ASC").Scan(&rows).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

// ListLatest returns the most recently registered users.
func (r *userRepository) ListLatest(ctx context.Context, limit int) ([]models.User, error) {
	users := []models.User{}
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(normalizeLimit(limit, defaultTopicLimit)).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
