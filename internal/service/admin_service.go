package service

import (
	"context"

	"forum/internal/models"
	"forum/internal/repository"
)

const dashboardListSize = 3

type AdminService struct {
	users      repository.UserRepository
	categories repository.CategoryRepository
	topics     repository.TopicRepository
	posts      repository.PostRepository
	stats      repository.StatsRepository
}

// Dashboard summarizes the forum for administrators.
type Dashboard struct {
	Stats        *models.ForumStats `json:"stats"`
	LatestUsers  []models.User      `json:"latest_users"`
	LatestTopics []models.TopicView `json:"latest_topics"`
}

func NewAdminService(
	users repository.UserRepository,
	categories repository.CategoryRepository,
	topics repository.TopicRepository,
	posts repository.PostRepository,
	stats repository.StatsRepository,
) *AdminService {
	return &AdminService{users: users, categories: categories, topics: topics, posts: posts, stats: stats}
}

func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	stats, err := s.stats.ForumStats(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.ListLatest(ctx, dashboardListSize)
	if err != nil {
		return nil, err
	}
	topics, err := s.topics.List(ctx, models.TopicFilter{Limit: dashboardListSize})
	if err != nil {
		return nil, err
	}
	return &Dashboard{Stats: stats, LatestUsers: users, LatestTopics: topics}, nil
}

func (s *AdminService) ListUsers(ctx context.Context) ([]models.UserStats, error) {
	return s.users.ListWithStats(ctx)
}

// ToggleAdmin flips the target's admin flag. Admins cannot change their own flag.
func (s *AdminService) ToggleAdmin(ctx context.Context, actorID, targetID uint) (*models.User, error) {
	if actorID == targetID {
		return nil, models.NewValidationError("You cannot change your own admin status")
	}
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", targetID)
	}

	ok, err := s.users.SetAdmin(ctx, targetID, !user.IsAdmin)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("User", targetID)
	}
	user.IsAdmin = !user.IsAdmin
	return user, nil
}

// DeleteUser removes an account without authored content. Admins cannot delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return models.NewValidationError("You cannot delete your own account")
	}
	ok, err := s.users.Delete(ctx, targetID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("User", targetID)
	}
	return nil
}

func (s *AdminService) ListCategories(ctx context.Context) ([]models.CategoryStats, error) {
	return s.categories.ListWithStats(ctx)
}

func (s *AdminService) ListTopics(ctx context.Context) ([]models.TopicView, error) {
	return s.topics.ListWithStats(ctx)
}

// ListRecentPosts returns the latest posts with excerpts; limit <= 0 means 20.
func (s *AdminService) ListRecentPosts(ctx context.Context, limit int) ([]models.RecentPost, error) {
	return s.posts.ListRecent(ctx, limit)
}
