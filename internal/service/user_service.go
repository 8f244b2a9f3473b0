package service

import (
	"context"

	"forum/internal/models"
	"forum/internal/repository"
)

const profileRecentPosts = 5

type UserService struct {
	users repository.UserRepository
	posts repository.PostRepository
}

// Profile is a user's public page.
type Profile struct {
	User        *models.UserStats `json:"user"`
	RecentPosts []models.PostView `json:"recent_posts"`
}

func NewUserService(users repository.UserRepository, posts repository.PostRepository) *UserService {
	return &UserService{users: users, posts: posts}
}

// Profile returns counts and the five latest posts of the named user.
func (s *UserService) Profile(ctx context.Context, username string) (*Profile, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return s.ProfileByID(ctx, user.ID)
}

func (s *UserService) ProfileByID(ctx context.Context, id uint) (*Profile, error) {
	stats, err := s.users.GetStats(ctx, id)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, models.NewNotFoundError("User", id)
	}
	posts, err := s.posts.ListByUser(ctx, id, profileRecentPosts)
	if err != nil {
		return nil, err
	}
	return &Profile{User: stats, RecentPosts: posts}, nil
}

// IsAdmin reads the admin flag; unknown users are not admins.
func (s *UserService) IsAdmin(ctx context.Context, id uint) (bool, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user != nil && user.IsAdmin, nil
}
