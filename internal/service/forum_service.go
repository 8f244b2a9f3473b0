package service

import (
	"context"
	"strings"

	"forum/internal/models"
	"forum/internal/repository"
	"forum/internal/validation"
)

// Topic event types published to live topic feeds.
const (
	EventPostCreated  = "post_created"
	EventPostUpdated  = "post_updated"
	EventPostDeleted  = "post_deleted"
	EventTopicUpdated = "topic_updated"
	EventTopicDeleted = "topic_deleted"
)

// TopicEventPublisher fans topic events out to subscribers.
type TopicEventPublisher interface {
	PublishTopicEvent(ctx context.Context, topicID uint, eventType string, payload interface{})
}

type ForumService struct {
	categories repository.CategoryRepository
	topics     repository.TopicRepository
	posts      repository.PostRepository
	stats      repository.StatsRepository
	isAdmin    func(ctx context.Context, userID uint) (bool, error)
	events     TopicEventPublisher
}

type CreateCategoryInput struct {
	UserID      uint
	Name        string
	Description string
}

type UpdateCategoryInput struct {
	UserID      uint
	CategoryID  uint
	Name        *string
	Description *string
}

type CreateTopicInput struct {
	UserID     uint
	CategoryID uint
	Title      string
	Content    string
}

type UpdateTopicInput struct {
	UserID  uint
	TopicID uint
	Title   *string
	Content *string
}

type CreatePostInput struct {
	UserID  uint
	TopicID uint
	Content string
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Content *string
}

// CategoryPage is a category with its latest topics.
type CategoryPage struct {
	Category *models.CategoryView `json:"category"`
	Topics   []models.TopicView   `json:"topics"`
}

// TopicPage is a topic with all of its posts.
type TopicPage struct {
	Topic *models.TopicView `json:"topic"`
	Posts []models.PostView `json:"posts"`
}

// AboutPage holds the forum counters and the latest post.
type AboutPage struct {
	Stats    *models.ForumStats `json:"stats"`
	LastPost *models.RecentPost `json:"last_post,omitempty"`
}

// NewForumService wires the content repositories. isAdmin re-reads the admin
// flag of an acting user; events may be nil.
func NewForumService(
	categories repository.CategoryRepository,
	topics repository.TopicRepository,
	posts repository.PostRepository,
	stats repository.StatsRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
	events TopicEventPublisher,
) *ForumService {
	return &ForumService{
		categories: categories,
		topics:     topics,
		posts:      posts,
		stats:      stats,
		isAdmin:    isAdmin,
		events:     events,
	}
}

func (s *ForumService) publish(ctx context.Context, topicID uint, eventType string, payload interface{}) {
	if s.events != nil {
		s.events.PublishTopicEvent(ctx, topicID, eventType, payload)
	}
}

func (s *ForumService) admin(ctx context.Context, userID uint) (bool, error) {
	if s.isAdmin == nil {
		return false, nil
	}
	return s.isAdmin(ctx, userID)
}

func (s *ForumService) requireAdmin(ctx context.Context, userID uint) error {
	ok, err := s.admin(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewForbiddenError("Admin access required")
	}
	return nil
}

// authorize lets the owner or an admin act on a resource.
func (s *ForumService) authorize(ctx context.Context, actorID, ownerID uint, message string) error {
	if actorID != 0 && actorID == ownerID {
		return nil
	}
	ok, err := s.admin(ctx, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewForbiddenError(message)
	}
	return nil
}

func (s *ForumService) ListCategories(ctx context.Context) ([]models.CategoryStats, error) {
	return s.categories.ListWithStats(ctx)
}

func (s *ForumService) GetCategory(ctx context.Context, id uint) (*models.CategoryView, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, models.NewNotFoundError("Category", id)
	}
	return category, nil
}

// CategoryPage returns the category and its newest topics; limit <= 0 means 10.
func (s *ForumService) CategoryPage(ctx context.Context, id uint, limit int) (*CategoryPage, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	topics, err := s.topics.List(ctx, models.TopicFilter{CategoryID: &id, Limit: limit})
	if err != nil {
		return nil, err
	}
	return &CategoryPage{Category: category, Topics: topics}, nil
}

func (s *ForumService) CreateCategory(ctx context.Context, in CreateCategoryInput) (*models.CategoryView, error) {
	if err := s.requireAdmin(ctx, in.UserID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateCategoryName(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateDescription(in.Description); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	category := &models.Category{UserID: in.UserID, Name: name, Description: strings.TrimSpace(in.Description)}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return s.categories.GetByID(ctx, category.ID)
}

func (s *ForumService) UpdateCategory(ctx context.Context, in UpdateCategoryInput) (*models.CategoryView, error) {
	if err := s.requireAdmin(ctx, in.UserID); err != nil {
		return nil, err
	}

	var update models.CategoryUpdate
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateCategoryName(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		update.Name = &name
	}
	if in.Description != nil {
		if err := validation.ValidateDescription(*in.Description); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		desc := strings.TrimSpace(*in.Description)
		update.Description = &desc
	}

	ok, err := s.categories.Update(ctx, in.CategoryID, update)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("Category", in.CategoryID)
	}
	return s.categories.GetByID(ctx, in.CategoryID)
}

// DeleteCategory removes a category with all its topics and posts.
func (s *ForumService) DeleteCategory(ctx context.Context, userID, categoryID uint) error {
	if err := s.requireAdmin(ctx, userID); err != nil {
		return err
	}
	return s.categories.Delete(ctx, categoryID)
}

func (s *ForumService) ListTopics(ctx context.Context, filter models.TopicFilter) ([]models.TopicView, error) {
	return s.topics.List(ctx, filter)
}

func (s *ForumService) GetTopic(ctx context.Context, id uint) (*models.TopicView, error) {
	topic, err := s.topics.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, models.NewNotFoundError("Topic", id)
	}
	return topic, nil
}

func (s *ForumService) TopicPage(ctx context.Context, id uint) (*TopicPage, error) {
	topic, err := s.GetTopic(ctx, id)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ListByTopic(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TopicPage{Topic: topic, Posts: posts}, nil
}

func (s *ForumService) CreateTopic(ctx context.Context, in CreateTopicInput) (*models.TopicView, error) {
	title := strings.TrimSpace(in.Title)
	if err := validation.ValidateTopicTitle(title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateContent(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.GetCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	topic := &models.Topic{UserID: in.UserID, CategoryID: in.CategoryID, Title: title, Content: in.Content}
	if err := s.topics.Create(ctx, topic); err != nil {
		return nil, err
	}
	return s.topics.GetByID(ctx, topic.ID)
}

func (s *ForumService) UpdateTopic(ctx context.Context, in UpdateTopicInput) (*models.TopicView, error) {
	topic, err := s.GetTopic(ctx, in.TopicID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, in.UserID, topic.UserID, "You can only edit your own topics"); err != nil {
		return nil, err
	}

	var update models.TopicUpdate
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validation.ValidateTopicTitle(title); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		update.Title = &title
	}
	if in.Content != nil {
		if err := validation.ValidateContent(*in.Content); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		update.Content = in.Content
	}

	ok, err := s.topics.Update(ctx, in.TopicID, update)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("Topic", in.TopicID)
	}

	updated, err := s.topics.GetByID(ctx, in.TopicID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, in.TopicID, EventTopicUpdated, updated)
	return updated, nil
}

// DeleteTopic removes a topic and its posts. Deleting a missing topic succeeds.
func (s *ForumService) DeleteTopic(ctx context.Context, userID, topicID uint) error {
	topic, err := s.topics.GetByID(ctx, topicID)
	if err != nil {
		return err
	}
	if topic == nil {
		return nil
	}
	if err := s.authorize(ctx, userID, topic.UserID, "You can only delete your own topics"); err != nil {
		return err
	}
	if err := s.topics.Delete(ctx, topicID); err != nil {
		return err
	}
	s.publish(ctx, topicID, EventTopicDeleted, map[string]uint{"topic_id": topicID})
	return nil
}

func (s *ForumService) GetPost(ctx context.Context, id uint) (*models.PostView, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

func (s *ForumService) CreatePost(ctx context.Context, in CreatePostInput) (*models.PostView, error) {
	if err := validation.ValidateContent(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.GetTopic(ctx, in.TopicID); err != nil {
		return nil, err
	}

	post := &models.Post{UserID: in.UserID, TopicID: in.TopicID, Content: in.Content}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	view, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, in.TopicID, EventPostCreated, view)
	return view, nil
}

func (s *ForumService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.PostView, error) {
	post, err := s.GetPost(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, in.UserID, post.UserID, "You can only edit your own posts"); err != nil {
		return nil, err
	}
	if in.Content != nil {
		if err := validation.ValidateContent(*in.Content); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	ok, err := s.posts.Update(ctx, in.PostID, models.PostUpdate{Content: in.Content})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("Post", in.PostID)
	}

	updated, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, post.TopicID, EventPostUpdated, updated)
	return updated, nil
}

// DeletePost removes a post. Deleting a missing post succeeds.
func (s *ForumService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return nil
	}
	if err := s.authorize(ctx, userID, post.UserID, "You can only delete your own posts"); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	s.publish(ctx, post.TopicID, EventPostDeleted, map[string]uint{"post_id": postID})
	return nil
}

// About returns the forum counters and the most recent post.
func (s *ForumService) About(ctx context.Context) (*AboutPage, error) {
	stats, err := s.stats.ForumStats(ctx)
	if err != nil {
		return nil, err
	}
	page := &AboutPage{Stats: stats}

	recent, err := s.posts.ListRecent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(recent) > 0 {
		page.LastPost = &recent[0]
	}
	return page, nil
}
