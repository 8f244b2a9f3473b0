package service

import (
	"context"
	"testing"

	"forum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	updateFn        func(context.Context, uint, models.UserUpdate) (bool, error)
	setAdminFn      func(context.Context, uint, bool) (bool, error)
	deleteFn        func(context.Context, uint) (bool, error)
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error { return s.createFn(ctx, u) }
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, name string) (*models.User, error) {
	return s.getByUsernameFn(ctx, name)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Update(ctx context.Context, id uint, u models.UserUpdate) (bool, error) {
	return s.updateFn(ctx, id, u)
}
func (s *userRepoStub) SetAdmin(ctx context.Context, id uint, admin bool) (bool, error) {
	return s.setAdminFn(ctx, id, admin)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) (bool, error) { return s.deleteFn(ctx, id) }
func (s *userRepoStub) GetStats(context.Context, uint) (*models.UserStats, error) {
	return nil, nil
}
func (s *userRepoStub) ListWithStats(context.Context) ([]models.UserStats, error) { return nil, nil }
func (s *userRepoStub) ListLatest(context.Context, int) ([]models.User, error)     { return nil, nil }
func (s *userRepoStub) Count(context.Context) (int64, error)                        { return 0, nil }

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:        func(context.Context, *models.User) error { return nil },
		getByIDFn:       func(context.Context, uint) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		getByEmailFn:    func(context.Context, string) (*models.User, error) { return nil, nil },
		updateFn:        func(context.Context, uint, models.UserUpdate) (bool, error) { return true, nil },
		setAdminFn:      func(context.Context, uint, bool) (bool, error) { return true, nil },
		deleteFn:        func(context.Context, uint) (bool, error) { return true, nil },
	}
}

type topicRepoStub struct {
	createFn  func(context.Context, *models.Topic) error
	updateFn  func(context.Context, uint, models.TopicUpdate) (bool, error)
	deleteFn  func(context.Context, uint) error
	getByIDFn func(context.Context, uint) (*models.TopicView, error)
}

func (s *topicRepoStub) Create(ctx context.Context, tp *models.Topic) error { return s.createFn(ctx, tp) }
func (s *topicRepoStub) Update(ctx context.Context, id uint, u models.TopicUpdate) (bool, error) {
	return s.updateFn(ctx, id, u)
}
func (s *topicRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *topicRepoStub) GetByID(ctx context.Context, id uint) (*models.TopicView, error) {
	return s.getByIDFn(ctx, id)
}
func (s *topicRepoStub) List(context.Context, models.TopicFilter) ([]models.TopicView, error) {
	return nil, nil
}
func (s *topicRepoStub) ListWithStats(context.Context) ([]models.TopicView, error) { return nil, nil }

func noopTopicRepo() *topicRepoStub {
	return &topicRepoStub{
		createFn: func(context.Context, *models.Topic) error { return nil },
		updateFn: func(context.Context, uint, models.TopicUpdate) (bool, error) { return true, nil },
		deleteFn: func(context.Context, uint) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.TopicView, error) {
			return &models.TopicView{ID: id, UserID: 1}, nil
		},
	}
}

type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	updateFn  func(context.Context, uint, models.PostUpdate) (bool, error)
	deleteFn  func(context.Context, uint) error
	getByIDFn func(context.Context, uint) (*models.PostView, error)
}

func (s *postRepoStub) Create(ctx context.Context, p *models.Post) error { return s.createFn(ctx, p) }
func (s *postRepoStub) Update(ctx context.Context, id uint, u models.PostUpdate) (bool, error) {
	return s.updateFn(ctx, id, u)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.PostView, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) ListByTopic(context.Context, uint) ([]models.PostView, error) { return nil, nil }
func (s *postRepoStub) ListByUser(context.Context, uint, int) ([]models.PostView, error) {
	return nil, nil
}
func (s *postRepoStub) ListRecent(context.Context, int) ([]models.RecentPost, error) { return nil, nil }

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(context.Context, *models.Post) error { return nil },
		updateFn: func(context.Context, uint, models.PostUpdate) (bool, error) { return true, nil },
		deleteFn: func(context.Context, uint) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.PostView, error) {
			return &models.PostView{ID: id, UserID: 1, TopicID: 1}, nil
		},
	}
}

type categoryRepoStub struct {
	createFn  func(context.Context, *models.Category) error
	deleteFn  func(context.Context, uint) error
	getByIDFn func(context.Context, uint) (*models.CategoryView, error)
}

func (s *categoryRepoStub) Create(ctx context.Context, c *models.Category) error {
	return s.createFn(ctx, c)
}
func (s *categoryRepoStub) Update(context.Context, uint, models.CategoryUpdate) (bool, error) {
	return true, nil
}
func (s *categoryRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *categoryRepoStub) GetByID(ctx context.Context, id uint) (*models.CategoryView, error) {
	return s.getByIDFn(ctx, id)
}
func (s *categoryRepoStub) List(context.Context) ([]models.CategoryView, error) { return nil, nil }
func (s *categoryRepoStub) ListWithStats(context.Context) ([]models.CategoryStats, error) {
	return nil, nil
}

func noopCategoryRepo() *categoryRepoStub {
	return &categoryRepoStub{
		createFn: func(context.Context, *models.Category) error { return nil },
		deleteFn: func(context.Context, uint) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.CategoryView, error) {
			return &models.CategoryView{ID: id}, nil
		},
	}
}

type publishedEvent struct {
	topicID   uint
	eventType string
}

type recordingPublisher struct {
	events []publishedEvent
}

func (p *recordingPublisher) PublishTopicEvent(_ context.Context, topicID uint, eventType string, _ interface{}) {
	p.events = append(p.events, publishedEvent{topicID: topicID, eventType: eventType})
}

func adminIDs(ids ...uint) func(context.Context, uint) (bool, error) {
	return func(_ context.Context, id uint) (bool, error) {
		for _, a := range ids {
			if a == id {
				return true, nil
			}
		}
		return false, nil
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := models.AsAppError(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
