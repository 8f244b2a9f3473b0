package service

import (
	"context"
	"strings"
	"testing"

	"forum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newForumService(cats *categoryRepoStub, topics *topicRepoStub, posts *postRepoStub, admins []uint, pub TopicEventPublisher) *ForumService {
	return NewForumService(cats, topics, posts, nil, adminIDs(admins...), pub)
}

func TestForumService_CategoryRequiresAdmin(t *testing.T) {
	t.Parallel()
	created := false
	cats := noopCategoryRepo()
	cats.createFn = func(_ context.Context, c *models.Category) error {
		created = true
		c.ID = 3
		return nil
	}
	svc := newForumService(cats, noopTopicRepo(), noopPostRepo(), []uint{1}, nil)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, CreateCategoryInput{UserID: 2, Name: "General"})
	assertCode(t, err, models.CodeForbidden)
	assert.False(t, created)

	err = svc.DeleteCategory(ctx, 2, 3)
	assertCode(t, err, models.CodeForbidden)

	view, err := svc.CreateCategory(ctx, CreateCategoryInput{UserID: 1, Name: "  General  ", Description: "talk"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint(3), view.ID)

	_, err = svc.CreateCategory(ctx, CreateCategoryInput{UserID: 1, Name: strings.Repeat("n", 101)})
	assertCode(t, err, models.CodeValidation)
}

func TestForumService_CreateTopic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("missing category", func(t *testing.T) {
		t.Parallel()
		cats := noopCategoryRepo()
		cats.getByIDFn = func(context.Context, uint) (*models.CategoryView, error) { return nil, nil }
		svc := newForumService(cats, noopTopicRepo(), noopPostRepo(), nil, nil)

		_, err := svc.CreateTopic(ctx, CreateTopicInput{UserID: 2, CategoryID: 9, Title: "Hi", Content: "Body"})
		assertCode(t, err, models.CodeNotFound)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		svc := newForumService(noopCategoryRepo(), noopTopicRepo(), noopPostRepo(), nil, nil)

		_, err := svc.CreateTopic(ctx, CreateTopicInput{UserID: 2, CategoryID: 1, Title: " ", Content: "Body"})
		assertCode(t, err, models.CodeValidation)
		_, err = svc.CreateTopic(ctx, CreateTopicInput{UserID: 2, CategoryID: 1, Title: "Hi"})
		assertCode(t, err, models.CodeValidation)
	})

	t.Run("any user may create", func(t *testing.T) {
		t.Parallel()
		topics := noopTopicRepo()
		var stored *models.Topic
		topics.createFn = func(_ context.Context, tp *models.Topic) error {
			tp.ID = 11
			stored = tp
			return nil
		}
		svc := newForumService(noopCategoryRepo(), topics, noopPostRepo(), nil, nil)

		view, err := svc.CreateTopic(ctx, CreateTopicInput{UserID: 2, CategoryID: 1, Title: "Hi", Content: "Body"})
		require.NoError(t, err)
		assert.Equal(t, uint(11), view.ID)
		assert.Equal(t, uint(2), stored.UserID)
	})
}

func TestForumService_TopicOwnership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	owned := func() *topicRepoStub {
		topics := noopTopicRepo()
		topics.getByIDFn = func(_ context.Context, id uint) (*models.TopicView, error) {
			return &models.TopicView{ID: id, UserID: 5, Title: "t"}, nil
		}
		return topics
	}

	title := "renamed"
	tests := []struct {
		name    string
		actor   uint
		allowed bool
	}{
		{"author", 5, true},
		{"admin", 1, true},
		{"stranger", 6, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pub := &recordingPublisher{}
			svc := newForumService(noopCategoryRepo(), owned(), noopPostRepo(), []uint{1}, pub)

			_, updateErr := svc.UpdateTopic(ctx, UpdateTopicInput{UserID: tt.actor, TopicID: 4, Title: &title})
			deleteErr := svc.DeleteTopic(ctx, tt.actor, 4)
			if tt.allowed {
				assert.NoError(t, updateErr)
				assert.NoError(t, deleteErr)
				assert.Equal(t, []publishedEvent{{4, EventTopicUpdated}, {4, EventTopicDeleted}}, pub.events)
			} else {
				assertCode(t, updateErr, models.CodeForbidden)
				assertCode(t, deleteErr, models.CodeForbidden)
				assert.Empty(t, pub.events)
			}
		})
	}
}

func TestForumService_DeleteMissingIsNoop(t *testing.T) {
	t.Parallel()
	topics := noopTopicRepo()
	topics.getByIDFn = func(context.Context, uint) (*models.TopicView, error) { return nil, nil }
	topics.deleteFn = func(context.Context, uint) error {
		t.Fatal("delete must not be called for a missing topic")
		return nil
	}
	posts := noopPostRepo()
	posts.getByIDFn = func(context.Context, uint) (*models.PostView, error) { return nil, nil }

	svc := newForumService(noopCategoryRepo(), topics, posts, nil, nil)
	assert.NoError(t, svc.DeleteTopic(context.Background(), 2, 99))
	assert.NoError(t, svc.DeletePost(context.Background(), 2, 99))
}

func TestForumService_UpdateMissing(t *testing.T) {
	t.Parallel()
	topics := noopTopicRepo()
	topics.getByIDFn = func(context.Context, uint) (*models.TopicView, error) { return nil, nil }
	posts := noopPostRepo()
	posts.getByIDFn = func(context.Context, uint) (*models.PostView, error) { return nil, nil }
	svc := newForumService(noopCategoryRepo(), topics, posts, []uint{1}, nil)

	content := "x"
	_, err := svc.UpdateTopic(context.Background(), UpdateTopicInput{UserID: 1, TopicID: 99, Content: &content})
	assertCode(t, err, models.CodeNotFound)
	_, err = svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 1, PostID: 99, Content: &content})
	assertCode(t, err, models.CodeNotFound)
}

func TestForumService_CreatePostPublishes(t *testing.T) {
	t.Parallel()
	posts := noopPostRepo()
	posts.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 21
		return nil
	}
	posts.getByIDFn = func(_ context.Context, id uint) (*models.PostView, error) {
		return &models.PostView{ID: id, TopicID: 4, Content: "hello"}, nil
	}
	pub := &recordingPublisher{}
	svc := newForumService(noopCategoryRepo(), noopTopicRepo(), posts, nil, pub)

	view, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: 2, TopicID: 4, Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, uint(21), view.ID)
	assert.Equal(t, []publishedEvent{{4, EventPostCreated}}, pub.events)

	_, err = svc.CreatePost(context.Background(), CreatePostInput{UserID: 2, TopicID: 4, Content: "  "})
	assertCode(t, err, models.CodeValidation)
}

func TestForumService_PostOwnership(t *testing.T) {
	t.Parallel()
	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, id uint) (*models.PostView, error) {
		return &models.PostView{ID: id, UserID: 5, TopicID: 4}, nil
	}
	deleted := false
	posts.deleteFn = func(context.Context, uint) error {
		deleted = true
		return nil
	}
	svc := newForumService(noopCategoryRepo(), noopTopicRepo(), posts, []uint{1}, nil)
	content := "edit"

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 6, PostID: 3, Content: &content})
	assertCode(t, err, models.CodeForbidden)
	assertCode(t, svc.DeletePost(context.Background(), 6, 3), models.CodeForbidden)
	assert.False(t, deleted)

	require.NoError(t, svc.DeletePost(context.Background(), 1, 3))
	assert.True(t, deleted)
}
