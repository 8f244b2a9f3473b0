package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"testing"

	"forum/internal/database"
	"forum/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newTestDB opens a migrated SQLite database in a temp dir with foreign keys on.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "forum.db"), database.Options{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func q(sql string) string {
	return regexp.QuoteMeta(sql)
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	users UserRepository
	cats  CategoryRepository
	tops  TopicRepository
	posts PostRepository
}

func newFixture(t *testing.T, db *gorm.DB) *fixture {
	return &fixture{
		t:     t,
		ctx:   context.Background(),
		users: NewUserRepository(db, nil),
		cats:  NewCategoryRepository(db, nil),
		tops:  NewTopicRepository(db, nil),
		posts: NewPostRepository(db, nil),
	}
}

func (f *fixture) user(name string) *models.User {
	f.t.Helper()
	u := &models.User{Username: name, Email: fmt.Sprintf("%s@example.com", name), Password: "hash"}
	require.NoError(f.t, f.users.Create(f.ctx, u))
	return u
}

func (f *fixture) category(author uint, name string) *models.Category {
	f.t.Helper()
	c := &models.Category{UserID: author, Name: name, Description: name + " talk"}
	require.NoError(f.t, f.cats.Create(f.ctx, c))
	return c
}

func (f *fixture) topic(author, category uint, title string) *models.Topic {
	f.t.Helper()
	tp := &models.Topic{UserID: author, CategoryID: category, Title: title, Content: title + " body"}
	require.NoError(f.t, f.tops.Create(f.ctx, tp))
	return tp
}

func (f *fixture) post(author, topic uint, content string) *models.Post {
	f.t.Helper()
	p := &models.Post{UserID: author, TopicID: topic, Content: content}
	require.NoError(f.t, f.posts.Create(f.ctx, p))
	return p
}

func strPtr(s string) *string { return &s }
func uintPtr(u uint) *uint    { return &u }
