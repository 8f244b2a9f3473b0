package seed

import (
	"path/filepath"
	"testing"

	"forum/internal/database"
	"forum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "seed.db"), database.Options{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func createAuthor(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	u := &models.User{Username: "root", Email: "root@forum.local", Password: "x", IsAdmin: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestDefaultCategories(t *testing.T) {
	t.Parallel()
	cats, err := DefaultCategories()
	require.NoError(t, err)
	assert.Len(t, cats, 4)
	assert.Equal(t, "General Discussion", cats[0].Name)
}

func TestParseCategories_RejectsUnnamed(t *testing.T) {
	t.Parallel()
	_, err := parseCategories([]byte("categories:\n  - description: nameless\n"))
	assert.Error(t, err)

	_, err = parseCategories([]byte("categories: [unterminated"))
	assert.Error(t, err)
}

func TestCategories_OnlySeedsEmptyForum(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	author := createAuthor(t, db)

	n, err := Categories(db, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = Categories(db, author.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	var count int64
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(4), count)
}

func TestCategories_UnknownAuthorFails(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	_, err := Categories(db, 999)
	assert.Error(t, err)
}

func TestFactory_Demo(t *testing.T) {
	db := newTestDB(t)
	author := createAuthor(t, db)
	_, err := Categories(db, author.ID)
	require.NoError(t, err)

	var ids []uint
	require.NoError(t, db.Model(&models.Category{}).Pluck("id", &ids).Error)

	f, err := NewFactory(db, Options{Users: 3, TopicsPerCategory: 2, PostsPerTopic: 2, Seed: 42})
	require.NoError(t, err)
	sum, err := f.Demo(ids)
	require.NoError(t, err)
	assert.Equal(t, Summary{Users: 3, Topics: 8, Posts: 16}, sum)

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	assert.Len(t, posts, 16)

	var topics int64
	require.NoError(t, db.Model(&models.Topic{}).Count(&topics).Error)
	assert.Equal(t, int64(8), topics)
}

func TestFactory_DryRunWritesNothing(t *testing.T) {
	db := newTestDB(t)

	f, err := NewFactory(db, Options{Users: 2, TopicsPerCategory: 1, PostsPerTopic: 1, DryRun: true, Seed: 7})
	require.NoError(t, err)
	sum, err := f.Demo([]uint{1})
	require.NoError(t, err)
	assert.Equal(t, Summary{Users: 2, Topics: 1, Posts: 1}, sum)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}
