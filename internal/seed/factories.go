// Package seed creates default and demo data for the forum database.
// The demo factory is intended for development only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"forum/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every generated demo account.
const DemoPassword = "password123"

// Options sizes a demo data run.
type Options struct {
	Users             int
	TopicsPerCategory int
	PostsPerTopic     int
	// MaxDays spreads created_at over the past N days.
	MaxDays int
	DryRun  bool
	// Seed makes generated content reproducible when non-zero.
	Seed int64
}

// Factory builds forum entities with fake content and persists them.
type Factory struct {
	db   *gorm.DB
	opts Options
	rnd  *rand.Rand
	hash string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	return &Factory{
		db:     db,
		opts:   opts,
		rnd:    rand.New(rand.NewSource(seed)),
		hash:   string(hash),
		nextID: 1000,
	}, nil
}

func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rnd.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rnd.Intn(24*60))*time.Minute
	return time.Now().Add(-back)
}

func (f *Factory) persist(v interface{}, id *uint, omit ...string) error {
	if f.opts.DryRun {
		f.nextID++
		*id = f.nextID
		return nil
	}
	tx := f.db
	if len(omit) > 0 {
		tx = tx.Omit(omit...)
	}
	return tx.Create(v).Error
}

// CreateUser persists a user with a unique fake username.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username:  fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 99999)),
		Email:     fmt.Sprintf("%s.%d@example.com", gofakeit.FirstName(), gofakeit.Number(100, 99999)),
		Password:  f.hash,
		CreatedAt: f.createdAt(),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.persist(user, &user.ID); err != nil {
		return nil, fmt.Errorf("create demo user: %w", err)
	}
	return user, nil
}

// CreateTopic persists a topic by author in category.
func (f *Factory) CreateTopic(author *models.User, categoryID uint) (*models.Topic, error) {
	topic := &models.Topic{
		UserID:     author.ID,
		CategoryID: categoryID,
		Title:      gofakeit.Sentence(6),
		Content:    gofakeit.Paragraph(1, 3, 12, "\n"),
		CreatedAt:  f.createdAt(),
	}
	if err := f.persist(topic, &topic.ID, "Author", "Posts"); err != nil {
		return nil, fmt.Errorf("create demo topic: %w", err)
	}
	return topic, nil
}

// CreatePost persists a reply in topic, never dated before the topic.
func (f *Factory) CreatePost(author *models.User, topic *models.Topic) (*models.Post, error) {
	created := f.createdAt()
	if created.Before(topic.CreatedAt) {
		created = topic.CreatedAt.Add(time.Duration(f.rnd.Intn(72)+1) * time.Hour)
	}
	post := &models.Post{
		UserID:    author.ID,
		TopicID:   topic.ID,
		Content:   gofakeit.Paragraph(1, 2, 10, "\n"),
		CreatedAt: created,
	}
	if err := f.persist(post, &post.ID, "Author"); err != nil {
		return nil, fmt.Errorf("create demo post: %w", err)
	}
	return post, nil
}

// Summary counts what a demo run created.
type Summary struct {
	Users  int
	Topics int
	Posts  int
}

// Demo fills every existing category with topics and replies from new users.
func (f *Factory) Demo(categoryIDs []uint) (Summary, error) {
	var sum Summary
	if f.opts.Users <= 0 {
		return sum, nil
	}

	users := make([]*models.User, 0, f.opts.Users)
	for i := 0; i < f.opts.Users; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return sum, err
		}
		users = append(users, u)
		sum.Users++
	}

	pick := func() *models.User { return users[f.rnd.Intn(len(users))] }
	for _, categoryID := range categoryIDs {
		for i := 0; i < f.opts.TopicsPerCategory; i++ {
			topic, err := f.CreateTopic(pick(), categoryID)
			if err != nil {
				return sum, err
			}
			sum.Topics++
			for j := 0; j < f.opts.PostsPerTopic; j++ {
				if _, err := f.CreatePost(pick(), topic); err != nil {
					return sum, err
				}
				sum.Posts++
			}
		}
	}

	if f.opts.DryRun {
		log.Printf("[dry-run] demo data: %d users, %d topics, %d posts (no DB write)", sum.Users, sum.Topics, sum.Posts)
	}
	return sum, nil
}
