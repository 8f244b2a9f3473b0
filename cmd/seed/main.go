// Command main fills the forum with demo users, topics and posts.
package main

import (
	"context"
	"flag"
	"log"

	"forum/internal/bootstrap"
	"forum/internal/config"
	"forum/internal/database"
	"forum/internal/models"
	"forum/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of demo users to create")
	topicsPerCategory := flag.Int("topics", 5, "Topics per category")
	postsPerTopic := flag.Int("posts", 8, "Maximum replies per topic")
	maxDays := flag.Int("days", 60, "Spread creation dates over the past N days")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing it")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible content")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, _, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{SeedDefaults: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	var categoryIDs []uint
	if err := db.Model(&models.Category{}).Order("id").Pluck("id", &categoryIDs).Error; err != nil {
		log.Fatalf("Failed to load categories: %v", err)
	}
	if len(categoryIDs) == 0 {
		log.Fatal("No categories to fill. Set ADMIN_USERNAME and ADMIN_PASSWORD so the defaults get created.")
	}

	factory, err := seed.NewFactory(db, seed.Options{
		Users:             *numUsers,
		TopicsPerCategory: *topicsPerCategory,
		PostsPerTopic:     *postsPerTopic,
		MaxDays:           *maxDays,
		DryRun:            *dryRun,
		Seed:              *randSeed,
	})
	if err != nil {
		log.Fatalf("Failed to create factory: %v", err)
	}

	sum, err := factory.Demo(categoryIDs)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d topics, %d posts (dry run: %v)", sum.Users, sum.Topics, sum.Posts, *dryRun)
	log.Printf("Demo users log in with password %q", seed.DemoPassword)
}
