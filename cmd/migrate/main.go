// Command migrate runs schema operations for the forum database.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"forum/internal/config"
	"forum/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Open(cfg.DatabaseURL, database.Options{})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	switch cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0))); cmd {
	case "up":
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Println("schema up to date")
	case "status":
		status, err := database.SchemaStatus(db)
		if err != nil {
			return err
		}
		for _, s := range status {
			state := "missing"
			if s.Exists {
				state = "present"
			}
			fmt.Printf("%-12s %s\n", s.Table, state)
		}
	default:
		return usage()
	}
	return nil
}
