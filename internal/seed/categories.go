package seed

import (
	_ "embed"
	"fmt"

	"forum/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed categories.yaml
var defaultCategoriesYAML []byte

// CategorySeed is one entry of the default category list.
type CategorySeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// DefaultCategories returns the embedded default category list.
func DefaultCategories() ([]CategorySeed, error) {
	return parseCategories(defaultCategoriesYAML)
}

func parseCategories(data []byte) ([]CategorySeed, error) {
	var doc struct {
		Categories []CategorySeed `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse default categories: %w", err)
	}
	for i, c := range doc.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("default category %d has no name", i)
		}
	}
	return doc.Categories, nil
}

// Categories creates the default categories, authored by authorID, when the
// forum has none yet. It returns how many were created.
func Categories(db *gorm.DB, authorID uint) (int, error) {
	defaults, err := DefaultCategories()
	if err != nil {
		return 0, err
	}

	created := 0
	err = db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Category{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, item := range defaults {
			category := models.Category{UserID: authorID, Name: item.Name, Description: item.Description}
			if err := tx.Omit("Author", "Topics").Create(&category).Error; err != nil {
				return fmt.Errorf("seed category %q: %w", item.Name, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
