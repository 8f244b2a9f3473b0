package database

import (
	"fmt"

	"forum/internal/models"

	"gorm.io/gorm"
)

// PersistentModels lists every table of the forum schema.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Topic{},
		&models.Post{},
	}
}

// Migrate creates or updates the schema. It is safe to run on every start.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// TableStatus reports whether the table of one persisted model exists.
type TableStatus struct {
	Table  string
	Exists bool
}

// SchemaStatus lists the forum tables and whether each one exists.
func SchemaStatus(db *gorm.DB) ([]TableStatus, error) {
	var out []TableStatus
	for _, m := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, fmt.Errorf("failed to parse model: %w", err)
		}
		out = append(out, TableStatus{
			Table:  stmt.Schema.Table,
			Exists: db.Migrator().HasTable(m),
		})
	}
	return out, nil
}
