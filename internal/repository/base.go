// Package repository implements the forum data-access layer: CRUD, aggregates,
// statistics and cascade rules over users, categories, topics and posts.
package repository

import (
	"context"
	"errors"
	"strings"

	"forum/internal/models"
	"forum/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	defaultTopicLimit  = 10
	defaultRecentLimit = 20
	maxListLimit       = 100
)

// errAbsent is returned from cache-aside fetches when the row does not exist,
// so the miss is not cached.
var errAbsent = errors.New("record absent")

// inTx runs fn inside one transaction, traced under table/op. Domain errors
// pass through; store errors are rolled back and mapped to AppErrors.
func inTx(ctx context.Context, db *gorm.DB, table, op string, fn func(tx *gorm.DB) error) error {
	ctx, span := observability.StartRepositorySpan(ctx, table, op)
	err := db.WithContext(ctx).Transaction(fn)
	observability.EndSpan(span, err)
	return mapError(err)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := models.AsAppError(err); ok {
		return err
	}
	if isUniqueConstraintError(err) {
		return models.NewConflictError("Record already exists")
	}
	if isForeignKeyError(err) {
		return models.NewValidationError("Referenced record does not exist")
	}
	return models.NewInternalError(err)
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

func isForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

// uniqueViolationColumn guesses which column a unique violation is about.
func uniqueViolationColumn(err error, columns ...string) string {
	var pgErr *pgconn.PgError
	text := strings.ToLower(err.Error())
	if errors.As(err, &pgErr) {
		text = strings.ToLower(pgErr.ConstraintName + " " + pgErr.Detail)
	}
	for _, c := range columns {
		if strings.Contains(text, c) {
			return c
		}
	}
	return ""
}

func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// exists reports whether a row with id is present in model's table.
func exists(tx *gorm.DB, model interface{}, id uint) (bool, error) {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
