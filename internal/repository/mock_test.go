package repository

import (
	"context"
	"errors"
	"testing"

	"forum/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepository_DeleteRollsBackOnFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCategoryRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(q(`SELECT "id" FROM "topics" WHERE category_id = $1`)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7).AddRow(8))
	mock.ExpectExec(q(`DELETE FROM "posts" WHERE topic_id IN ($1,$2)`)).
		WithArgs(7, 8).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(q(`DELETE FROM "topics" WHERE id IN ($1,$2)`)).
		WithArgs(7, 8).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopicRepository_DeleteCommits(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTopicRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(q(`DELETE FROM "posts" WHERE topic_id = $1`)).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(q(`DELETE FROM "topics" WHERE "topics"."id" = $1`)).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreatePostgresUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "a@example.com", Password: "h"})
	appErr, ok := models.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, models.CodeConflict, appErr.Code)
	assert.Equal(t, MsgEmailRegistered, appErr.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByIDStoreError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db, nil)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnError(errors.New("connection reset"))

	u, err := repo.GetByID(context.Background(), 1)
	assert.Nil(t, u)
	assert.True(t, models.HasCode(err, models.CodeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.True(t, isUniqueConstraintError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: users.username")))
	assert.False(t, isUniqueConstraintError(nil))
	assert.True(t, isForeignKeyError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isForeignKeyError(errors.New("FOREIGN KEY constraint failed")))
}
