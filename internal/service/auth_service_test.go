package service

import (
	"context"
	"errors"
	"testing"

	"forum/internal/models"
	"forum/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Username:        "alice",
		Email:           "Alice@Example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	t.Parallel()
	svc := NewAuthService(noopUserRepo(), bcrypt.MinCost)

	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
	}{
		{"short username", func(in *RegisterInput) { in.Username = "al" }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"weak password", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "short", "short" }},
		{"confirmation mismatch", func(in *RegisterInput) { in.ConfirmPassword = "secret124" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := validRegistration()
			tt.mutate(&in)
			user, err := svc.Register(context.Background(), in)
			assert.Nil(t, user)
			assertCode(t, err, models.CodeValidation)
		})
	}
}

func TestAuthService_Register_Duplicates(t *testing.T) {
	t.Parallel()

	t.Run("username taken", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.getByUsernameFn = func(context.Context, string) (*models.User, error) {
			return &models.User{ID: 1, Username: "alice"}, nil
		}
		user, err := NewAuthService(repo, bcrypt.MinCost).Register(context.Background(), validRegistration())
		assert.Nil(t, user)
		assertCode(t, err, models.CodeConflict)
		assert.Contains(t, err.Error(), repository.MsgUsernameTaken)
	})

	t.Run("email registered", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		var gotEmail string
		repo.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
			gotEmail = email
			return &models.User{ID: 1}, nil
		}
		user, err := NewAuthService(repo, bcrypt.MinCost).Register(context.Background(), validRegistration())
		assert.Nil(t, user)
		assertCode(t, err, models.CodeConflict)
		assert.Contains(t, err.Error(), repository.MsgEmailRegistered)
		assert.Equal(t, "alice@example.com", gotEmail, "emails are normalized to lower case")
	})
}

func TestAuthService_Register_HashesPassword(t *testing.T) {
	t.Parallel()
	repo := noopUserRepo()
	var stored *models.User
	repo.createFn = func(_ context.Context, u *models.User) error {
		u.ID = 7
		stored = u
		return nil
	}

	user, err := NewAuthService(repo, bcrypt.MinCost).Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret123", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret123")))
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct1"), bcrypt.MinCost)
	require.NoError(t, err)
	alice := &models.User{ID: 1, Username: "alice", Email: "alice@example.com", Password: string(hash)}

	repo := noopUserRepo()
	repo.getByUsernameFn = func(_ context.Context, name string) (*models.User, error) {
		if name == "alice" {
			return alice, nil
		}
		return nil, nil
	}
	repo.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		if email == "alice@example.com" {
			return alice, nil
		}
		return nil, nil
	}
	svc := NewAuthService(repo, bcrypt.MinCost)
	ctx := context.Background()

	user, err := svc.Login(ctx, "alice", "correct1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)

	user, err = svc.Login(ctx, "ALICE@example.com", "correct1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)

	_, wrongPassword := svc.Login(ctx, "alice", "wrong")
	_, unknownUser := svc.Login(ctx, "mallory", "correct1")
	assert.True(t, IsInvalidCredentials(wrongPassword))
	assert.True(t, IsInvalidCredentials(unknownUser))
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestAuthService_Login_StoreError(t *testing.T) {
	t.Parallel()
	boom := errors.New("db down")
	repo := noopUserRepo()
	repo.getByUsernameFn = func(context.Context, string) (*models.User, error) { return nil, boom }

	_, err := NewAuthService(repo, bcrypt.MinCost).Login(context.Background(), "alice", "x")
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsInvalidCredentials(err))
}

func TestAuthService_UpdateAccount(t *testing.T) {
	t.Parallel()
	hash, err := bcrypt.GenerateFromPassword([]byte("current1"), bcrypt.MinCost)
	require.NoError(t, err)

	newRepo := func(captured *models.UserUpdate) *userRepoStub {
		repo := noopUserRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "alice", Password: string(hash)}, nil
		}
		repo.updateFn = func(_ context.Context, _ uint, u models.UserUpdate) (bool, error) {
			*captured = u
			return true, nil
		}
		return repo
	}

	t.Run("password change requires current password", func(t *testing.T) {
		t.Parallel()
		var captured models.UserUpdate
		svc := NewAuthService(newRepo(&captured), bcrypt.MinCost)
		pw := "brandnew1"
		_, err := svc.UpdateAccount(context.Background(), UpdateAccountInput{UserID: 1, Password: &pw, CurrentPassword: "nope"})
		assertCode(t, err, models.CodeUnauthorized)
		assert.True(t, captured.IsEmpty())
	})

	t.Run("password is re-hashed", func(t *testing.T) {
		t.Parallel()
		var captured models.UserUpdate
		svc := NewAuthService(newRepo(&captured), bcrypt.MinCost)
		pw := "brandnew1"
		_, err := svc.UpdateAccount(context.Background(), UpdateAccountInput{UserID: 1, Password: &pw, CurrentPassword: "current1"})
		require.NoError(t, err)
		require.NotNil(t, captured.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*captured.PasswordHash), []byte(pw)))
		assert.Nil(t, captured.Username)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		svc := NewAuthService(noopUserRepo(), bcrypt.MinCost)
		name := "bob"
		_, err := svc.UpdateAccount(context.Background(), UpdateAccountInput{UserID: 9, Username: &name})
		assertCode(t, err, models.CodeNotFound)
	})
}
