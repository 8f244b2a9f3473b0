// Package service holds the forum's domain rules on top of the repositories.
package service

import (
	"context"
	"strings"

	"forum/internal/models"
	"forum/internal/observability"
	"forum/internal/repository"
	"forum/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// MsgInvalidCredentials is returned for every failed login, whatever the cause.
const MsgInvalidCredentials = "Invalid username or password"

type AuthService struct {
	users     repository.UserRepository
	hashCost  int
	dummyHash []byte
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

type UpdateAccountInput struct {
	UserID          uint
	Username        *string
	Email           *string
	Password        *string
	CurrentPassword string
}

// NewAuthService returns an AuthService hashing with cost; a cost of 0 means bcrypt.DefaultCost.
func NewAuthService(users repository.UserRepository, cost int) *AuthService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("forum-dummy-password"), cost)
	return &AuthService{users: users, hashCost: cost, dummyHash: dummy}
}

// HashPassword returns a salted bcrypt hash of password.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}

// Register validates the input, rejects taken usernames and emails with
// distinct CONFLICT errors, and stores the user with a hashed password.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := validation.ValidateUsername(username); err != nil {
		return nil, s.registerFailed(models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, s.registerFailed(models.NewValidationError(err.Error()))
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, s.registerFailed(models.NewValidationError(err.Error()))
	}
	if in.Password != in.ConfirmPassword {
		return nil, s.registerFailed(models.NewValidationError("Passwords do not match"))
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, s.registerFailed(models.NewConflictError(repository.MsgUsernameTaken))
	}
	existing, err = s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, s.registerFailed(models.NewConflictError(repository.MsgEmailRegistered))
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: username, Email: email, Password: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, s.registerFailed(err)
	}

	observability.AuthAttempts.WithLabelValues("register", "success").Inc()
	return user, nil
}

func (s *AuthService) registerFailed(err error) error {
	result := "error"
	if appErr, ok := models.AsAppError(err); ok {
		result = strings.ToLower(appErr.Code)
	}
	observability.AuthAttempts.WithLabelValues("register", result).Inc()
	return err
}

// Login resolves identifier as an email when it contains "@" and as a username
// otherwise. Unknown users and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)

	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.users.GetByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}

	if user == nil {
		// Spend the same time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		observability.AuthAttempts.WithLabelValues("login", "failure").Inc()
		return nil, models.NewUnauthorizedError(MsgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		observability.AuthAttempts.WithLabelValues("login", "failure").Inc()
		return nil, models.NewUnauthorizedError(MsgInvalidCredentials)
	}

	observability.AuthAttempts.WithLabelValues("login", "success").Inc()
	return user, nil
}

// UpdateAccount applies a partial update to the user's own account. Changing
// the password requires the current one.
func (s *AuthService) UpdateAccount(ctx context.Context, in UpdateAccountInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", in.UserID)
	}

	var update models.UserUpdate
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		update.Username = &username
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		update.Email = &email
	}
	if in.Password != nil {
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)); err != nil {
			return nil, models.NewUnauthorizedError("Current password is incorrect")
		}
		if err := validation.ValidatePassword(*in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hash, err := s.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		update.PasswordHash = &hash
	}

	if update.IsEmpty() {
		return user, nil
	}

	ok, err := s.users.Update(ctx, in.UserID, update)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("User", in.UserID)
	}
	return s.users.GetByID(ctx, in.UserID)
}

// IsInvalidCredentials reports whether err is the generic login failure.
func IsInvalidCredentials(err error) bool {
	if !models.HasCode(err, models.CodeUnauthorized) {
		return false
	}
	appErr, _ := models.AsAppError(err)
	return appErr.Message == MsgInvalidCredentials
}
