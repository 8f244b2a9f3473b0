package server

import (
	"forum/internal/featureflags"
	"forum/internal/middleware"
	"forum/internal/models"
	"forum/internal/service"
	"forum/internal/session"

	"github.com/gofiber/fiber/v2"
)

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// LoginRequest is the body of POST /login. Username may also be an email.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// UpdateProfileRequest is the body of PUT /profile. Omitted fields are left unchanged.
type UpdateProfileRequest struct {
	Username        *string `json:"username" form:"username"`
	Email           *string `json:"email" form:"email"`
	Password        *string `json:"password" form:"password"`
	CurrentPassword string  `json:"current_password" form:"current_password"`
}

// Register handles user registration
// @Summary Register a new user
// @Description Create a new account. The user logs in separately.
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	if !s.flags.Enabled(featureflags.Registration, 0) {
		return s.respondError(c, models.NewForbiddenError("Registration is closed"))
	}

	var req RegisterRequest
	if err := s.parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "user registered", "user_id", user.ID)
	return c.Status(fiber.StatusCreated).JSON(
		message("Registration successful. You can now log in.", fiber.Map{"user": user}))
}

// Login handles user login
// @Summary Login user
// @Description Authenticate with username or email and receive a session token
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := s.parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}
	if req.Username == "" || req.Password == "" {
		return s.respondError(c, models.NewValidationError("Username and password are required"))
	}

	user, err := s.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if service.IsInvalidCredentials(err) {
			middleware.Logger.WarnContext(c.UserContext(), "login failed",
				"username", req.Username, "ip", c.IP())
		}
		return s.respondError(c, err)
	}

	return s.startSession(c, user, "Logged in successfully")
}

// startSession issues a token for user, sets the cookie and writes the response.
func (s *Server) startSession(c *fiber.Ctx, user *models.User, text string) error {
	token, claims, err := s.sessions.Issue(user)
	if err != nil {
		return s.respondError(c, err)
	}
	c.Cookie(session.Cookie(token, s.sessions.TTL(), s.config.IsProduction()))

	return c.JSON(message(text, fiber.Map{
		"token":      token,
		"expires_at": claims.ExpiresAt,
		"user":       user,
	}))
}

// Logout handles GET and POST /logout
// @Summary Logout user
// @Description Revoke the current session token and clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims, ok := session.FromContext(c.UserContext()); ok {
		if err := s.sessions.Revoke(c.UserContext(), claims); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "failed to revoke session token", "error", err)
		}
	}
	c.Cookie(session.ExpiredCookie())
	return c.JSON(message("Logged out", nil))
}

// GetMyProfile handles GET /profile
// @Summary Current user's profile
// @Tags users
// @Produce json
// @Success 200 {object} service.Profile
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profile [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)
	profile, err := s.userService.ProfileByID(c.UserContext(), userID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(profile)
}

// GetProfile handles GET /profile/:username
// @Summary Public profile
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} service.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.userService.Profile(c.UserContext(), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /profile. A fresh token replaces the current one
// because the username is part of the session.
// @Summary Update own account
// @Tags users
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profile [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	claims, _ := session.FromContext(c.UserContext())

	var req UpdateProfileRequest
	if err := s.parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	user, err := s.authService.UpdateAccount(c.UserContext(), service.UpdateAccountInput{
		UserID:          claims.UserID,
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	if err := s.sessions.Revoke(c.UserContext(), claims); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to revoke previous session token", "error", err)
	}
	return s.startSession(c, user, "Profile updated")
}
