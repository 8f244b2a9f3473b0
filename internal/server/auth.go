package server

import (
	"context"
	"errors"

	"forum/internal/middleware"
	"forum/internal/models"
	"forum/internal/session"

	"github.com/gofiber/fiber/v2"
)

// authenticate resolves the session token of the request, if any.
func (s *Server) authenticate(c *fiber.Ctx) (*session.Claims, error) {
	token := session.TokenFromRequest(c)
	if token == "" {
		return nil, models.NewUnauthorizedError("Authorization required")
	}

	claims, err := s.sessions.Parse(c.UserContext(), token)
	if err != nil {
		if errors.Is(err, session.ErrRevoked) {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	return claims, nil
}

func attachClaims(c *fiber.Ctx, claims *session.Claims) {
	c.Locals("userID", claims.UserID)
	ctx := session.WithClaims(c.UserContext(), claims)
	ctx = context.WithValue(ctx, middleware.UserIDKey, claims.UserID)
	c.SetUserContext(ctx)
}

// LoadSession attaches the caller's identity when a valid token is present.
// Anonymous and invalid requests pass through unchanged.
func (s *Server) LoadSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if session.TokenFromRequest(c) == "" {
			return c.Next()
		}
		if claims, err := s.authenticate(c); err == nil {
			attachClaims(c, claims)
		}
		return c.Next()
	}
}

// AuthRequired rejects requests without a valid session.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := session.FromContext(c.UserContext()); ok {
			return c.Next()
		}
		claims, err := s.authenticate(c)
		if err != nil {
			return s.respondError(c, err)
		}
		attachClaims(c, claims)
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// The admin flag is re-read from the store, not trusted from the token.
// Must be placed after AuthRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return s.respondError(c, models.NewUnauthorizedError("Authorization required"))
		}

		admin, err := s.isAdminByUserID(c.UserContext(), userID)
		if err != nil {
			return s.respondError(c, err)
		}
		if !admin {
			return s.respondError(c, models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func (s *Server) isAdminByUserID(ctx context.Context, userID uint) (bool, error) {
	return s.userService.IsAdmin(ctx, userID)
}

// currentUserID returns the authenticated user id, if any.
func currentUserID(c *fiber.Ctx) (uint, bool) {
	claims, ok := session.FromContext(c.UserContext())
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}
