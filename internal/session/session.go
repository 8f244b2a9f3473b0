// Package session issues and verifies signed session tokens.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"forum/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	CookieName = "forum_session"
	Issuer     = "forum-api"
	Audience   = "forum-client"

	blacklistPrefix = "blacklist:"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrRevoked      = errors.New("token has been revoked")
)

// Claims is the identity carried by a session token.
type Claims struct {
	UserID    uint
	Username  string
	Admin     bool
	TokenID   string
	ExpiresAt time.Time
}

type tokenClaims struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Manager signs tokens with an HMAC secret. Revocation needs Redis; without
// it tokens stay valid until they expire.
type Manager struct {
	secret []byte
	ttl    time.Duration
	rdb    *redis.Client
}

func NewManager(secret string, ttl time.Duration, rdb *redis.Client) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, rdb: rdb}
}

// TTL returns the lifetime of issued tokens.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a new token for the user.
func (m *Manager) Issue(user *models.User) (string, *Claims, error) {
	if len(m.secret) == 0 {
		return "", nil, fmt.Errorf("session secret not configured")
	}

	now := time.Now()
	claims := tokenClaims{
		Username: user.Username,
		Admin:    user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return signed, toClaims(&claims), nil
}

// Parse verifies the token signature, issuer, audience, expiry and revocation.
func (m *Manager) Parse(ctx context.Context, raw string) (*Claims, error) {
	var tc tokenClaims
	token, err := jwt.ParseWithClaims(raw, &tc, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims := toClaims(&tc)
	if claims == nil {
		return nil, ErrInvalidToken
	}

	if m.rdb != nil && claims.TokenID != "" {
		n, err := m.rdb.Exists(ctx, blacklistPrefix+claims.TokenID).Result()
		if err == nil && n > 0 {
			return nil, ErrRevoked
		}
	}
	return claims, nil
}

// Revoke blacklists the token until its natural expiry.
func (m *Manager) Revoke(ctx context.Context, claims *Claims) error {
	if m.rdb == nil || claims == nil || claims.TokenID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := m.rdb.Set(ctx, blacklistPrefix+claims.TokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func toClaims(tc *tokenClaims) *Claims {
	id, err := strconv.ParseUint(tc.Subject, 10, 32)
	if err != nil || id == 0 {
		return nil
	}
	c := &Claims{
		UserID:   uint(id),
		Username: tc.Username,
		Admin:    tc.Admin,
		TokenID:  tc.ID,
	}
	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.Time
	}
	return c
}

// TokenFromRequest reads the bearer token, falling back to the session cookie.
func TokenFromRequest(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(CookieName)
}

// Cookie builds the session cookie for a freshly issued token.
func Cookie(token string, ttl time.Duration, secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// ExpiredCookie clears the session cookie.
func ExpiredCookie() *fiber.Cookie {
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

type ctxKey struct{}

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, claims)
}

// FromContext returns the claims stored by WithClaims.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*Claims)
	return claims, ok && claims != nil
}
