package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"forum/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestManager_IssueAndParse(t *testing.T) {
	m := NewManager(testSecret, time.Hour, nil)
	token, issued, err := m.Issue(&models.User{ID: 7, Username: "alice", IsAdmin: true})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.TokenID)

	claims, err := m.Parse(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.Admin)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestManager_ParseRejects(t *testing.T) {
	m := NewManager(testSecret, time.Hour, nil)
	sign := func(secret string, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	valid := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   strconv.Itoa(1),
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	wrongIssuer := valid()
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := valid()
	wrongAudience.Audience = jwt.ClaimStrings{"other-client"}
	noSubject := valid()
	noSubject.Subject = ""
	noExpiry := valid()
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{"malformed", "malformed.token.here"},
		{"wrong secret", sign("another-secret-0123456789012345678901", valid())},
		{"expired", sign(testSecret, expired)},
		{"wrong issuer", sign(testSecret, wrongIssuer)},
		{"wrong audience", sign(testSecret, wrongAudience)},
		{"missing subject", sign(testSecret, noSubject)},
		{"missing expiry", sign(testSecret, noExpiry)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Parse(context.Background(), tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestManager_Revoke(t *testing.T) {
	mr, rdb := newRedis(t)
	m := NewManager(testSecret, time.Hour, rdb)
	ctx := context.Background()

	token, claims, err := m.Issue(&models.User{ID: 3, Username: "bob"})
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, claims))
	assert.True(t, mr.Exists(blacklistPrefix+claims.TokenID))
	assert.Greater(t, mr.TTL(blacklistPrefix+claims.TokenID), time.Duration(0))

	_, err = m.Parse(ctx, token)
	assert.ErrorIs(t, err, ErrRevoked)

	other, _, err := m.Issue(&models.User{ID: 3, Username: "bob"})
	require.NoError(t, err)
	_, err = m.Parse(ctx, other)
	assert.NoError(t, err)
}

func TestManager_RevokeWithoutRedis(t *testing.T) {
	m := NewManager(testSecret, time.Hour, nil)
	_, claims, err := m.Issue(&models.User{ID: 3, Username: "bob"})
	require.NoError(t, err)
	assert.NoError(t, m.Revoke(context.Background(), claims))
}

func TestManager_IssueWithoutSecret(t *testing.T) {
	_, _, err := NewManager("", time.Hour, nil).Issue(&models.User{ID: 1})
	assert.Error(t, err)
}

func TestTokenFromRequest(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(TokenFromRequest(c))
	})

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer header", "Bearer abc", "", "abc"},
		{"cookie", "", "from-cookie", "from-cookie"},
		{"header wins", "Bearer abc", "from-cookie", "abc"},
		{"basic ignored", "Basic dXNlcjpwYXNz", "from-cookie", "from-cookie"},
		{"nothing", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			buf := make([]byte, 64)
			n, _ := resp.Body.Read(buf)
			assert.Equal(t, tt.want, string(buf[:n]))
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithClaims(context.Background(), &Claims{UserID: 4})
	claims, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, uint(4), claims.UserID)
}
