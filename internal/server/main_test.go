package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"forum/internal/config"
	"forum/internal/database"
	"forum/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	t   *testing.T
	srv *Server
	app *fiber.App
	db  *gorm.DB
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DatabaseURL:            filepath.Join(t.TempDir(), "forum.db"),
		Port:                   "8080",
		Env:                    "test",
		SessionSecret:          "secure-secret-at-least-32-chars-long",
		SessionTTLHours:        1,
		AllowedOrigins:         "http://localhost:3000",
		RateLimitAuthPerMinute: 100,
		FeatureFlags:           "topic_feed=on,registration=on",
	}
}

func newTestEnv(t *testing.T, rdb *redis.Client) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, testConfig(t), rdb)
}

func newTestEnvWithConfig(t *testing.T, cfg *config.Config, rdb *redis.Client) *testEnv {
	t.Helper()

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	return &testEnv{t: t, srv: srv, app: srv.NewApp(), db: db}
}

// do sends a JSON request and decodes the JSON response into a map.
func (e *testEnv) do(method, path string, body interface{}, token string) (*http.Response, map[string]interface{}) {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func (e *testEnv) register(username string) {
	e.t.Helper()
	resp, body := e.do(http.MethodPost, "/register", fiber.Map{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "Password123",
		"confirm_password": "Password123",
	}, "")
	require.Equal(e.t, http.StatusCreated, resp.StatusCode, body)
}

func (e *testEnv) login(username string) string {
	e.t.Helper()
	resp, body := e.do(http.MethodPost, "/login", fiber.Map{
		"username": username,
		"password": "Password123",
	}, "")
	require.Equal(e.t, http.StatusOK, resp.StatusCode, body)
	token, ok := body["token"].(string)
	require.True(e.t, ok)
	return token
}

// signUp registers and logs in a user, optionally granting admin rights.
func (e *testEnv) signUp(username string, admin bool) string {
	e.t.Helper()
	e.register(username)
	if admin {
		require.NoError(e.t, e.db.Model(&models.User{}).
			Where("username = ?", username).Update("admin", true).Error)
	}
	return e.login(username)
}

// id reads body[key]["id"] as a uint.
func id(t *testing.T, body map[string]interface{}, key string) uint {
	t.Helper()
	obj, ok := body[key].(map[string]interface{})
	require.True(t, ok, "missing %q in %v", key, body)
	v, ok := obj["id"].(float64)
	require.True(t, ok)
	return uint(v)
}
