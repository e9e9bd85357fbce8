package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"charitydesk/internal/access"
	"charitydesk/internal/config"
	"charitydesk/internal/database"
	"charitydesk/internal/models"
	"charitydesk/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-with-at-least-32-characters"

type testServer struct {
	*Server
	app *fiber.App
	db  *gorm.DB
}

// newTestServer wires a full server to an in-memory SQLite database without Redis.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{Env: "test", JWTSecret: testSecret, JWTTTLHours: 1}
	s, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	app := NewApp()
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return &testServer{Server: s, app: app, db: db}
}

// account inserts a user with the given role and returns it with a bearer token.
func (ts *testServer) account(t *testing.T, email string, role access.Role) (*models.User, string) {
	t.Helper()
	hashed, err := service.HashPassword("Sunflower-Fund-2024", 4)
	require.NoError(t, err)
	now := time.Now()
	u := &models.User{Name: email, Email: email, Password: hashed, Role: role.String(), EmailVerifiedAt: &now}
	require.NoError(t, ts.db.Create(u).Error)

	token, err := ts.generateToken(u)
	require.NoError(t, err)
	return u, token
}

// do sends a JSON request and decodes the response body into out when non-nil.
func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}
