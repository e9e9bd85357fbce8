package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"charitydesk/internal/access"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCheckRateLimit_EnvironmentBypass(t *testing.T) {
	for _, env := range []string{"", "test", "development"} {
		t.Run("env="+env, func(t *testing.T) {
			t.Setenv("APP_ENV", env)
			v, err := CheckRateLimit(context.Background(), nil, "login", "ip:1", 1, time.Minute)
			assert.NoError(t, err)
			assert.True(t, v.Allowed)
		})
	}
}

func TestCheckRateLimit_NilRedis(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	v, err := CheckRateLimit(context.Background(), nil, "login", "ip:1", 1, time.Minute)
	assert.Error(t, err)
	assert.False(t, v.Allowed)
}

func TestCheckRateLimit_CountsWithinWindow(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		v, err := CheckRateLimit(ctx, rdb, "contact", "ip:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, v.Allowed)
		assert.Equal(t, int64(i), v.Count)
	}
	v, err := CheckRateLimit(ctx, rdb, "contact", "ip:1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Greater(t, v.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, v.RetryAfter, time.Minute)

	assert.True(t, mr.TTL("rl:contact:ip:1") > 0)

	mr.FastForward(2 * time.Minute)
	v, err = CheckRateLimit(ctx, rdb, "contact", "ip:1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, v.Allowed)
}

func TestBudget_LimitFor(t *testing.T) {
	b := Budget{Name: "contact", Anonymous: 5, Member: 10, Window: time.Minute}

	key, limit := b.limitFor(access.Anonymous, "10.0.0.1")
	assert.Equal(t, "ip:10.0.0.1", key)
	assert.Equal(t, 5, limit)

	key, limit = b.limitFor(access.Principal{ID: 7, Role: access.RoleGuest}, "10.0.0.1")
	assert.Equal(t, "user:7", key)
	assert.Equal(t, 10, limit)

	_, limit = Budget{Anonymous: 3}.limitFor(access.Principal{ID: 7, Role: access.RoleGuest}, "ip")
	assert.Equal(t, 3, limit, "member allowance falls back to the anonymous one")
}

// withPrincipal sets the principal from the X-User header, like ResolvePrincipal would.
func withPrincipal(c *fiber.Ctx) error {
	if c.Get("X-User") == "7" {
		c.Locals(PrincipalLocal, access.Principal{ID: 7, Role: access.RoleGuest, EmailVerified: true})
	}
	return c.Next()
}

func TestRateLimitMiddleware_KeysByPrincipal(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr, rdb := newTestRedis(t)

	app := fiber.New()
	app.Post("/contact", withPrincipal,
		RateLimit(rdb, Budget{Name: "contact", Anonymous: 1, Member: 2, Window: time.Minute}),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })

	send := func(user string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/contact", nil)
		if user != "" {
			req.Header.Set("X-User", user)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, http.StatusCreated, send("").StatusCode)
	rejected := send("")
	assert.Equal(t, http.StatusTooManyRequests, rejected.StatusCode)
	assert.NotEmpty(t, rejected.Header.Get(fiber.HeaderRetryAfter))

	// The signed-in account has its own, larger allowance.
	assert.Equal(t, http.StatusCreated, send("7").StatusCode)
	assert.Equal(t, http.StatusCreated, send("7").StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, send("7").StatusCode)

	assert.True(t, mr.Exists("rl:contact:user:7"))
}

func TestRateLimitWithPolicy_FailClosed(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	budget := Budget{Name: "login", Anonymous: 1, Window: time.Minute}
	app := fiber.New()
	app.Post("/login", RateLimitWithPolicy(nil, budget, FailClosed), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/open", RateLimit(nil, budget), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/open", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
