package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetrics_ExposesDomainCounters(t *testing.T) {
	prom := InitMetrics("charitydesk-test")
	assert.Same(t, prom, InitMetrics("charitydesk-test"))

	app := fiber.New()
	app.Use(MetricsMiddleware(prom))
	prom.RegisterAt(app, "/metrics")
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	LikeToggles.WithLabelValues("liked").Inc()

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "charitydesk_like_toggles_total")
	assert.Contains(t, string(body), "http_requests_total")
}
