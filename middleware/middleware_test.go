package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(c *fiber.Ctx) error {
	return c.SendString(UserID(c))
}

func status(t *testing.T, app *fiber.App, method, path string, headers map[string]string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestServiceTokenMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/api/x", ServiceTokenMiddleware("s3cret"), okHandler)

	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "GET", "/api/x", nil))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "GET", "/api/x", map[string]string{"Authorization": "Bearer nope"}))
	assert.Equal(t, fiber.StatusOK, status(t, app, "GET", "/api/x", map[string]string{"Authorization": "Bearer s3cret"}))
	assert.Equal(t, fiber.StatusOK, status(t, app, "GET", "/api/x", map[string]string{"Authorization": "s3cret"}))
}

func TestServiceTokenMiddlewareWithoutToken(t *testing.T) {
	app := fiber.New()
	app.Get("/api/x", ServiceTokenMiddleware(""), okHandler)

	assert.Equal(t, fiber.StatusServiceUnavailable, status(t, app, "GET", "/api/x", map[string]string{"Authorization": "Bearer "}))
}

func TestWebhookSecretMiddleware(t *testing.T) {
	app := fiber.New()
	app.Post("/hook", WebhookSecretMiddleware("abc"), okHandler)
	app.Post("/open", WebhookSecretMiddleware(""), okHandler)

	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "POST", "/hook", nil))
	assert.Equal(t, fiber.StatusOK, status(t, app, "POST", "/hook", map[string]string{WebhookSecretHeader: "abc"}))
	assert.Equal(t, fiber.StatusOK, status(t, app, "POST", "/open", nil))
}

func TestUserContextMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(UserContextMiddleware())
	app.Post("/api/admin/grant", okHandler)
	app.Get("/api/users/1", okHandler)

	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "POST", "/api/admin/grant", nil))
	assert.Equal(t, fiber.StatusOK, status(t, app, "POST", "/api/admin/grant", map[string]string{"X-User-ID": "999"}))
	assert.Equal(t, fiber.StatusOK, status(t, app, "GET", "/api/users/1", nil))
}
