package router

import (
	"net/http/httptest"
	"os"
	"testing"

	"smart_cycle_market/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	os.Exit(m.Run())
}

func TestDebugRequiresAuth(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app, "*", Handlers{
		IsAuth: func(c *fiber.Ctx) error {
			if c.Get(fiber.HeaderAuthorization) != "Bearer member" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized request!"})
			}
			return c.Next()
		},
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/debug?status=true", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.False(t, logger.Log.IsDebug())

	req := httptest.NewRequest(fiber.MethodPost, "/debug?status=true", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer member")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, logger.Log.IsDebug())

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
