package handlers

import (
	"io"
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

func TestDebugLogFlag(t *testing.T) {
	app := fiber.New()
	app.Get("/", ConnectCheck)
	app.Post("/debug", DebugLogFlag)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/debug?status=true", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "debug mode is : true", string(body))
	assert.True(t, logger.Log.IsDebug())

	resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/debug?status=maybe", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
