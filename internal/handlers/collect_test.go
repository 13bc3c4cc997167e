package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscyber/cyberkpi/internal/handlers"
)

func newCollectApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Post("/collect", handlers.NewCollectHandler().Collect)
	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

func TestCollect_Validation(t *testing.T) {
	app := newCollectApp()

	t.Run("missing type is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/collect", strings.NewReader(`{"sessionId":"x"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Contains(t, body["error"], "type and sessionId")
	})

	t.Run("missing sessionId is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/collect", strings.NewReader(`{"type":"qr_scan"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed JSON is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/collect", strings.NewReader(`{not json`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCollect_MethodNotAllowed(t *testing.T) {
	app := newCollectApp()

	req := httptest.NewRequest(http.MethodGet, "/collect", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	// The error handler must render 405 as JSON, not fiber's plain text
	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["error"])
}
