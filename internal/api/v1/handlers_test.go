package apiv1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPing(t *testing.T) {
	app := fiber.New()
	RegisterHandlers(app.Group("/api/v1"), NewAPIServer(nil))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pong Pong
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pong))
	assert.Equal(t, "pong", pong.Ping)
	assert.Equal(t, Version, pong.Version)
	assert.GreaterOrEqual(t, pong.Uptime, int64(0))
}

func TestAccountNeedsSession(t *testing.T) {
	app := fiber.New()
	RegisterHandlers(app.Group("/api/v1"), NewAPIServer(nil))

	for _, method := range []string{http.MethodGet, http.MethodPut} {
		resp, err := app.Test(httptest.NewRequest(method, "/api/v1/account", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, method)
	}
}
