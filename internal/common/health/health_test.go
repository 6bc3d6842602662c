package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, app *fiber.App, path string) (int, map[string]any) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return resp.StatusCode, out
}

func TestProbes(t *testing.T) {
	app := fiber.New()
	Register(app, Check{Name: "db", Check: func(context.Context) error { return nil }})

	tests := []struct {
		path   string
		status string
	}{
		{path: "/health/live", status: "alive"},
		{path: "/health/ready", status: "ready"},
		{path: "/health/startup", status: "started"},
	}
	for _, tt := range tests {
		code, body := get(t, app, tt.path)
		assert.Equal(t, http.StatusOK, code, tt.path)
		assert.Equal(t, tt.status, body["status"], tt.path)
	}
}

func TestReadinessProbe_Failing(t *testing.T) {
	app := fiber.New()
	Register(app,
		Check{Name: "db", Check: func(context.Context) error { return errors.New("database is locked") }},
		Check{Name: "cache", Check: func(context.Context) error { return nil }},
	)

	code, body := get(t, app, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body["status"])
	assert.Equal(t, map[string]any{"db": "database is locked"}, body["checks"])
}
