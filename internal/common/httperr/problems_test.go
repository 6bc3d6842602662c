package httperr

import (
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

func TestProblems(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: Handler})
	app.Get("/bad", func(c fiber.Ctx) error { return BadRequest(c, "x is required") })
	app.Get("/unauthorized", func(c fiber.Ctx) error { return Unauthorized(c, "missing user") })
	app.Get("/missing", func(c fiber.Ctx) error { return NotFound(c, "project not found") })
	app.Get("/boom", func(c fiber.Ctx) error { return Internal(c, errors.New("disk full")) })
	app.Get("/upstream", func(c fiber.Ctx) error { return BadGateway(c, "generator unavailable") })
	app.Get("/fiber", func(c fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })

	tests := []struct {
		path   string
		status int
		kind   string
		detail string
	}{
		{path: "/bad", status: http.StatusBadRequest, kind: "validation_error", detail: "x is required"},
		{path: "/unauthorized", status: http.StatusUnauthorized, kind: "unauthorized", detail: "missing user"},
		{path: "/missing", status: http.StatusNotFound, kind: "not_found", detail: "project not found"},
		{path: "/boom", status: http.StatusInternalServerError, kind: "internal_error", detail: "disk full"},
		{path: "/upstream", status: http.StatusBadGateway, kind: "upstream_error", detail: "generator unavailable"},
		{path: "/fiber", status: http.StatusTeapot, detail: "short and stout"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Type"), "application/problem+json")

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			var problem map[string]any
			require.NoError(t, json.Unmarshal(body, &problem))
			assert.Equal(t, tt.detail, problem["detail"])
			assert.Equal(t, tt.path, problem["instance"])
			if tt.kind != "" {
				assert.Equal(t, tt.kind, problem["type"])
			}
		})
	}
}
