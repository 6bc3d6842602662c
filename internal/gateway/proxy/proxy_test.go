package proxy

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
	"go.uber.org/zap"

	"constellar/internal/common/httperr"
)

type seen struct {
	Method string      `json:"method"`
	Path   string      `json:"path"`
	Query  string      `json:"query"`
	Body   string      `json:"body"`
	Header http.Header `json:"header"`
}

func echoUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream", "echo")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(seen{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   string(body),
			Header: r.Header,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProxy_StripTo(t *testing.T) {
	upstream := echoUpstream(t)

	app := fiber.New(fiber.Config{ErrorHandler: httperr.Handler})
	app.All("/api/v1/projects*", New(nil, zap.NewNop()).StripTo("/api/v1", upstream.URL+"/"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/p1/chat?messages=5", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer t")
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("X-Dropped", "nope")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "echo", resp.Header.Get("X-Upstream"))

	var got seen
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/projects/p1/chat", got.Path)
	assert.Equal(t, "messages=5", got.Query)
	assert.Equal(t, `{"message":"hi"}`, got.Body)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "Bearer t", got.Header.Get("Authorization"))
	assert.Equal(t, "u1", got.Header.Get("X-User-ID"))
	assert.Empty(t, got.Header.Get("X-Dropped"))
}

func TestProxy_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	app := fiber.New(fiber.Config{ErrorHandler: httperr.Handler})
	app.Get("/api/v1/tools", New(nil, nil).StripTo("/api/v1", url))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/problem+json")
}
