package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("RASTERIZER", "")
	t.Setenv("READ_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "native", cfg.Rasterizer)
	assert.Equal(t, 10, cfg.ReadTimeout)
	assert.Equal(t, "stdio", cfg.MCPTransport)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("READ_TIMEOUT", "30")
	t.Setenv("WRITE_TIMEOUT", "not-a-number")
	t.Setenv("GEMINI_API_KEY", "key")

	cfg := Load().WithDefaultPort("3001")

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30, cfg.ReadTimeout)
	assert.Equal(t, 10, cfg.WriteTimeout)
	assert.Equal(t, "key", cfg.GeminiAPIKey)
}

func TestWithDefaultPort(t *testing.T) {
	t.Setenv("PORT", "")

	cfg := Load().WithDefaultPort("3002")

	assert.Equal(t, "3002", cfg.Port)
}
