package config

import (
	"os"
	"strconv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int
	LogLevel     string

	// generator
	ThemePath  string
	Rasterizer string
	ImageWidth int

	// projects
	ProjectsDBPath string
	GeminiAPIKey   string
	GeminiModel    string

	// gateway
	GeneratorURL string
	ProjectsURL  string

	// mcp
	MCPTransport string
	MCPAddr      string
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "3000"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		ThemePath:  getEnv("THEME_PATH", ""),
		Rasterizer: getEnv("RASTERIZER", "native"),
		ImageWidth: getEnvAsInt("IMAGE_WIDTH", 1200),

		ProjectsDBPath: getEnv("PROJECTS_DB_PATH", "data/db/projects.db"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		GeneratorURL: getEnv("GENERATOR_URL", "http://localhost:3001"),
		ProjectsURL:  getEnv("PROJECTS_URL", "http://localhost:3002"),

		MCPTransport: getEnv("MCP_TRANSPORT", "stdio"),
		MCPAddr:      getEnv("MCP_ADDR", ":3003"),
	}
}

// WithDefaultPort подставляет порт сервиса, если PORT не задан.
func (c *Config) WithDefaultPort(port string) *Config {
	if os.Getenv("PORT") == "" {
		c.Port = port
	}
	return c
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
