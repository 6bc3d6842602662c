package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"

	"constellar/internal/common/config"
	"constellar/internal/common/health"
	"constellar/internal/common/httperr"
	"constellar/internal/common/logging"
	"constellar/internal/common/middleware"
	"constellar/internal/gateway"
	"constellar/internal/gateway/handlers"
	"constellar/internal/gateway/proxy"
)

// ============================================================
// API Gateway
// ============================================================

func main() {
	cfg := config.Load()
	logger := logging.Must(cfg.LogLevel, cfg.Environment)
	defer func() { _ = logger.Sync() }()

	spec, err := handlers.OpenAPI()
	if err != nil {
		logger.Fatal("load openapi spec", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "API Gateway",
		ErrorHandler: httperr.Handler,
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.CORS())
	app.Use(middleware.Logger(logger))

	// ============================================================
	// Health Check Routes
	// ============================================================

	health.Register(app)

	// ============================================================
	// Docs
	// ============================================================

	app.Get("/docs", handlers.SwaggerUI)
	app.Get("/docs/openapi.yaml", handlers.SwaggerSpec)
	app.Get("/docs/openapi.json", handlers.SwaggerJSON(spec))

	// ============================================================
	// Service Routes (Proxy)
	// ============================================================

	// ответ ассистента может идти десятки секунд
	client := &http.Client{Timeout: 2 * time.Minute}
	gateway.Register(app, proxy.New(client, logger), gateway.Upstreams{
		Generator: cfg.GeneratorURL,
		Projects:  cfg.ProjectsURL,
	})

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting api gateway",
		zap.String("addr", addr),
		zap.String("env", cfg.Environment),
		zap.String("generator", cfg.GeneratorURL),
		zap.String("projects", cfg.ProjectsURL),
	)

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
