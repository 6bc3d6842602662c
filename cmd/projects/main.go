package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"go.uber.org/zap"

	"constellar/internal/assistant"
	"constellar/internal/common/config"
	"constellar/internal/common/health"
	"constellar/internal/common/httperr"
	"constellar/internal/common/logging"
	"constellar/internal/common/middleware"
	"constellar/internal/generator/excalidraw"
	"constellar/internal/generator/tools"
	"constellar/internal/projects/handlers"
	"constellar/internal/projects/repository"
)

// ============================================================
// Projects Service
// ============================================================

func main() {
	cfg := config.Load().WithDefaultPort("3002")
	logger := logging.Must(cfg.LogLevel, cfg.Environment)
	defer func() { _ = logger.Sync() }()

	db, err := repository.OpenSQLite(cfg.ProjectsDBPath)
	if err != nil {
		logger.Fatal("open db", zap.String("path", cfg.ProjectsDBPath), zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	repo := repository.New(db)
	if err := repo.Migrate(ctx); err != nil {
		logger.Fatal("migrate db", zap.Error(err))
	}

	theme, err := excalidraw.LoadTheme(cfg.ThemePath)
	if err != nil {
		logger.Fatal("load theme", zap.String("path", cfg.ThemePath), zap.Error(err))
	}
	factory := excalidraw.NewFactory(theme)

	client, err := newAssistant(ctx, cfg, tools.NewRegistry(factory), logger)
	if err != nil {
		logger.Fatal("init assistant", zap.Error(err))
	}

	projectsHandler := handlers.NewProjectsHandler(
		repo,
		client,
		factory,
		validator.New(validator.WithRequiredStructEnabled()),
		logger,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Projects Service",
		ErrorHandler: httperr.Handler,
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))

	// ============================================================
	// Health Check Routes
	// ============================================================

	health.Register(app, health.Check{Name: "db", Check: db.PingContext})

	// ============================================================
	// Projects Routes
	// ============================================================

	projectsHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting projects service",
		zap.String("addr", addr),
		zap.String("env", cfg.Environment),
		zap.String("db", cfg.ProjectsDBPath),
	)

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// newAssistant выбирает Gemini при заданном ключе, иначе заготовленный Mock.
func newAssistant(ctx context.Context, cfg *config.Config, registry *tools.Registry, logger *zap.Logger) (assistant.Client, error) {
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set, using mock assistant")
		return &assistant.Mock{Delay: time.Second}, nil
	}
	return assistant.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, registry, logger)
}
