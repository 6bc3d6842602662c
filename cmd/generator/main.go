package main

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"

	"constellar/internal/common/config"
	"constellar/internal/common/health"
	"constellar/internal/common/httperr"
	"constellar/internal/common/logging"
	"constellar/internal/common/middleware"
	"constellar/internal/generator/excalidraw"
	"constellar/internal/generator/handlers"
	"constellar/internal/generator/render"
	"constellar/internal/generator/tools"
)

// ============================================================
// Generator Service
// ============================================================

func main() {
	cfg := config.Load().WithDefaultPort("3001")
	logger := logging.Must(cfg.LogLevel, cfg.Environment)
	defer func() { _ = logger.Sync() }()

	theme, err := excalidraw.LoadTheme(cfg.ThemePath)
	if err != nil {
		logger.Fatal("load theme", zap.String("path", cfg.ThemePath), zap.Error(err))
	}

	factory := excalidraw.NewFactory(theme)
	renderer := render.NewRenderer()
	raster, err := newRasterizer(cfg, renderer, logger)
	if err != nil {
		logger.Fatal("init rasterizer", zap.Error(err))
	}

	generatorHandler := handlers.NewGeneratorHandler(
		factory,
		tools.NewRegistry(factory),
		renderer,
		raster,
		validator.New(validator.WithRequiredStructEnabled()),
		logger,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Generator Service",
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

	health.Register(app)

	// ============================================================
	// Generator Routes
	// ============================================================

	generatorHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting generator service",
		zap.String("addr", addr),
		zap.String("env", cfg.Environment),
		zap.String("rasterizer", cfg.Rasterizer),
	)

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func newRasterizer(cfg *config.Config, renderer *render.Renderer, logger *zap.Logger) (render.Rasterizer, error) {
	switch cfg.Rasterizer {
	case "chrome":
		return render.NewChrome(renderer, 0, logger), nil
	case "native", "":
		return render.NewRaster(renderer, cfg.ImageWidth)
	default:
		return nil, fmt.Errorf("unknown rasterizer %q", cfg.Rasterizer)
	}
}
