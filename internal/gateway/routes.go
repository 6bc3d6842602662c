package gateway

import (
	"github.com/gofiber/fiber/v3"

	"constellar/internal/gateway/proxy"
)

// ============================================================
// API Routes
// ============================================================

const APIPrefix = "/api/v1"

type Upstreams struct {
	Generator string
	Projects  string
}

// Register вешает /api/v1 и проксирует маршруты в генератор и сервис проектов.
func Register(router fiber.Router, p *proxy.Proxy, upstreams Upstreams) {
	api := router.Group(APIPrefix)

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Constellar API v1",
			"status":  "ok",
		})
	})

	// Generator Service
	generator := p.StripTo(APIPrefix, upstreams.Generator)
	api.Post("/actions", generator)
	api.Post("/actions/extract", generator)
	api.Get("/tools", generator)
	api.Post("/tools/:name", generator)
	api.Post("/flowchart", generator)
	api.Post("/render/svg", generator)
	api.Post("/render/png", generator)

	// Projects Service
	projects := p.StripTo(APIPrefix, upstreams.Projects)
	api.All("/projects", projects)
	api.All("/projects/*", projects)
}
