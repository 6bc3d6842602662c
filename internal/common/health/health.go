package health

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

const checkTimeout = 2 * time.Second

// Check описывает проверку зависимости для readiness (БД, апстрим).
type Check struct {
	Name  string
	Check func(ctx context.Context) error
}

// Register вешает /health/live, /health/ready и /health/startup.
func Register(router fiber.Router, checks ...Check) {
	router.Get("/health/live", LivenessProbe)
	router.Get("/health/ready", ReadinessProbe(checks...))
	router.Get("/health/startup", StartupProbe)
}

// LivenessProbe проверяет, что приложение работает
func LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// ReadinessProbe прогоняет проверки; любая ошибка даёт 503 со списком упавших.
func ReadinessProbe(checks ...Check) fiber.Handler {
	return func(c fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), checkTimeout)
		defer cancel()

		failed := fiber.Map{}
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				failed[check.Name] = err.Error()
			}
		}

		if len(failed) > 0 {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"checks": failed,
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	}
}

// StartupProbe проверяет, что приложение успешно запустилось
func StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "started",
	})
}
