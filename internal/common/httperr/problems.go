package httperr

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// ============================================================
// Problem responses (RFC 7807)
// ============================================================

const contentType = "application/problem+json"

func send(c fiber.Ctx, problem *problems.Problem) error {
	return c.Status(problem.Status).JSON(problem, contentType)
}

func BadRequest(c fiber.Ctx, detail string) error {
	return send(c, problems.NewStatusProblem(fiber.StatusBadRequest).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail))
}

func Unauthorized(c fiber.Ctx, detail string) error {
	return send(c, problems.NewStatusProblem(fiber.StatusUnauthorized).
		WithInstance(c.Path()).
		WithType("unauthorized").
		WithDetail(detail))
}

func NotFound(c fiber.Ctx, detail string) error {
	return send(c, problems.NewStatusProblem(fiber.StatusNotFound).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail))
}

func Internal(c fiber.Ctx, err error) error {
	return send(c, problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err))
}

func BadGateway(c fiber.Ctx, detail string) error {
	return send(c, problems.NewStatusProblem(fiber.StatusBadGateway).
		WithInstance(c.Path()).
		WithType("upstream_error").
		WithDetail(detail))
}

// Handler служит ErrorHandler для fiber.Config: *fiber.Error превращается в problem с тем же статусом.
func Handler(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return send(c, problems.NewStatusProblem(fe.Code).
			WithInstance(c.Path()).
			WithDetail(fe.Message))
	}
	return Internal(c, err)
}
