package web

import (
	"errors"

	"github.com/dukex/instaflow/pkg/engine"
	"github.com/dukex/instaflow/pkg/persistence"
	"github.com/dukex/instaflow/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func forbidden(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(403).
		WithInstance(c.Path()).
		WithType("forbidden").
		WithDetail(detail)

	return c.Status(fiber.StatusForbidden).JSON(problem)
}

func serviceUnavailable(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(503).
		WithInstance(c.Path()).
		WithType("service_unavailable").
		WithDetail(err.Error())

	return c.Status(fiber.StatusServiceUnavailable).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps service, store and engine errors to problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case persistence.IsFlowNotFound(err):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("flow_not_found").
			WithDetail("flow not found")

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case persistence.IsStoreUnavailable(err), errors.Is(err, engine.ErrShuttingDown):
		return serviceUnavailable(c, err)

	default:
		return internalError(c, err)
	}
}

var (
	errInvalidJSON      = errors.New("invalid JSON format")
	errUnknownEventKind = errors.New("unknown event kind")
)
