package handlers

import (
	"errors"
	"fmt"

	"github.com/Devhypertech/aigroupgepanda/internal/apperr"
	"github.com/Devhypertech/aigroupgepanda/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler renders handler errors as {error, message?, details?}.
// Upstream failures surface as 500 with the vendor status in message.
func ErrorHandler(log *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			fiberErr   *fiber.Error
			validation *apperr.ValidationError
			notFound   *apperr.NotFoundError
			forbidden  *apperr.AuthorizationError
			upstream   *apperr.UpstreamError
			timeout    *apperr.UpstreamTimeout
		)

		switch {
		case errors.As(err, &fiberErr):
			return c.Status(fiberErr.Code).JSON(models.ErrorResponse(fiberErr.Message, ""))
		case errors.As(err, &validation):
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorBody{Error: validation.Message, Details: validation.Details})
		case errors.As(err, &notFound):
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse(notFound.Error(), ""))
		case errors.As(err, &forbidden):
			return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse(forbidden.Message, ""))
		case errors.As(err, &upstream):
			log.Errorw("upstream failure", "path", c.Path(), "service", upstream.Service, "status", upstream.StatusCode)
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(
				"Upstream request failed",
				fmt.Sprintf("%s returned status %d", upstream.Service, upstream.StatusCode),
			))
		case errors.As(err, &timeout):
			log.Errorw("upstream timeout", "path", c.Path(), "service", timeout.Service)
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Upstream request timed out", timeout.Error()))
		default:
			log.Errorw("request failed", "path", c.Path(), "request_id", c.Locals("requestid"), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Internal Server Error", err.Error()))
		}
	}
}
