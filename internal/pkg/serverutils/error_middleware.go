package serverutils

import (
	"errors"

	"dyor-ai-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors bubbling out of handlers into the
// standard response envelope. Storage and provider failures are reported
// with a generic message; the detail stays in the logs.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			switch appErr.Kind {
			case apperror.KindNotFound:
				return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(appErr.Message))
			case apperror.KindInvalidArgument:
				return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(appErr.Message))
			default:
				return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(appErr.Message))
			}
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("internal server error"))
	}
}
