package serverutils

import (
	"errors"

	"memory-beads-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an application error kind to its HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	switch apperr.KindOf(err) {
	case apperr.KindUserInput:
		return fiber.StatusBadRequest
	case apperr.KindDeviceAccess:
		return fiber.StatusLocked
	case apperr.KindStaleReference:
		return fiber.StatusConflict
	case apperr.KindRecoverableExternal:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware converts handler errors into the response envelope.
// Internal errors never leak their message.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := StatusFor(err)

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(status).JSON(ErrorResponse(status, fe.Message))
		}

		var ae *apperr.Error
		if errors.As(err, &ae) {
			return ctx.Status(status).JSON(ErrorResponseWithData(status, ae.Message, fiber.Map{
				"kind":    ae.Kind,
				"details": ae.Details,
			}))
		}

		return ctx.Status(status).JSON(ErrorResponse(status, "Internal server error"))
	}
}
