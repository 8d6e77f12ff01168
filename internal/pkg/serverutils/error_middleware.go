package serverutils

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"notebooklm-chat-be/pkg/credentials"
	"notebooklm-chat-be/pkg/notebooklm"
)

// ErrorHandlerMiddleware translates errors bubbling out of controllers into
// the JSON envelope. Detailed causes are logged here and nowhere else; the
// client only sees the safe message.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var appErr *AppError
		if errors.As(err, &appErr) {
			if appErr.Err != nil {
				log.Printf("[HTTP] %s %s -> %s: %v", ctx.Method(), ctx.Path(), appErr.Code, appErr.Err)
			}
			return ctx.Status(appErr.HTTPCode).JSON(ErrorResponse(appErr.HTTPCode, appErr.Message))
		}

		var upstreamErr *notebooklm.UpstreamError
		if errors.As(err, &upstreamErr) {
			log.Printf("[HTTP] %s %s -> upstream %d: %s", ctx.Method(), ctx.Path(), upstreamErr.StatusCode, upstreamErr.Message)
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(fiber.StatusBadGateway, upstreamErr.Error()))
		}

		if errors.Is(err, credentials.ErrNoCredentials) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, err.Error()))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		log.Printf("[HTTP] %s %s -> unhandled error: %v", ctx.Method(), ctx.Path(), err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "Internal server error"))
	}
}
