package middlewares

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/wlhuang/riskgate/internal/handlers/api"
)

// ErrorHandler renders every error that escapes a handler as a structured JSON
// body. Unexpected errors are logged with the request path and returned as a
// generic 500 without internal detail.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	if code == fiber.StatusInternalServerError {
		slog.Error("Unhandled error", "path", ctx.Path(), "code", code, "error", err)
		message = "Internal server error"
	}
	return ctx.Status(code).JSON(api.NewErrorResponse(code, message))
}
