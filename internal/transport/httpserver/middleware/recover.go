package middleware

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/synzr/torobooru/internal/transport/httpserver/dto"
)

// Recover turns a handler panic into a 500 response.
func Recover(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logger.Error("panic recovered",
				zap.String("request_id", requestID(c)),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
				zap.String("path", c.Path()),
			)

			err = c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: "internal server error",
				Code:  "PANIC",
			})
		}()

		return c.Next()
	}
}
