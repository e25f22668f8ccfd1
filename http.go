package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// ErrorResponse is the JSON body of every error we render
type ErrorResponse struct {
	Message  string `json:"message"`
	TextCode string `json:"text_code,omitempty"`
}

// FiberErrorHandler renders rich errors with their code and text code.
// Anything else becomes a 500 without leaking the cause.
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return c.Status(StatusCode(richErr, fiber.StatusInternalServerError)).JSON(ErrorResponse{
			Message:  richErr.Message,
			TextCode: richErr.TextCode,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Message: fiberErr.Message,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Message: "internal server error",
	})
}
