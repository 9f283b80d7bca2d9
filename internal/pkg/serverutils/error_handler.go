package serverutils

import (
	"context"
	"errors"
	"io/fs"

	"github.com/pagpeter/obsidian-extensions/pkg/anki"
	"github.com/pagpeter/obsidian-extensions/pkg/copilot"
	"github.com/pagpeter/obsidian-extensions/pkg/sokrates"

	"github.com/gofiber/fiber/v2"
)

// ErrBadRequest marks service errors caused by the request itself.
var ErrBadRequest = errors.New("bad request")

// ErrorHandlerMiddleware turns errors returned by handlers into the common
// error body. Usage errors map to 400, local paths that do not exist to 404,
// rejected credentials to 401 and failures of the remote services to 502.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusFor(err)
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}

func StatusFor(err error) int {
	var fiberErr *fiber.Error
	var validationErr *ValidationError

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &validationErr),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, copilot.ErrConfiguration),
		errors.Is(err, anki.ErrEmptyDeckName),
		errors.Is(err, anki.ErrNoMarkdownFiles),
		errors.Is(err, anki.ErrNoCards):
		return fiber.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist):
		return fiber.StatusNotFound
	case errors.Is(err, sokrates.ErrInvalidToken),
		errors.Is(err, sokrates.ErrMissingToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusBadGateway
	}
}
