// Package httpx holds the JSON response helpers shared by the fiber handlers.
package httpx

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spintom/inserf/internal/apperr"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind"`
}

// Error writes err with the status of its kind. Unexpected errors are logged
// in full and reported to the caller without detail.
func Error(c *fiber.Ctx, log zerolog.Logger, err error) error {
	kind := apperr.KindOf(err)
	if kind == apperr.Unexpected {
		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("request failed")
	}
	return c.Status(kind.Status()).JSON(ErrorResponse{
		Success: false,
		Error:   apperr.PublicMessage(err),
		Kind:    kind.String(),
	})
}

// IDParam reads a positive integer route parameter.
func IDParam(c *fiber.Ctx, name string) (int, error) {
	id, err := strconv.Atoi(c.Params(name))
	if err != nil || id <= 0 {
		return 0, apperr.Newf(apperr.InvalidInput, "invalid %s", name)
	}
	return id, nil
}

// Body parses the request body into dst, reporting malformed input as
// InvalidInput.
func Body(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.Wrap(apperr.InvalidInput, err, "Datos inválidos")
	}
	return nil
}

// ErrorHandler is the fiber.Config ErrorHandler. Router errors such as an
// unknown route keep their status; everything else goes through Error.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(ErrorResponse{Error: fe.Message, Kind: "http"})
		}
		return Error(c, log, err)
	}
}
