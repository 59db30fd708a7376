package httpx

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spintom/inserf/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_StatusAndBody(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{apperr.New(apperr.EmptyCart, "El carrito está vacío"), fiber.StatusConflict, "El carrito está vacío"},
		{apperr.New(apperr.InsufficientStock, "Stock insuficiente"), fiber.StatusBadRequest, "Stock insuficiente"},
		{apperr.New(apperr.NotFound, "no existe"), fiber.StatusNotFound, "no existe"},
		{errors.New("pq: connection refused"), fiber.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error { return Error(c, zerolog.Nop(), tc.err) })

		res, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, tc.status, res.StatusCode)

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
		assert.False(t, body.Success)
		assert.Equal(t, tc.msg, body.Error)
	}
}

func TestIDParam(t *testing.T) {
	app := fiber.New()
	app.Get("/:id", func(c *fiber.Ctx) error {
		id, err := IDParam(c, "id")
		if err != nil {
			return Error(c, zerolog.Nop(), err)
		}
		return c.JSON(fiber.Map{"id": id})
	})

	for path, status := range map[string]int{"/12": 200, "/0": 400, "/-3": 400, "/x": 400} {
		res, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, status, res.StatusCode, path)
	}
}

func TestBody_Malformed(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var dst struct {
			Quantity int `json:"quantity"`
		}
		if err := Body(c, &dst); err != nil {
			return Error(c, zerolog.Nop(), err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest("POST", "/", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestErrorHandler_RouterErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zerolog.Nop())})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db gone") })

	res, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	res, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, res.StatusCode)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "internal error", body.Error)
}
