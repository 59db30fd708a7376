package catalog

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spintom/inserf/internal/httpx"
)

// Handler exposes the read-only catalog.
type Handler struct {
	service *Service
	log     zerolog.Logger
}

func NewHandler(s *Service, log zerolog.Logger) *Handler {
	return &Handler{service: s, log: log}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/catalog", h.listProducts)
	app.Get("/api/v1/variants/:id", h.getVariant)
}

type variantResponse struct {
	Variant
	Details string `json:"variantDetails"`
}

func (h *Handler) listProducts(c *fiber.Ctx) error {
	products, err := h.service.ListActive(c.UserContext())
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	return c.JSON(products)
}

func (h *Handler) getVariant(c *fiber.Ctx) error {
	id, err := httpx.IDParam(c, "id")
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	v, err := h.service.FindVariant(c.UserContext(), id)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	return c.JSON(variantResponse{Variant: v, Details: Describe(v)})
}
