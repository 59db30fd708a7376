package cart

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spintom/inserf/internal/auth"
	"github.com/spintom/inserf/internal/httpx"
)

// Handler exposes the cart of the signed-in client.
type Handler struct {
	service *Service
	log     zerolog.Logger
}

func NewHandler(s *Service, log zerolog.Logger) *Handler {
	return &Handler{service: s, log: log}
}

// RegisterProtectedRoutes expects r to sit behind auth.Require(auth.RoleClient).
func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/api/v1/cart", h.getCart)
	r.Post("/api/v1/cart/items", h.addItem)
	r.Post("/api/v1/cart/items/update", h.updateItem)
	r.Post("/api/v1/cart/items/remove", h.removeItem)
}

type addItemRequest struct {
	VariantID int `json:"variantId"`
	Quantity  int `json:"quantity"`
}

type itemRequest struct {
	ItemID   int `json:"itemId"`
	Quantity int `json:"quantity"`
}

type mutationResponse struct {
	Success bool `json:"success"`
	Result
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	id, err := auth.FromCtx(c)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	payload := new(addItemRequest)
	if err := httpx.Body(c, payload); err != nil {
		return httpx.Error(c, h.log, err)
	}

	res, err := h.service.AddItem(c.UserContext(), id.ClientID, payload.VariantID, payload.Quantity)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	return c.JSON(mutationResponse{Success: true, Result: res})
}

func (h *Handler) updateItem(c *fiber.Ctx) error {
	id, err := auth.FromCtx(c)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	payload := new(itemRequest)
	if err := httpx.Body(c, payload); err != nil {
		return httpx.Error(c, h.log, err)
	}

	res, err := h.service.UpdateItemQuantity(c.UserContext(), id.ClientID, payload.ItemID, payload.Quantity)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	return c.JSON(mutationResponse{Success: true, Result: res})
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	id, err := auth.FromCtx(c)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	payload := new(itemRequest)
	if err := httpx.Body(c, payload); err != nil {
		return httpx.Error(c, h.log, err)
	}

	res, err := h.service.RemoveItem(c.UserContext(), id.ClientID, payload.ItemID)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	return c.JSON(mutationResponse{Success: true, Result: res})
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	id, err := auth.FromCtx(c)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	view, err := h.service.View(c.UserContext(), id.ClientID)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	return c.JSON(view)
}
