package order

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spintom/inserf/internal/apperr"
	"github.com/spintom/inserf/internal/auth"
	"github.com/spintom/inserf/internal/cart"
	"github.com/spintom/inserf/internal/client"
	"github.com/spintom/inserf/internal/httpx"
)

// CartViewer prices the cart shown on the checkout page.
type CartViewer interface {
	View(ctx context.Context, clientID int) (cart.View, error)
}

type Handler struct {
	service *Service
	carts   CartViewer
	log     zerolog.Logger
}

func NewHandler(s *Service, carts CartViewer, log zerolog.Logger) *Handler {
	return &Handler{service: s, carts: carts, log: log}
}

// RegisterProtectedRoutes expects r to sit behind auth.Require(auth.RoleClient).
func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/api/v1/checkout", h.getCheckout)
	r.Post("/api/v1/checkout", h.checkout)
	r.Get("/api/v1/orders", h.listOrders)
	r.Get("/api/v1/orders/:id", h.getOrder)
}

const (
	cartPath       = "/api/v1/cart"
	idempotencyKey = "Idempotency-Key"
	replayedHeader = "Idempotent-Replayed"
	ordersPath     = "/api/v1/orders/"
)

type checkoutRequest struct {
	CompanyName   string `json:"companyName" form:"companyName"`
	TaxID         string `json:"taxId" form:"taxId"`
	Address       string `json:"address" form:"address"`
	Phone         string `json:"phone" form:"phone"`
	Email         string `json:"email" form:"email"`
	PaymentMethod string `json:"paymentMethod" form:"paymentMethod"`
	Notes         string `json:"notes" form:"notes"`
}

type checkoutView struct {
	cart.View
	Client client.Contact `json:"client"`
}

func (h *Handler) getCheckout(c *fiber.Ctx) error {
	id, err := auth.FromCtx(c)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	view, err := h.carts.View(c.UserContext(), id.ClientID)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	contact, err := h.service.Contact(c.UserContext(), id.ClientID)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	return c.JSON(checkoutView{View: view, Client: contact})
}

// checkout answers 303 See Other pointing at the new order. An empty cart
// sends form posts back to the cart; JSON callers get the error instead.
func (h *Handler) checkout(c *fiber.Ctx) error {
	id, err := auth.FromCtx(c)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	payload := new(checkoutRequest)
	if err := httpx.Body(c, payload); err != nil {
		return httpx.Error(c, h.log, err)
	}

	in := CheckoutInput{
		Contact: client.Contact{
			CompanyName: payload.CompanyName,
			TaxID:       payload.TaxID,
			Address:     payload.Address,
			Phone:       payload.Phone,
			Email:       payload.Email,
		},
		PaymentMethod: payload.PaymentMethod,
		Notes:         payload.Notes,
	}
	po, replayed, err := h.service.CheckoutIdempotent(c.UserContext(), id.ClientID, c.Get(idempotencyKey), in)
	if err != nil {
		if apperr.KindOf(err) == apperr.EmptyCart && !c.Is("json") {
			return c.Redirect(cartPath, fiber.StatusSeeOther)
		}
		return httpx.Error(c, h.log, err)
	}

	if replayed {
		c.Set(replayedHeader, "true")
	}
	c.Location(ordersPath + strconv.Itoa(po.ID))
	return c.Status(fiber.StatusSeeOther).JSON(po)
}

func (h *Handler) listOrders(c *fiber.Ctx) error {
	id, err := auth.FromCtx(c)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	orders, err := h.service.List(c.UserContext(), id.ClientID)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	return c.JSON(orders)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	id, err := auth.FromCtx(c)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	orderID, err := httpx.IDParam(c, "id")
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	po, err := h.service.Get(c.UserContext(), id.ClientID, orderID)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}
	return c.JSON(po)
}
