package user

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spintom/inserf/internal/apperr"
	"github.com/spintom/inserf/internal/auth"
	"github.com/spintom/inserf/internal/httpx"
)

// TokenTTL is how long a sign-in token stays valid.
const TokenTTL = 72 * time.Hour

type Handler struct {
	service *Service
	secret  []byte
	log     zerolog.Logger
	now     func() time.Time
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string    `json:"message"`
	Token   string    `json:"token"`
	Role    auth.Role `json:"role"`
	Home    string    `json:"home"`
	User    User      `json:"user"`
}

func NewHandler(service *Service, secret []byte, log zerolog.Logger) *Handler {
	return &Handler{service: service, secret: secret, log: log, now: time.Now}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/sign-in", h.login)
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := httpx.Body(c, payload); err != nil {
		return httpx.Error(c, h.log, err)
	}
	if payload.Username == "" || payload.Password == "" {
		return httpx.Error(c, h.log, apperr.New(apperr.InvalidInput, "Usuario y contraseña son obligatorios"))
	}

	user, err := h.service.Authenticate(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return httpx.Error(c, h.log, err)
	}

	signed, err := auth.IssueToken(h.secret, user.Identity(), TokenTTL, h.now())
	if err != nil {
		return httpx.Error(c, h.log, err)
	}

	h.log.Info().Int("user_id", user.ID).Str("role", string(user.Role)).Msg("user signed in")
	return c.JSON(loginResponse{
		Message: "Inicio de sesión exitoso",
		Token:   signed,
		Role:    user.Role,
		Home:    user.Role.Home(),
		User:    user,
	})
}
