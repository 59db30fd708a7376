// Package auth issues and checks the JWTs that carry a caller's identity.
package auth

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"github.com/spintom/inserf/internal/apperr"
	"github.com/spintom/inserf/internal/httpx"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

var (
	ErrUnauthorized = apperr.New(apperr.Unauthorized, "no autenticado")
	ErrForbidden    = apperr.New(apperr.Forbidden, "acceso denegado")
)

// ParseRole accepts the stored role names, including the legacy "cliente".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "client", "cliente":
		return RoleClient, nil
	}
	return "", apperr.Newf(apperr.InvalidInput, "rol desconocido %q", s)
}

// Home is where a freshly signed-in user of this role lands.
func (r Role) Home() string {
	if r == RoleAdmin {
		return "/admin-panel/"
	}
	return "/api/v1/orders"
}

// Identity is what the handlers know about the caller. ClientID is zero for
// users that do not purchase on behalf of a client.
type Identity struct {
	UserID   int
	Role     Role
	ClientID int
}

// IssueToken signs an HS256 token for id that expires ttl after now.
func IssueToken(secret []byte, id Identity, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id":   id.UserID,
		"role":      string(id.Role),
		"client_id": id.ClientID,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Middleware validates the bearer token and stores it under Locals("user").
func Middleware(secret []byte, log zerolog.Logger) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: secret,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return httpx.Error(c, log, apperr.Wrap(apperr.Unauthorized, err, ErrUnauthorized.Message))
		},
	})
}

// FromCtx reads the identity from the token placed by Middleware.
func FromCtx(c *fiber.Ctx) (Identity, error) {
	if id, ok := c.Locals(identityKey).(Identity); ok {
		return id, nil
	}
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return Identity{}, ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrUnauthorized
	}

	userID, ok := intClaim(claims, "user_id")
	if !ok || userID <= 0 {
		return Identity{}, ErrUnauthorized
	}
	raw, _ := claims["role"].(string)
	role, err := ParseRole(raw)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	clientID, _ := intClaim(claims, "client_id")
	return Identity{UserID: userID, Role: role, ClientID: clientID}, nil
}

const identityKey = "identity"

// Require rejects callers whose role is not listed. Client callers must also
// be linked to a client account.
func Require(log zerolog.Logger, roles ...Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := FromCtx(c)
		if err != nil {
			return httpx.Error(c, log, err)
		}
		allowed := false
		for _, r := range roles {
			if id.Role == r {
				allowed = true
				break
			}
		}
		if !allowed || (id.Role == RoleClient && id.ClientID <= 0) {
			return httpx.Error(c, log, ErrForbidden)
		}
		c.Locals(identityKey, id)
		return c.Next()
	}
}

func intClaim(claims jwt.MapClaims, key string) (int, bool) {
	switch v := claims[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}
