package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pharmacy-register/internal/application/dto"
	"github.com/jhoicas/pharmacy-register/pkg/jwt"
)

// LocalActor clave de c.Locals con el Actor autenticado.
const LocalActor = "actor"

// Actor usuario del token. Se pasa explícito a cada escritura del registro (authorized_by por defecto).
type Actor struct {
	UserID string
	Role   string
}

// AuthMiddleware valida el Bearer Token JWT emitido por el host y guarda el Actor en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, code, msg := bearerToken(c.Get(fiber.HeaderAuthorization))
		if code != "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: code, Message: msg})
		}
		userID, role, err := jwt.Parse(jwtSecret, token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalActor, Actor{UserID: userID, Role: role})
		return c.Next()
	}
}

// bearerToken extrae el token del header; code vacío = ok.
func bearerToken(header string) (token, code, msg string) {
	if header == "" {
		return "", "MISSING_TOKEN", "Authorization header requerido"
	}
	scheme, rest, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "INVALID_TOKEN", "formato: Bearer <token>"
	}
	token = strings.TrimSpace(rest)
	if token == "" {
		return "", "MISSING_TOKEN", "token vacío"
	}
	return token, "", ""
}

// GetActor devuelve el Actor del contexto (zero value sin AuthMiddleware).
func GetActor(c *fiber.Ctx) Actor {
	a, _ := c.Locals(LocalActor).(Actor)
	return a
}

// GetUserID atajo para GetActor(c).UserID.
func GetUserID(c *fiber.Ctx) string { return GetActor(c).UserID }

// GetRole atajo para GetActor(c).Role.
func GetRole(c *fiber.Ctx) string { return GetActor(c).Role }
