package handlers

import (
	"time"

	"github.com/campuscyber/cyberkpi/config"
	"github.com/campuscyber/cyberkpi/internal/services"
	"github.com/gofiber/fiber/v3"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler implements the single-admin login used to protect the stats
// export. There is no user table: the only account is configured through
// the environment.
type AuthHandler struct {
	cfg        *config.Config
	jwtService *services.JWTService
}

func NewAuthHandler(cfg *config.Config, jwtService *services.JWTService) *AuthHandler {
	return &AuthHandler{
		cfg:        cfg,
		jwtService: jwtService,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Invalid request body",
		})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Username and password are required",
		})
	}

	if h.cfg.AdminPasswordHash == "" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "Forbidden",
			"message": "Admin login is not configured",
		})
	}

	if req.Username != h.cfg.AdminUsername ||
		bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminPasswordHash), []byte(req.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Invalid username or password",
		})
	}

	token, err := h.jwtService.GenerateToken(req.Username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "Failed to generate token",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(h.jwtService.GetExpiry()),
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
		Secure:   h.cfg.IsProduction(),
	})

	return c.JSON(fiber.Map{
		"token":      token,
		"expires_in": int(h.jwtService.GetExpiry().Seconds()),
	})
}
