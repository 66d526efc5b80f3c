package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/driveturbo/transcriber/internal/auth"
	"github.com/driveturbo/transcriber/internal/logging"
)

// LoginHandler issues session tokens.
type LoginHandler struct {
	verifier auth.Verifier
	jwt      *auth.JWTService
	logger   *logging.Logger
}

// NewLoginHandler creates the handler.
func NewLoginHandler(verifier auth.Verifier, jwt *auth.JWTService, logger *logging.Logger) *LoginHandler {
	return &LoginHandler{
		verifier: verifier,
		jwt:      jwt,
		logger:   logger.With("handler", "login"),
	}
}

// LoginRequest is the JSON request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Handle validates credentials and returns a signed token.
func (h *LoginHandler) Handle(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "invalid request body",
		})
	}

	if !h.verifier.Verify(req.Username, req.Password) {
		h.logger.Warn("rejected login", "username", req.Username)
		return c.Status(401).JSON(fiber.Map{
			"success": false,
			"message": "invalid username or password",
		})
	}

	token, err := h.jwt.GenerateToken(req.Username)
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "failed to generate token",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"message": "login successful",
	})
}
