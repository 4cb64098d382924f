package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repeat-complaints/internal/api/dto"
	"github.com/spec-kit/repeat-complaints/internal/service"
	apperrors "github.com/spec-kit/repeat-complaints/pkg/util/errorutil"
)

// AuthHandler issues API tokens.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Token handles POST /auth/token.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ClientID == "" || req.ClientSecret == "" {
		return apperrors.NewValidationError("client_id and client_secret required", nil)
	}

	tok, err := h.auth.IssueToken(req.ClientID, req.ClientSecret)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     tok.Value,
		TokenType: "Bearer",
		Role:      string(tok.Role),
		ExpiresAt: tok.ExpiresAt,
	}})
}
