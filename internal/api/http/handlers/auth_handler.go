package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/officeflow/attendance-bot/internal/api/dto"
	"github.com/officeflow/attendance-bot/internal/service"
	"github.com/officeflow/attendance-bot/pkg/util/errorutil"
)

// AuthHandler exposes the admin token endpoint.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// IssueToken handles POST /auth/token.
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	if req.UserID == 0 || req.APIKey == "" {
		return errorutil.NewValidationError("user_id and api_key required", nil)
	}

	token, err := h.auth.IssueToken(c.UserContext(), req.UserID, req.APIKey)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": dto.AuthResponse{Token: token.Token, UserID: token.UserID, ExpiresAt: token.ExpiresAt},
	})
}
