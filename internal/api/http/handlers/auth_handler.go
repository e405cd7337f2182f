package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-hub/internal/api/dto"
	"github.com/spec-kit/ticket-hub/internal/service"
	apperrors "github.com/spec-kit/ticket-hub/pkg/util"
)

// AuthHandler serves agent authentication endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/agents/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.AgentLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.AccessKey == "" {
		return apperrors.NewValidationError("email, access_key required", nil)
	}
	token, agent, err := h.service.Login(c.UserContext(), req.Email, req.AccessKey)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AgentLoginResponse{
		Token:       token,
		AgentID:     agent.ID,
		WorkspaceID: agent.WorkspaceID,
		DisplayName: agent.DisplayName,
	}})
}
