package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-hub/internal/domain"
	"github.com/spec-kit/ticket-hub/internal/repository"
	apperrors "github.com/spec-kit/ticket-hub/pkg/util"
)

const principalKey = "auth.principal"

// Principal is the authenticated caller attached to a request.
type Principal struct {
	Agent *domain.Agent
}

// AuthMiddleware validates bearer tokens and loads the calling agent.
type AuthMiddleware struct {
	tokens *TokenManager
	agents repository.AgentRepository
}

// NewAuthMiddleware constructs the middleware.
func NewAuthMiddleware(tokens *TokenManager, agents repository.AgentRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, agents: agents}
}

// Handle authenticates the request or rejects it.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return apperrors.NewUnauthorized("bearer token required")
	}
	claims, err := m.tokens.Parse(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	agent, err := m.agents.GetByID(c.UserContext(), claims.AgentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("unknown agent")
		}
		return err
	}
	if !agent.IsActive {
		return apperrors.NewForbidden("agent disabled")
	}
	c.Locals(principalKey, &Principal{Agent: agent})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	principal, ok := c.Locals(principalKey).(*Principal)
	return principal, ok && principal != nil
}

// RequireWorkspace ensures the caller's agent belongs to the workspace in
// the route.
func RequireWorkspace() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Agent == nil {
			return apperrors.NewUnauthorized("agent required")
		}
		workspaceID := c.Params("workspaceID")
		if workspaceID != "" && principal.Agent.WorkspaceID != workspaceID {
			return apperrors.NewForbidden("agent not in workspace")
		}
		return c.Next()
	}
}
