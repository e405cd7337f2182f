package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-hub/internal/api/dto"
	"github.com/spec-kit/ticket-hub/internal/service"
	apperrors "github.com/spec-kit/ticket-hub/pkg/util"
)

// LookupsHandler administers the status and priority vocabularies.
type LookupsHandler struct {
	service *service.LookupService
}

// NewLookupsHandler constructs handler.
func NewLookupsHandler(lookupService *service.LookupService) *LookupsHandler {
	return &LookupsHandler{service: lookupService}
}

// ListStatuses GET /lookups/statuses.
func (h *LookupsHandler) ListStatuses(c *fiber.Ctx) error {
	statuses, err := h.service.ListStatuses(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.StatusResponse, 0, len(statuses))
	for _, status := range statuses {
		items = append(items, dto.StatusResponse{ID: status.ID, Name: status.Name, Color: status.Color})
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateStatus POST /lookups/statuses.
func (h *LookupsHandler) CreateStatus(c *fiber.Ctx) error {
	var req dto.CreateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := h.service.CreateStatus(c.UserContext(), req.Name, req.Color)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.StatusResponse{
		ID: status.ID, Name: status.Name, Color: status.Color,
	}})
}

// ListPriorities GET /lookups/priorities.
func (h *LookupsHandler) ListPriorities(c *fiber.Ctx) error {
	priorities, err := h.service.ListPriorities(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.PriorityResponse, 0, len(priorities))
	for _, priority := range priorities {
		items = append(items, dto.PriorityResponse{
			ID: priority.ID, Name: priority.Name, Color: priority.Color, Value: priority.Value,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreatePriority POST /lookups/priorities.
func (h *LookupsHandler) CreatePriority(c *fiber.Ctx) error {
	var req dto.CreatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	priority, err := h.service.CreatePriority(c.UserContext(), req.Name, req.Color, req.Value)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.PriorityResponse{
		ID: priority.ID, Name: priority.Name, Color: priority.Color, Value: priority.Value,
	}})
}
