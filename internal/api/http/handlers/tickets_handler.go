package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-hub/internal/api/dto"
	"github.com/spec-kit/ticket-hub/internal/auth"
	"github.com/spec-kit/ticket-hub/internal/provider"
	"github.com/spec-kit/ticket-hub/internal/service"
	apperrors "github.com/spec-kit/ticket-hub/pkg/util"
)

// TicketsHandler serves the aggregated listing and per-ticket operations.
type TicketsHandler struct {
	orchestrator *service.QueryOrchestrator
	tickets      *service.TicketService
	mapper       *service.TicketViewMapper
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(orchestrator *service.QueryOrchestrator, ticketService *service.TicketService, mapper *service.TicketViewMapper) *TicketsHandler {
	return &TicketsHandler{orchestrator: orchestrator, tickets: ticketService, mapper: mapper}
}

// ListTickets GET /workspaces/:workspaceID/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	pageSize := parseInt(c.Query("page_size"), 0)
	page, err := h.orchestrator.ListWorkspaceTickets(
		c.UserContext(), c.Params("workspaceID"), c.Query("page_token"), pageSize)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// CreateTicket POST /workspaces/:workspaceID/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	agentID, err := callerAgentID(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return apperrors.NewValidationError("title required", nil)
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), c.Params("workspaceID"), agentID, service.TicketCreateInput{
		Title:              req.Title,
		Description:        req.Description,
		StatusID:           req.StatusID,
		PriorityID:         req.PriorityID,
		AssignedAgentID:    req.AssignedAgentID,
		AssignedWorkflowID: req.AssignedWorkflowID,
	})
	if err != nil {
		return err
	}
	view, err := h.mapper.MapInternalTicketToView(c.UserContext(), *ticket, nil)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": view})
}

// MaterializeTicket POST /workspaces/:workspaceID/tickets/materialize.
func (h *TicketsHandler) MaterializeTicket(c *fiber.Ctx) error {
	agentID, err := callerAgentID(c)
	if err != nil {
		return err
	}
	var req dto.MaterializeTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.IntegrationID == "" || req.ExternalTicketID == "" {
		return apperrors.NewValidationError("integration_id, external_ticket_id required", nil)
	}

	workspaceID := c.Params("workspaceID")
	if _, err := h.tickets.MaterializeTicket(c.UserContext(), workspaceID, agentID, service.MaterializeInput{
		IntegrationID:      req.IntegrationID,
		ExternalTicketID:   req.ExternalTicketID,
		Projection:         materializeProjection(req),
		AssignedAgentID:    req.AssignedAgentID,
		AssignedWorkflowID: req.AssignedWorkflowID,
	}); err != nil {
		return err
	}
	view, err := h.tickets.GetTicketView(c.UserContext(), workspaceID,
		service.CompositeTicketID(req.IntegrationID, req.ExternalTicketID))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": view})
}

// GetTicket GET /workspaces/:workspaceID/tickets/:ticketID.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	view, err := h.tickets.GetTicketView(c.UserContext(), c.Params("workspaceID"), ticketParam(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// AddComment POST /workspaces/:workspaceID/tickets/:ticketID/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("agent required")
	}
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	authorName := strings.TrimSpace(req.AuthorName)
	if authorName == "" {
		authorName = principal.Agent.DisplayName
	}

	agentID := principal.Agent.ID
	comment, err := h.tickets.AddComment(c.UserContext(),
		c.Params("workspaceID"), ticketParam(c), req.Body, authorName, &agentID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.CommentView{
		ID:         comment.ID,
		AuthorName: comment.AuthorName,
		Body:       comment.Body,
		CreatedAt:  comment.CreatedAt,
	}})
}

// UpdateAssignment PUT /workspaces/:workspaceID/tickets/:ticketID/assignment.
func (h *TicketsHandler) UpdateAssignment(c *fiber.Ctx) error {
	agentID, err := callerAgentID(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	workspaceID := c.Params("workspaceID")
	if _, err := h.tickets.UpdateAssignment(c.UserContext(), workspaceID, ticketParam(c),
		agentID, req.AssignedAgentID, req.AssignedWorkflowID); err != nil {
		return err
	}
	view, err := h.tickets.GetTicketView(c.UserContext(), workspaceID, ticketParam(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// SummarizeTicket POST /workspaces/:workspaceID/tickets/:ticketID/summarize.
func (h *TicketsHandler) SummarizeTicket(c *fiber.Ctx) error {
	ticketID := ticketParam(c)
	summary, err := h.tickets.SummarizeTicket(c.UserContext(), c.Params("workspaceID"), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketSummaryResponse{
		TicketID: ticketID,
		Summary:  summary,
	}})
}

// DeleteTicket DELETE /workspaces/:workspaceID/tickets/:ticketID.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	agentID, err := callerAgentID(c)
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), c.Params("workspaceID"), ticketParam(c), agentID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ticketParam decodes the ticket path segment. Composite external ids carry a
// colon, which some clients percent-encode.
func ticketParam(c *fiber.Ctx) string {
	raw := c.Params("ticketID")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func callerAgentID(c *fiber.Ctx) (*string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return nil, apperrors.NewUnauthorized("agent required")
	}
	id := principal.Agent.ID
	return &id, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}

func materializeProjection(req dto.MaterializeTicketRequest) provider.TicketProjection {
	comments := make([]provider.ExternalComment, 0, len(req.Comments))
	for _, comment := range req.Comments {
		comments = append(comments, provider.ExternalComment{
			AuthorName: comment.AuthorName,
			Body:       comment.Body,
			CreatedAt:  comment.CreatedAt,
		})
	}
	return provider.TicketProjection{
		ExternalID:    req.ExternalTicketID,
		Title:         req.Title,
		Description:   req.Description,
		PriorityValue: req.PriorityValue,
		Comments:      comments,
	}
}
