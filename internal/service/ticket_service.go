package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-hub/internal/api/dto"
	"github.com/spec-kit/ticket-hub/internal/domain"
	"github.com/spec-kit/ticket-hub/internal/events"
	"github.com/spec-kit/ticket-hub/internal/provider"
	"github.com/spec-kit/ticket-hub/internal/repository"
	apperrors "github.com/spec-kit/ticket-hub/pkg/util"
)

// TicketService covers the ordinary request/response side of tickets:
// creation, comments, assignment, deletion, materialization and
// summarization.
type TicketService struct {
	tickets      repository.TicketRepository
	comments     repository.CommentRepository
	integrations repository.IntegrationRepository
	workspaces   repository.WorkspaceRepository
	registry     *provider.Registry
	materializer *TicketMaterializer
	mapper       *TicketViewMapper
	summarizer   TicketSummarizer
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo      repository.TicketRepository
	CommentRepo     repository.CommentRepository
	IntegrationRepo repository.IntegrationRepository
	WorkspaceRepo   repository.WorkspaceRepository
	Registry        *provider.Registry
	Materializer    *TicketMaterializer
	Mapper          *TicketViewMapper
	Summarizer      TicketSummarizer
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// TicketCreateInput describes internal ticket creation payload.
type TicketCreateInput struct {
	Title              string
	Description        string
	StatusID           *string
	PriorityID         *string
	AssignedAgentID    *string
	AssignedWorkflowID *string
}

// MaterializeInput carries the external projection a client wants promoted.
type MaterializeInput struct {
	IntegrationID      string
	ExternalTicketID   string
	Projection         provider.TicketProjection
	AssignedAgentID    *string
	AssignedWorkflowID *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:      deps.TicketRepo,
		comments:     deps.CommentRepo,
		integrations: deps.IntegrationRepo,
		workspaces:   deps.WorkspaceRepo,
		registry:     deps.Registry,
		materializer: deps.Materializer,
		mapper:       deps.Mapper,
		summarizer:   deps.Summarizer,
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
	}
}

// CreateTicket creates a purely internal ticket.
func (s *TicketService) CreateTicket(ctx context.Context, workspaceID string, agentID *string, input TicketCreateInput) (*domain.Ticket, error) {
	if _, err := s.workspaces.GetByID(ctx, workspaceID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("workspace", nil)
		}
		return nil, err
	}

	ticket := &domain.Ticket{
		WorkspaceID:        workspaceID,
		Title:              strings.TrimSpace(input.Title),
		Description:        strings.TrimSpace(input.Description),
		StatusID:           input.StatusID,
		PriorityID:         input.PriorityID,
		IsInternal:         true,
		AssignedAgentID:    input.AssignedAgentID,
		AssignedWorkflowID: input.AssignedWorkflowID,
	}
	if ticket.Title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketCreated,
		WorkspaceID: workspaceID,
		TicketID:    ticket.ID,
		AgentID:     agentID,
		Payload: events.TicketCreatedPayload{
			Title:      ticket.Title,
			PriorityID: ticket.PriorityID,
		},
	})
	return ticket, nil
}

// MaterializeTicket promotes an external ticket into a durable record.
func (s *TicketService) MaterializeTicket(ctx context.Context, workspaceID string, agentID *string, input MaterializeInput) (*domain.Ticket, error) {
	integration, err := s.getWorkspaceIntegration(ctx, workspaceID, input.IntegrationID)
	if err != nil {
		return nil, err
	}

	ticket, err := s.materializer.MaterializeFromExternal(ctx,
		integration.ID, input.ExternalTicketID, workspaceID,
		input.Projection, input.AssignedAgentID, input.AssignedWorkflowID)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketMaterialized,
		WorkspaceID: workspaceID,
		TicketID:    ticket.ID,
		AgentID:     agentID,
		Payload: events.TicketMaterializedPayload{
			IntegrationID:    integration.ID,
			ExternalTicketID: input.ExternalTicketID,
		},
	})
	return ticket, nil
}

// GetTicket resolves a display id (internal or composite) to a durable
// ticket. Unmaterialized external ids resolve to not-found: only the
// aggregated listing can serve live-only projections.
func (s *TicketService) GetTicket(ctx context.Context, workspaceID, displayID string) (*domain.Ticket, []domain.Comment, error) {
	ticket, err := s.resolveTicket(ctx, workspaceID, displayID)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, comments, nil
}

// GetTicketView resolves a display id and renders the display shape for its
// durable record. Materialized external tickets keep their composite id.
func (s *TicketService) GetTicketView(ctx context.Context, workspaceID, displayID string) (dto.TicketView, error) {
	ticket, comments, err := s.GetTicket(ctx, workspaceID, displayID)
	if err != nil {
		return dto.TicketView{}, err
	}
	view, err := s.mapper.MapInternalTicketToView(ctx, *ticket, comments)
	if err != nil {
		return dto.TicketView{}, err
	}
	if ticket.HasExternalRef() {
		integration, err := s.getWorkspaceIntegration(ctx, workspaceID, *ticket.IntegrationID)
		if err != nil {
			return dto.TicketView{}, err
		}
		view.ID = CompositeTicketID(integration.ID, *ticket.ExternalTicketID)
		view.Source = dto.SourceExternal
		view.IsInternal = false
		view.IntegrationID = ticket.IntegrationID
		view.ExternalTicketID = ticket.ExternalTicketID
		view.ExternalURL = s.mapper.BuildExternalURL(*integration, *ticket.ExternalTicketID)
	}
	return view, nil
}

// AddComment appends a comment. External-origin tickets post through the
// provider; materialized ones also keep a local copy of the thread entry.
func (s *TicketService) AddComment(ctx context.Context, workspaceID, displayID, body, authorName string, agentID *string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("body required", nil)
	}

	integrationID, externalTicketID, isExternal := SplitCompositeTicketID(displayID)
	if !isExternal {
		ticket, err := s.resolveTicket(ctx, workspaceID, displayID)
		if err != nil {
			return nil, err
		}
		comment := &domain.Comment{
			TicketID:   ticket.ID,
			AuthorName: authorName,
			Body:       body,
		}
		if err := s.comments.Create(ctx, comment); err != nil {
			return nil, err
		}
		s.publishCommentEvent(ctx, workspaceID, ticket.ID, agentID, authorName, body, false)
		return comment, nil
	}

	integration, err := s.getWorkspaceIntegration(ctx, workspaceID, integrationID)
	if err != nil {
		return nil, err
	}
	client, err := s.registry.Get(integration.Provider)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailable("tracker not reachable", err)
	}
	comment, err := client.AddComment(ctx, *integration, externalTicketID, body, authorName)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailable("failed to post comment to tracker", err)
	}

	// Keep the local thread in sync when the ticket is materialized.
	if local, lookupErr := s.tickets.GetByExternalRef(ctx, integrationID, externalTicketID); lookupErr == nil {
		localCopy := domain.Comment{
			TicketID:   local.ID,
			AuthorName: authorName,
			Body:       body,
		}
		if err := s.comments.Create(ctx, &localCopy); err != nil {
			s.logger.Warn("failed to persist local copy of external comment",
				zap.String("ticket_id", local.ID), zap.Error(err))
		}
	} else if !errors.Is(lookupErr, pgx.ErrNoRows) {
		return nil, lookupErr
	}

	s.publishCommentEvent(ctx, workspaceID, displayID, agentID, authorName, body, true)
	return &comment, nil
}

// UpdateAssignment changes the assigned agent/workflow of a durable ticket.
func (s *TicketService) UpdateAssignment(ctx context.Context, workspaceID, displayID string, agentID *string, assignedAgentID, assignedWorkflowID *string) (*domain.Ticket, error) {
	ticket, err := s.resolveTicket(ctx, workspaceID, displayID)
	if err != nil {
		return nil, err
	}
	ticket.AssignedAgentID = assignedAgentID
	ticket.AssignedWorkflowID = assignedWorkflowID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketAssignmentChanged,
		WorkspaceID: workspaceID,
		TicketID:    ticket.ID,
		AgentID:     agentID,
		Payload: events.TicketAssignmentChangedPayload{
			AssignedAgentID:    assignedAgentID,
			AssignedWorkflowID: assignedWorkflowID,
		},
	})
	return ticket, nil
}

// DeleteTicket removes a ticket. Only purely internal tickets may be
// deleted; external-origin records are owned by their tracker.
func (s *TicketService) DeleteTicket(ctx context.Context, workspaceID, displayID string, agentID *string) error {
	ticket, err := s.resolveTicket(ctx, workspaceID, displayID)
	if err != nil {
		return err
	}
	if !ticket.IsInternal || ticket.HasExternalRef() {
		return apperrors.NewForbidden("only internal tickets can be deleted")
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketDeleted,
		WorkspaceID: workspaceID,
		TicketID:    ticket.ID,
		AgentID:     agentID,
	})
	return nil
}

// SummarizeTicket produces an AI summary of a durable ticket's thread.
// There is no safe default text, so any summarizer failure propagates.
func (s *TicketService) SummarizeTicket(ctx context.Context, workspaceID, displayID string) (string, error) {
	ticket, comments, err := s.GetTicket(ctx, workspaceID, displayID)
	if err != nil {
		return "", err
	}
	bodies := make([]string, 0, len(comments))
	for _, comment := range comments {
		bodies = append(bodies, comment.Body)
	}
	summary, err := s.summarizer.Summarize(ctx, ticket.Title, ticket.Description, bodies)
	if err != nil {
		return "", apperrors.NewUpstreamUnavailable("ticket summarization failed", err)
	}
	return summary, nil
}

func (s *TicketService) resolveTicket(ctx context.Context, workspaceID, displayID string) (*domain.Ticket, error) {
	var (
		ticket *domain.Ticket
		err    error
	)
	if integrationID, externalTicketID, ok := SplitCompositeTicketID(displayID); ok {
		ticket, err = s.tickets.GetByExternalRef(ctx, integrationID, externalTicketID)
	} else {
		ticket, err = s.tickets.GetByID(ctx, displayID)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": displayID})
		}
		return nil, err
	}
	if ticket.WorkspaceID != workspaceID {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": displayID})
	}
	return ticket, nil
}

func (s *TicketService) getWorkspaceIntegration(ctx context.Context, workspaceID, integrationID string) (*domain.Integration, error) {
	integration, err := s.integrations.GetByID(ctx, integrationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("integration", map[string]any{"id": integrationID})
		}
		return nil, err
	}
	if integration.WorkspaceID != workspaceID {
		return nil, apperrors.NewNotFound("integration", map[string]any{"id": integrationID})
	}
	return integration, nil
}

func (s *TicketService) publishCommentEvent(ctx context.Context, workspaceID, ticketID string, agentID *string, authorName, body string, external bool) {
	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketCommentAdded,
		WorkspaceID: workspaceID,
		TicketID:    ticketID,
		AgentID:     agentID,
		Payload: events.TicketCommentAddedPayload{
			AuthorName:  authorName,
			BodyPreview: stringPreview(body, 120),
			External:    external,
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
