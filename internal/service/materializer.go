package service

import (
	"context"
	"errors"
	"math"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-hub/internal/domain"
	"github.com/spec-kit/ticket-hub/internal/provider"
	"github.com/spec-kit/ticket-hub/internal/repository"
)

// TicketMaterializer promotes external tickets into durable local records so
// assignment and status overrides can attach to them.
type TicketMaterializer struct {
	tickets repository.TicketRepository
	lookups *LookupCache
	logger  *zap.Logger
}

// NewTicketMaterializer constructs the materializer.
func NewTicketMaterializer(tickets repository.TicketRepository, lookups *LookupCache, logger *zap.Logger) *TicketMaterializer {
	return &TicketMaterializer{tickets: tickets, lookups: lookups, logger: logger}
}

// MaterializeFromExternal is idempotent: an existing record for the
// (integrationID, externalTicketID) pair is returned unchanged. Concurrent
// promotes are serialized by the uniqueness constraint at the storage layer;
// the loser of the race adopts the winner's record.
func (m *TicketMaterializer) MaterializeFromExternal(ctx context.Context, integrationID, externalTicketID, workspaceID string, projection provider.TicketProjection, assignedAgentID, assignedWorkflowID *string) (*domain.Ticket, error) {
	existing, err := m.tickets.GetByExternalRef(ctx, integrationID, externalTicketID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	priority, err := m.MapExternalPriorityToInternal(ctx, projection.PriorityValue)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		WorkspaceID:        workspaceID,
		Title:              projection.Title,
		Description:        projection.Description,
		IsInternal:         false,
		IntegrationID:      &integrationID,
		ExternalTicketID:   &externalTicketID,
		AssignedAgentID:    assignedAgentID,
		AssignedWorkflowID: assignedWorkflowID,
	}
	if priority != nil {
		ticket.PriorityID = &priority.ID
	}

	if err := m.tickets.Create(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrDuplicateExternalTicket) {
			m.logger.Info("lost materialization race, adopting existing record",
				zap.String("integration_id", integrationID),
				zap.String("external_ticket_id", externalTicketID))
			return m.tickets.GetByExternalRef(ctx, integrationID, externalTicketID)
		}
		return nil, err
	}
	return ticket, nil
}

// MapExternalPriorityToInternal picks the local priority whose numeric value
// is nearest the external one. When two candidates are equidistant the lower
// value wins, so the mapping is deterministic regardless of table order.
// Returns nil when no local priorities exist.
func (m *TicketMaterializer) MapExternalPriorityToInternal(ctx context.Context, externalValue float64) (*domain.TicketPriority, error) {
	priorities, err := m.lookups.Priorities(ctx)
	if err != nil {
		return nil, err
	}
	if len(priorities) == 0 {
		return nil, nil
	}

	best := priorities[0]
	bestDiff := math.Abs(float64(best.Value) - externalValue)
	for _, candidate := range priorities[1:] {
		diff := math.Abs(float64(candidate.Value) - externalValue)
		if diff < bestDiff || (diff == bestDiff && candidate.Value < best.Value) {
			best = candidate
			bestDiff = diff
		}
	}
	return &best, nil
}
