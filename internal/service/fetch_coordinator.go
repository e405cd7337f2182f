package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-hub/internal/api/dto"
	"github.com/spec-kit/ticket-hub/internal/domain"
	"github.com/spec-kit/ticket-hub/internal/observability"
	"github.com/spec-kit/ticket-hub/internal/pagination"
	"github.com/spec-kit/ticket-hub/internal/provider"
	"github.com/spec-kit/ticket-hub/internal/repository"
)

// ExternalFetchCoordinator fans one page budget out across a workspace's
// integrations, continuing each provider's native pagination from the
// carried token state.
type ExternalFetchCoordinator struct {
	registry *provider.Registry
	tickets  repository.TicketRepository
	comments repository.CommentRepository
	mapper   *TicketViewMapper
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// FetchCoordinatorDependencies bundles collaborators for the coordinator.
type FetchCoordinatorDependencies struct {
	Registry    *provider.Registry
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	Mapper      *TicketViewMapper
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewExternalFetchCoordinator constructs the coordinator.
func NewExternalFetchCoordinator(deps FetchCoordinatorDependencies) *ExternalFetchCoordinator {
	return &ExternalFetchCoordinator{
		registry: deps.Registry,
		tickets:  deps.TicketRepo,
		comments: deps.CommentRepo,
		mapper:   deps.Mapper,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
}

// CalculateProviderDistribution splits remainingSlots as evenly as possible
// over the integrations. The first remainingSlots%n integrations in input
// order receive one extra slot, so no two providers differ by more than one
// and the values always sum to remainingSlots.
func (c *ExternalFetchCoordinator) CalculateProviderDistribution(integrations []domain.Integration, remainingSlots int) map[string]int {
	distribution := make(map[string]int)
	n := len(integrations)
	if n == 0 || remainingSlots <= 0 {
		return distribution
	}
	base := remainingSlots / n
	rem := remainingSlots % n
	for i, integration := range integrations {
		slots := base
		if i < rem {
			slots++
		}
		distribution[integration.ID] = slots
	}
	return distribution
}

// FetchExternalTickets visits integrations round-robin starting at the
// carried provider index, asking each for up to its allotted slots using its
// stored native token. Budget is allotted in visit order and a provider's
// unused slots carry over to the next, so an exhausted or failing provider
// cannot starve the ones behind it. A failing provider is logged and skipped
// for this page; partial results never fail the request. hasMore is true if
// any visited provider reports more data or the page filled up before every
// provider was visited.
func (c *ExternalFetchCoordinator) FetchExternalTickets(ctx context.Context, integrations []domain.Integration, slotsToFill int, state *pagination.ExternalPageState) ([]dto.TicketView, bool, *pagination.ExternalPageState, error) {
	newState := cloneExternalState(state)
	n := len(integrations)
	if n == 0 || slotsToFill <= 0 {
		return nil, false, newState, nil
	}

	startIndex := newState.CurrentProviderIndex
	if startIndex < 0 || startIndex >= n {
		startIndex = 0
	}
	visitOrder := make([]domain.Integration, n)
	for i := range integrations {
		visitOrder[i] = integrations[(startIndex+i)%n]
	}
	distribution := c.CalculateProviderDistribution(visitOrder, slotsToFill)

	var views []dto.TicketView
	hasMore := false
	carry := 0

	for _, integration := range visitOrder {
		slots := distribution[integration.ID] + carry
		carry = 0
		if slots <= 0 {
			// The page filled up before reaching this provider; it may still
			// hold data.
			hasMore = true
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, false, nil, err
		}

		client, err := c.registry.Get(integration.Provider)
		if err != nil {
			c.logger.Warn("skipping integration without provider client",
				zap.String("integration_id", integration.ID),
				zap.String("provider", string(integration.Provider)),
				zap.Error(err))
			c.metrics.RecordProviderFetchError(string(integration.Provider))
			carry = slots
			continue
		}

		result, err := client.FetchPage(ctx, integration, newState.ProviderTokens[integration.ID], slots)
		if err != nil {
			if ctx.Err() != nil {
				return nil, false, nil, ctx.Err()
			}
			c.logger.Warn("provider fetch failed, skipping for this page",
				zap.String("integration_id", integration.ID),
				zap.String("provider", string(integration.Provider)),
				zap.Error(err))
			c.metrics.RecordProviderFetchError(string(integration.Provider))
			carry = slots
			continue
		}

		items := result.Items
		if len(items) > slots {
			items = items[:slots]
		}
		mapped, err := c.mapProjections(ctx, integration, items)
		if err != nil {
			return nil, false, nil, err
		}
		views = append(views, mapped...)
		carry = slots - len(items)

		newState.ProviderTokens[integration.ID] = result.NextToken
		newState.TotalExternalFetched += len(items)
		if result.HasMore {
			hasMore = true
		}
	}

	// Rotate the starting provider so the first-visit budget bonus moves
	// across integrations page over page.
	newState.CurrentProviderIndex = (startIndex + 1) % n

	return views, hasMore, newState, nil
}

// mapProjections resolves materialized counterparts in one batch and merges
// each projection through the view mapper.
func (c *ExternalFetchCoordinator) mapProjections(ctx context.Context, integration domain.Integration, items []provider.TicketProjection) ([]dto.TicketView, error) {
	if len(items) == 0 {
		return nil, nil
	}
	externalIDs := make([]string, 0, len(items))
	for _, item := range items {
		externalIDs = append(externalIDs, item.ExternalID)
	}
	materialized, err := c.tickets.ListByExternalRefs(ctx, integration.ID, externalIDs)
	if err != nil {
		return nil, err
	}
	byExternalID := make(map[string]*domain.Ticket, len(materialized))
	for i := range materialized {
		if materialized[i].ExternalTicketID != nil {
			byExternalID[*materialized[i].ExternalTicketID] = &materialized[i]
		}
	}

	views := make([]dto.TicketView, 0, len(items))
	for _, item := range items {
		local := byExternalID[item.ExternalID]
		var localComments []domain.Comment
		if local != nil {
			localComments, err = c.comments.ListByTicket(ctx, local.ID)
			if err != nil {
				return nil, err
			}
		}
		view, err := c.mapper.MapExternalTicketToView(ctx, integration, item, local, localComments)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func cloneExternalState(state *pagination.ExternalPageState) *pagination.ExternalPageState {
	clone := &pagination.ExternalPageState{
		ProviderTokens: make(map[string]*string),
	}
	if state != nil {
		clone.CurrentProviderIndex = state.CurrentProviderIndex
		clone.TotalExternalFetched = state.TotalExternalFetched
		for id, token := range state.ProviderTokens {
			clone.ProviderTokens[id] = token
		}
	}
	return clone
}
