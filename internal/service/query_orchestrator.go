package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-hub/internal/api/dto"
	"github.com/spec-kit/ticket-hub/internal/pagination"
	"github.com/spec-kit/ticket-hub/internal/repository"
)

// TicketSummarizer is the black-box single-ticket summarization call. Unlike
// sentiment scoring it has no safe default text, so failures propagate.
type TicketSummarizer interface {
	Summarize(ctx context.Context, title, description string, comments []string) (string, error)
}

// QueryOrchestrator answers "give me page N of workspace W's tickets". It
// owns the internal→external phase handoff and enriches each page with
// satisfaction scores.
type QueryOrchestrator struct {
	tickets      repository.TicketRepository
	comments     repository.CommentRepository
	integrations repository.IntegrationRepository
	codec        *pagination.TokenCodec
	coordinator  *ExternalFetchCoordinator
	mapper       *TicketViewMapper
	sentiment    *SentimentCache
	logger       *zap.Logger
}

// OrchestratorDependencies bundles collaborators for the orchestrator.
type OrchestratorDependencies struct {
	TicketRepo      repository.TicketRepository
	CommentRepo     repository.CommentRepository
	IntegrationRepo repository.IntegrationRepository
	Codec           *pagination.TokenCodec
	Coordinator     *ExternalFetchCoordinator
	Mapper          *TicketViewMapper
	Sentiment       *SentimentCache
	Logger          *zap.Logger
}

// NewQueryOrchestrator constructs the orchestrator.
func NewQueryOrchestrator(deps OrchestratorDependencies) *QueryOrchestrator {
	return &QueryOrchestrator{
		tickets:      deps.TicketRepo,
		comments:     deps.CommentRepo,
		integrations: deps.IntegrationRepo,
		codec:        deps.Codec,
		coordinator:  deps.Coordinator,
		mapper:       deps.Mapper,
		sentiment:    deps.Sentiment,
		logger:       deps.Logger,
	}
}

// ListWorkspaceTickets serves one page of the aggregated stream. The
// internal phase pages durable tickets by offset; once exhausted, the phase
// flips to external and the remaining slots are filled by the fetch
// coordinator. The returned token is nil on the terminal page.
func (o *QueryOrchestrator) ListWorkspaceTickets(ctx context.Context, workspaceID, rawToken string, pageSize int) (*dto.TicketPage, error) {
	size := pagination.NormalizePageSize(pageSize)
	token := o.codec.Decode(rawToken)

	var items []dto.TicketView
	var nextToken *pagination.ContinuationToken

	switch token.Phase {
	case pagination.PhaseInternal:
		internal, err := o.tickets.ListInternalByWorkspace(ctx, workspaceID, size, token.InternalOffset)
		if err != nil {
			return nil, err
		}
		for i := range internal {
			comments, err := o.comments.ListByTicket(ctx, internal[i].ID)
			if err != nil {
				return nil, err
			}
			view, err := o.mapper.MapInternalTicketToView(ctx, internal[i], comments)
			if err != nil {
				return nil, err
			}
			items = append(items, view)
		}

		if len(internal) == size {
			nextToken = &pagination.ContinuationToken{
				Phase:          pagination.PhaseInternal,
				InternalOffset: token.InternalOffset + size,
			}
			break
		}

		// Internal set exhausted mid-page: flip to external and fill the
		// remaining slots in the same response.
		remaining := size - len(internal)
		external, hasMore, state, err := o.fetchExternalPage(ctx, workspaceID, remaining, nil)
		if err != nil {
			return nil, err
		}
		items = append(items, external...)
		if hasMore {
			nextToken = &pagination.ContinuationToken{
				Phase:          pagination.PhaseExternal,
				InternalOffset: token.InternalOffset + len(internal),
				External:       state,
			}
		}

	case pagination.PhaseExternal:
		external, hasMore, state, err := o.fetchExternalPage(ctx, workspaceID, size, token.External)
		if err != nil {
			return nil, err
		}
		items = append(items, external...)
		if hasMore {
			nextToken = &pagination.ContinuationToken{
				Phase:          pagination.PhaseExternal,
				InternalOffset: token.InternalOffset,
				External:       state,
			}
		}
	}

	o.enrichSatisfaction(ctx, workspaceID, items)

	page := &dto.TicketPage{
		Items:    items,
		PageSize: size,
	}
	if page.Items == nil {
		page.Items = []dto.TicketView{}
	}
	if nextToken != nil {
		page.NextPageToken = o.codec.Encode(*nextToken)
	}
	return page, nil
}

func (o *QueryOrchestrator) fetchExternalPage(ctx context.Context, workspaceID string, slots int, state *pagination.ExternalPageState) ([]dto.TicketView, bool, *pagination.ExternalPageState, error) {
	integrations, err := o.integrations.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, false, nil, err
	}
	return o.coordinator.FetchExternalTickets(ctx, integrations, slots, state)
}

// enrichSatisfaction applies the scoring policy: purely internal tickets and
// tickets without meaningful comment text get the neutral score directly and
// never reach the cache or the scorer.
func (o *QueryOrchestrator) enrichSatisfaction(ctx context.Context, workspaceID string, items []dto.TicketView) {
	var requests []ScoreRequest
	indexByTicket := make(map[string]int)

	for i := range items {
		items[i].SatisfactionScore = DefaultSatisfactionScore
		if items[i].IsInternal {
			continue
		}
		comments := meaningfulCommentBodies(items[i].Comments)
		if len(comments) == 0 {
			continue
		}
		indexByTicket[items[i].ID] = i
		requests = append(requests, ScoreRequest{
			WorkspaceID: workspaceID,
			TicketID:    items[i].ID,
			Comments:    comments,
		})
	}

	if len(requests) == 0 {
		return
	}
	for _, result := range o.sentiment.AnalyzeBatch(ctx, requests) {
		if i, ok := indexByTicket[result.TicketID]; ok {
			items[i].SatisfactionScore = result.Score
		}
	}
}

func meaningfulCommentBodies(comments []dto.CommentView) []string {
	var bodies []string
	for _, comment := range comments {
		if strings.TrimSpace(comment.Body) == "" {
			continue
		}
		bodies = append(bodies, comment.Body)
	}
	return bodies
}
