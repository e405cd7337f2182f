package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-hub/internal/domain"
	"github.com/spec-kit/ticket-hub/internal/pagination"
	"github.com/spec-kit/ticket-hub/internal/provider"
)

type orchestratorFixture struct {
	tickets      *fakeTicketRepo
	comments     *fakeCommentRepo
	integrations *fakeIntegrationRepo
	provider     *fakeProvider
	scorer       *fakeScorer
	codec        *pagination.TokenCodec
	orchestrator *QueryOrchestrator
}

func newOrchestratorFixture() *orchestratorFixture {
	f := &orchestratorFixture{
		tickets:      &fakeTicketRepo{},
		comments:     &fakeCommentRepo{},
		integrations: &fakeIntegrationRepo{},
		provider:     &fakeProvider{},
		scorer:       &fakeScorer{},
		codec:        pagination.NewTokenCodec(zap.NewNop()),
	}
	registry := provider.NewRegistry()
	registry.Register(domain.ProviderJira, f.provider)
	mapper := newTestMapper(nil)
	metrics := newTestMetrics()

	coordinator := NewExternalFetchCoordinator(FetchCoordinatorDependencies{
		Registry:    registry,
		TicketRepo:  f.tickets,
		CommentRepo: f.comments,
		Mapper:      mapper,
		Metrics:     metrics,
		Logger:      zap.NewNop(),
	})
	f.orchestrator = NewQueryOrchestrator(OrchestratorDependencies{
		TicketRepo:      f.tickets,
		CommentRepo:     f.comments,
		IntegrationRepo: f.integrations,
		Codec:           f.codec,
		Coordinator:     coordinator,
		Mapper:          mapper,
		Sentiment:       NewSentimentCache(f.scorer, nil, metrics, zap.NewNop()),
		Logger:          zap.NewNop(),
	})
	return f
}

func internalTickets(n int) []domain.Ticket {
	tickets := make([]domain.Ticket, 0, n)
	for i := 0; i < n; i++ {
		tickets = append(tickets, domain.Ticket{
			ID:          fmt.Sprintf("t-%d", i),
			WorkspaceID: "ws-1",
			Title:       fmt.Sprintf("internal %d", i),
			IsInternal:  true,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		})
	}
	return tickets
}

func TestListInternalOnlySkipsScorer(t *testing.T) {
	f := newOrchestratorFixture()
	f.tickets.ListInternalByWorkspaceFunc = func(_ context.Context, _ string, limit, offset int) ([]domain.Ticket, error) {
		return internalTickets(2), nil
	}

	page, err := f.orchestrator.ListWorkspaceTickets(context.Background(), "ws-1", "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(page.Items))
	}
	for _, item := range page.Items {
		if item.SatisfactionScore != DefaultSatisfactionScore {
			t.Errorf("internal ticket score = %d, want %d", item.SatisfactionScore, DefaultSatisfactionScore)
		}
	}
	if f.scorer.calls != 0 {
		t.Fatalf("internal tickets must never reach the scorer, got %d calls", f.scorer.calls)
	}
	if page.NextPageToken != nil {
		t.Fatal("no integrations and exhausted internal set means terminal page")
	}
}

func TestListFullInternalPageIssuesInternalToken(t *testing.T) {
	f := newOrchestratorFixture()
	var gotLimit, gotOffset int
	f.tickets.ListInternalByWorkspaceFunc = func(_ context.Context, _ string, limit, offset int) ([]domain.Ticket, error) {
		gotLimit, gotOffset = limit, offset
		return internalTickets(limit), nil
	}

	page, err := f.orchestrator.ListWorkspaceTickets(context.Background(), "ws-1", "", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != 3 || gotOffset != 0 {
		t.Fatalf("first page should query limit=3 offset=0, got limit=%d offset=%d", gotLimit, gotOffset)
	}
	if page.NextPageToken == nil {
		t.Fatal("full internal page must produce a continuation token")
	}
	token := f.codec.Decode(*page.NextPageToken)
	if token.Phase != pagination.PhaseInternal || token.InternalOffset != 3 {
		t.Fatalf("expected internal token at offset 3, got %+v", token)
	}
}

func TestListFlipsToExternalMidPage(t *testing.T) {
	f := newOrchestratorFixture()
	f.tickets.ListInternalByWorkspaceFunc = func(_ context.Context, _ string, limit, offset int) ([]domain.Ticket, error) {
		return internalTickets(1), nil
	}
	f.integrations.ListByWorkspaceFunc = func(context.Context, string) ([]domain.Integration, error) {
		return []domain.Integration{{ID: "int-1", WorkspaceID: "ws-1", Provider: domain.ProviderJira, BaseURL: "https://x.example"}}, nil
	}
	f.provider.FetchPageFunc = func(_ context.Context, _ domain.Integration, _ *string, limit int) (provider.FetchResult, error) {
		items := make([]provider.TicketProjection, 0, limit)
		for i := 0; i < limit; i++ {
			items = append(items, provider.TicketProjection{ExternalID: fmt.Sprintf("KEY-%d", i), Title: "ext"})
		}
		return provider.FetchResult{Items: items, HasMore: true}, nil
	}

	page, err := f.orchestrator.ListWorkspaceTickets(context.Background(), "ws-1", "", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 4 {
		t.Fatalf("mid-page flip should fill the page: got %d items", len(page.Items))
	}
	if page.Items[0].Source != "internal" || page.Items[1].Source != "external" {
		t.Fatalf("internal results must precede external ones: %v then %v", page.Items[0].Source, page.Items[1].Source)
	}
	if page.NextPageToken == nil {
		t.Fatal("provider reported more data, expected a token")
	}
	token := f.codec.Decode(*page.NextPageToken)
	if token.Phase != pagination.PhaseExternal {
		t.Fatalf("expected external phase token, got %+v", token)
	}
	if token.InternalOffset != 1 {
		t.Fatalf("token must remember how many internal rows were consumed, got %d", token.InternalOffset)
	}
	if token.External == nil {
		t.Fatal("external token must carry provider state")
	}
}

func TestListExternalPhaseUsesCarriedState(t *testing.T) {
	f := newOrchestratorFixture()
	var listInternalCalls int
	f.tickets.ListInternalByWorkspaceFunc = func(context.Context, string, int, int) ([]domain.Ticket, error) {
		listInternalCalls++
		return nil, nil
	}
	f.integrations.ListByWorkspaceFunc = func(context.Context, string) ([]domain.Integration, error) {
		return []domain.Integration{{ID: "int-1", WorkspaceID: "ws-1", Provider: domain.ProviderJira, BaseURL: "https://x.example"}}, nil
	}
	var receivedToken *string
	f.provider.FetchPageFunc = func(_ context.Context, _ domain.Integration, nativeToken *string, limit int) (provider.FetchResult, error) {
		receivedToken = nativeToken
		return provider.FetchResult{
			Items:   []provider.TicketProjection{{ExternalID: "KEY-9"}},
			HasMore: false,
		}, nil
	}

	cursor := "jira-page-2"
	raw := f.codec.Encode(pagination.ContinuationToken{
		Phase:          pagination.PhaseExternal,
		InternalOffset: 20,
		External: &pagination.ExternalPageState{
			ProviderTokens: map[string]*string{"int-1": &cursor},
		},
	})

	page, err := f.orchestrator.ListWorkspaceTickets(context.Background(), "ws-1", *raw, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if listInternalCalls != 0 {
		t.Fatal("external phase must not touch internal listing")
	}
	if receivedToken == nil || *receivedToken != cursor {
		t.Fatalf("provider must receive its carried native token, got %v", receivedToken)
	}
	if page.NextPageToken != nil {
		t.Fatal("exhausted providers mean terminal page")
	}
	if len(page.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(page.Items))
	}
}

func TestListMalformedTokenRestartsQuery(t *testing.T) {
	f := newOrchestratorFixture()
	var gotOffset = -1
	f.tickets.ListInternalByWorkspaceFunc = func(_ context.Context, _ string, limit, offset int) ([]domain.Ticket, error) {
		gotOffset = offset
		return nil, nil
	}

	if _, err := f.orchestrator.ListWorkspaceTickets(context.Background(), "ws-1", "@@not-a-token@@", 10); err != nil {
		t.Fatalf("malformed tokens must not error: %v", err)
	}
	if gotOffset != 0 {
		t.Fatalf("malformed token must restart from offset 0, got %d", gotOffset)
	}
}

func TestListScoresExternalTicketsWithComments(t *testing.T) {
	f := newOrchestratorFixture()
	f.integrations.ListByWorkspaceFunc = func(context.Context, string) ([]domain.Integration, error) {
		return []domain.Integration{{ID: "int-1", WorkspaceID: "ws-1", Provider: domain.ProviderJira, BaseURL: "https://x.example"}}, nil
	}
	f.provider.FetchPageFunc = func(context.Context, domain.Integration, *string, int) (provider.FetchResult, error) {
		return provider.FetchResult{Items: []provider.TicketProjection{
			{ExternalID: "KEY-1", Comments: []provider.ExternalComment{{AuthorName: "a", Body: "very unhappy"}}},
			{ExternalID: "KEY-2", Comments: []provider.ExternalComment{{AuthorName: "b", Body: "   "}}},
		}}, nil
	}
	f.scorer.ScoreBatchFunc = scoreAll(15)

	page, err := f.orchestrator.ListWorkspaceTickets(context.Background(), "ws-1", "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(page.Items))
	}
	byID := map[string]int{}
	for _, item := range page.Items {
		byID[item.ID] = item.SatisfactionScore
	}
	if byID["int-1:KEY-1"] != 15 {
		t.Errorf("commented external ticket should carry the scorer result, got %d", byID["int-1:KEY-1"])
	}
	if byID["int-1:KEY-2"] != DefaultSatisfactionScore {
		t.Errorf("whitespace-only comments must not be scored, got %d", byID["int-1:KEY-2"])
	}
	if f.scorer.calls != 1 {
		t.Fatalf("expected a single batched scorer call, got %d", f.scorer.calls)
	}
}
