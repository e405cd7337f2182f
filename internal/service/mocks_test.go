package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-hub/internal/domain"
	"github.com/spec-kit/ticket-hub/internal/observability"
	"github.com/spec-kit/ticket-hub/internal/provider"
)

type fakeTicketRepo struct {
	CreateFunc                  func(ctx context.Context, ticket *domain.Ticket) error
	UpdateFunc                  func(ctx context.Context, ticket *domain.Ticket) error
	GetByIDFunc                 func(ctx context.Context, id string) (*domain.Ticket, error)
	GetByExternalRefFunc        func(ctx context.Context, integrationID, externalTicketID string) (*domain.Ticket, error)
	ListInternalByWorkspaceFunc func(ctx context.Context, workspaceID string, limit, offset int) ([]domain.Ticket, error)
	ListByExternalRefsFunc      func(ctx context.Context, integrationID string, externalIDs []string) ([]domain.Ticket, error)
	DeleteFunc                  func(ctx context.Context, id string) error
}

func (f *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, ticket)
	}
	return nil
}

func (f *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, ticket)
	}
	return nil
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) GetByExternalRef(ctx context.Context, integrationID, externalTicketID string) (*domain.Ticket, error) {
	if f.GetByExternalRefFunc != nil {
		return f.GetByExternalRefFunc(ctx, integrationID, externalTicketID)
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) ListInternalByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]domain.Ticket, error) {
	if f.ListInternalByWorkspaceFunc != nil {
		return f.ListInternalByWorkspaceFunc(ctx, workspaceID, limit, offset)
	}
	return nil, nil
}

func (f *fakeTicketRepo) ListByExternalRefs(ctx context.Context, integrationID string, externalIDs []string) ([]domain.Ticket, error) {
	if f.ListByExternalRefsFunc != nil {
		return f.ListByExternalRefsFunc(ctx, integrationID, externalIDs)
	}
	return nil, nil
}

func (f *fakeTicketRepo) Delete(ctx context.Context, id string) error {
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	return nil
}

type fakeCommentRepo struct {
	CreateFunc       func(ctx context.Context, comment *domain.Comment) error
	ListByTicketFunc func(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

func (f *fakeCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, comment)
	}
	return nil
}

func (f *fakeCommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	if f.ListByTicketFunc != nil {
		return f.ListByTicketFunc(ctx, ticketID)
	}
	return nil, nil
}

type fakeLookupRepo struct {
	ListStatusesFunc   func(ctx context.Context) ([]domain.TicketStatus, error)
	ListPrioritiesFunc func(ctx context.Context) ([]domain.TicketPriority, error)
	CreateStatusFunc   func(ctx context.Context, status *domain.TicketStatus) error
	CreatePriorityFunc func(ctx context.Context, priority *domain.TicketPriority) error
}

func (f *fakeLookupRepo) ListStatuses(ctx context.Context) ([]domain.TicketStatus, error) {
	if f.ListStatusesFunc != nil {
		return f.ListStatusesFunc(ctx)
	}
	return nil, nil
}

func (f *fakeLookupRepo) ListPriorities(ctx context.Context) ([]domain.TicketPriority, error) {
	if f.ListPrioritiesFunc != nil {
		return f.ListPrioritiesFunc(ctx)
	}
	return nil, nil
}

func (f *fakeLookupRepo) CreateStatus(ctx context.Context, status *domain.TicketStatus) error {
	if f.CreateStatusFunc != nil {
		return f.CreateStatusFunc(ctx, status)
	}
	return nil
}

func (f *fakeLookupRepo) CreatePriority(ctx context.Context, priority *domain.TicketPriority) error {
	if f.CreatePriorityFunc != nil {
		return f.CreatePriorityFunc(ctx, priority)
	}
	return nil
}

type fakeIntegrationRepo struct {
	GetByIDFunc         func(ctx context.Context, id string) (*domain.Integration, error)
	ListByWorkspaceFunc func(ctx context.Context, workspaceID string) ([]domain.Integration, error)
}

func (f *fakeIntegrationRepo) GetByID(ctx context.Context, id string) (*domain.Integration, error) {
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeIntegrationRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Integration, error) {
	if f.ListByWorkspaceFunc != nil {
		return f.ListByWorkspaceFunc(ctx, workspaceID)
	}
	return nil, nil
}

type fakeProvider struct {
	FetchPageFunc  func(ctx context.Context, integration domain.Integration, nativeToken *string, limit int) (provider.FetchResult, error)
	AddCommentFunc func(ctx context.Context, integration domain.Integration, externalTicketID, body, authorName string) (domain.Comment, error)
}

func (f *fakeProvider) FetchPage(ctx context.Context, integration domain.Integration, nativeToken *string, limit int) (provider.FetchResult, error) {
	if f.FetchPageFunc != nil {
		return f.FetchPageFunc(ctx, integration, nativeToken, limit)
	}
	return provider.FetchResult{}, nil
}

func (f *fakeProvider) AddComment(ctx context.Context, integration domain.Integration, externalTicketID, body, authorName string) (domain.Comment, error) {
	if f.AddCommentFunc != nil {
		return f.AddCommentFunc(ctx, integration, externalTicketID, body, authorName)
	}
	return domain.Comment{}, nil
}

type fakeScorer struct {
	calls         int
	ScoreBatchFunc func(ctx context.Context, requests []ScoreRequest) ([]ScoreResult, error)
}

func (f *fakeScorer) ScoreBatch(ctx context.Context, requests []ScoreRequest) ([]ScoreResult, error) {
	f.calls++
	if f.ScoreBatchFunc != nil {
		return f.ScoreBatchFunc(ctx, requests)
	}
	return nil, nil
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetrics(prometheus.NewRegistry())
}

func newTestMapper(lookupRepo *fakeLookupRepo) *TicketViewMapper {
	if lookupRepo == nil {
		lookupRepo = &fakeLookupRepo{}
	}
	return NewTicketViewMapper(NewLookupCache(lookupRepo, time.Hour), zap.NewNop())
}

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}
