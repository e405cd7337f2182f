package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-hub/internal/domain"
	"github.com/spec-kit/ticket-hub/internal/provider"
	apperrors "github.com/spec-kit/ticket-hub/pkg/util"
)

type ticketServiceFixture struct {
	tickets      *fakeTicketRepo
	comments     *fakeCommentRepo
	integrations *fakeIntegrationRepo
	provider     *fakeProvider
	service      *TicketService
}

func newTicketServiceFixture() *ticketServiceFixture {
	f := &ticketServiceFixture{
		tickets:      &fakeTicketRepo{},
		comments:     &fakeCommentRepo{},
		integrations: &fakeIntegrationRepo{},
		provider:     &fakeProvider{},
	}
	registry := provider.NewRegistry()
	registry.Register(domain.ProviderJira, f.provider)
	mapper := newTestMapper(nil)

	f.service = NewTicketService(TicketDependencies{
		TicketRepo:      f.tickets,
		CommentRepo:     f.comments,
		IntegrationRepo: f.integrations,
		WorkspaceRepo:   &fakeWorkspaceRepo{},
		Registry:        registry,
		Materializer:    NewTicketMaterializer(f.tickets, NewLookupCache(&fakeLookupRepo{}, 0), zap.NewNop()),
		Mapper:          mapper,
		Logger:          zap.NewNop(),
	})
	return f
}

type fakeWorkspaceRepo struct {
	GetByIDFunc func(ctx context.Context, id string) (*domain.Workspace, error)
}

func (f *fakeWorkspaceRepo) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return &domain.Workspace{ID: id, Name: "test"}, nil
}

func domainErrorCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected domain error, got %v", err)
	}
	return domainErr.Code
}

func TestCreateTicketRequiresTitle(t *testing.T) {
	f := newTicketServiceFixture()
	_, err := f.service.CreateTicket(context.Background(), "ws-1", nil, TicketCreateInput{Title: "   "})
	if code := domainErrorCode(t, err); code != "VALIDATION_FAILED" {
		t.Fatalf("expected validation failure, got %s", code)
	}
}

func TestDeleteExternalTicketForbidden(t *testing.T) {
	f := newTicketServiceFixture()
	f.tickets.GetByExternalRefFunc = func(context.Context, string, string) (*domain.Ticket, error) {
		return &domain.Ticket{
			ID:               "t-1",
			WorkspaceID:      "ws-1",
			IsInternal:       false,
			IntegrationID:    strPtr("int-1"),
			ExternalTicketID: strPtr("KEY-1"),
		}, nil
	}

	err := f.service.DeleteTicket(context.Background(), "ws-1", "int-1:KEY-1", nil)
	if code := domainErrorCode(t, err); code != "FORBIDDEN" {
		t.Fatalf("external-origin tickets must not be deletable, got %s", code)
	}
}

func TestDeleteInternalTicket(t *testing.T) {
	f := newTicketServiceFixture()
	deleted := ""
	f.tickets.GetByIDFunc = func(_ context.Context, id string) (*domain.Ticket, error) {
		return &domain.Ticket{ID: id, WorkspaceID: "ws-1", IsInternal: true}, nil
	}
	f.tickets.DeleteFunc = func(_ context.Context, id string) error {
		deleted = id
		return nil
	}

	if err := f.service.DeleteTicket(context.Background(), "ws-1", "t-9", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "t-9" {
		t.Fatalf("delete not issued, got %q", deleted)
	}
}

func TestGetTicketWorkspaceMismatch(t *testing.T) {
	f := newTicketServiceFixture()
	f.tickets.GetByIDFunc = func(_ context.Context, id string) (*domain.Ticket, error) {
		return &domain.Ticket{ID: id, WorkspaceID: "ws-other", IsInternal: true}, nil
	}

	_, _, err := f.service.GetTicket(context.Background(), "ws-1", "t-1")
	if code := domainErrorCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("cross-workspace reads must look like not-found, got %s", code)
	}
}

func TestAddCommentUnmaterializedExternal(t *testing.T) {
	f := newTicketServiceFixture()
	f.integrations.GetByIDFunc = func(_ context.Context, id string) (*domain.Integration, error) {
		return &domain.Integration{ID: id, WorkspaceID: "ws-1", Provider: domain.ProviderJira, BaseURL: "https://x.example"}, nil
	}
	posted := false
	f.provider.AddCommentFunc = func(_ context.Context, _ domain.Integration, externalTicketID, body, authorName string) (domain.Comment, error) {
		posted = true
		if externalTicketID != "KEY-1" {
			t.Errorf("wrong external ticket id %q", externalTicketID)
		}
		return domain.Comment{AuthorName: authorName, Body: body}, nil
	}
	localWrites := 0
	f.comments.CreateFunc = func(context.Context, *domain.Comment) error {
		localWrites++
		return nil
	}

	comment, err := f.service.AddComment(context.Background(), "ws-1", "int-1:KEY-1", "on it", "alice", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !posted {
		t.Fatal("comment must be posted through the provider")
	}
	if localWrites != 0 {
		t.Fatal("unmaterialized tickets keep no local thread copy")
	}
	if comment.Body != "on it" {
		t.Fatalf("comment body lost: %q", comment.Body)
	}
}

func TestAddCommentMaterializedExternalKeepsLocalCopy(t *testing.T) {
	f := newTicketServiceFixture()
	f.integrations.GetByIDFunc = func(_ context.Context, id string) (*domain.Integration, error) {
		return &domain.Integration{ID: id, WorkspaceID: "ws-1", Provider: domain.ProviderJira, BaseURL: "https://x.example"}, nil
	}
	f.provider.AddCommentFunc = func(_ context.Context, _ domain.Integration, _, body, authorName string) (domain.Comment, error) {
		return domain.Comment{AuthorName: authorName, Body: body}, nil
	}
	f.tickets.GetByExternalRefFunc = func(context.Context, string, string) (*domain.Ticket, error) {
		return &domain.Ticket{ID: "t-local", WorkspaceID: "ws-1"}, nil
	}
	var localCopy *domain.Comment
	f.comments.CreateFunc = func(_ context.Context, comment *domain.Comment) error {
		localCopy = comment
		return nil
	}

	if _, err := f.service.AddComment(context.Background(), "ws-1", "int-1:KEY-1", "fixed", "bob", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if localCopy == nil || localCopy.TicketID != "t-local" {
		t.Fatalf("materialized tickets keep a local copy of the thread, got %+v", localCopy)
	}
}

func TestAddCommentProviderFailure(t *testing.T) {
	f := newTicketServiceFixture()
	f.integrations.GetByIDFunc = func(_ context.Context, id string) (*domain.Integration, error) {
		return &domain.Integration{ID: id, WorkspaceID: "ws-1", Provider: domain.ProviderJira}, nil
	}
	f.provider.AddCommentFunc = func(context.Context, domain.Integration, string, string, string) (domain.Comment, error) {
		return domain.Comment{}, errors.New("tracker timeout")
	}

	_, err := f.service.AddComment(context.Background(), "ws-1", "int-1:KEY-1", "hello", "alice", nil)
	if code := domainErrorCode(t, err); code != "UPSTREAM_UNAVAILABLE" {
		t.Fatalf("tracker failures surface as upstream errors, got %s", code)
	}
}

func TestGetTicketUnmaterializedCompositeNotFound(t *testing.T) {
	f := newTicketServiceFixture()
	f.tickets.GetByExternalRefFunc = func(context.Context, string, string) (*domain.Ticket, error) {
		return nil, pgx.ErrNoRows
	}
	_, _, err := f.service.GetTicket(context.Background(), "ws-1", "int-1:KEY-404")
	if code := domainErrorCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("unmaterialized composite ids resolve to not-found, got %s", code)
	}
}
