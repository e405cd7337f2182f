package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-hub/internal/domain"
	"github.com/spec-kit/ticket-hub/internal/provider"
	"github.com/spec-kit/ticket-hub/internal/repository"
)

func newTestMaterializer(tickets *fakeTicketRepo, priorities []domain.TicketPriority) *TicketMaterializer {
	lookupRepo := &fakeLookupRepo{
		ListPrioritiesFunc: func(context.Context) ([]domain.TicketPriority, error) {
			return priorities, nil
		},
	}
	return NewTicketMaterializer(tickets, NewLookupCache(lookupRepo, time.Hour), zap.NewNop())
}

func TestMaterializeIdempotent(t *testing.T) {
	var stored *domain.Ticket
	creates := 0
	tickets := &fakeTicketRepo{
		GetByExternalRefFunc: func(_ context.Context, integrationID, externalTicketID string) (*domain.Ticket, error) {
			if stored != nil && *stored.IntegrationID == integrationID && *stored.ExternalTicketID == externalTicketID {
				return stored, nil
			}
			return nil, pgx.ErrNoRows
		},
		CreateFunc: func(_ context.Context, ticket *domain.Ticket) error {
			creates++
			ticket.ID = "t-1"
			stored = ticket
			return nil
		},
	}
	materializer := newTestMaterializer(tickets, nil)
	projection := provider.TicketProjection{Title: "broken login", PriorityValue: 3}

	first, err := materializer.MaterializeFromExternal(context.Background(), "int-1", "JIRA-9", "ws-1", projection, nil, nil)
	if err != nil {
		t.Fatalf("first materialize: %v", err)
	}
	second, err := materializer.MaterializeFromExternal(context.Background(), "int-1", "JIRA-9", "ws-1", projection, nil, nil)
	if err != nil {
		t.Fatalf("second materialize: %v", err)
	}

	if creates != 1 {
		t.Fatalf("expected exactly one insert, got %d", creates)
	}
	if first.ID != second.ID {
		t.Fatalf("repeat materialize must return the same record: %s vs %s", first.ID, second.ID)
	}
	if second.IsInternal {
		t.Fatal("materialized ticket must not be internal")
	}
}

func TestMaterializeAdoptsRaceWinner(t *testing.T) {
	winner := &domain.Ticket{
		ID:               "t-winner",
		WorkspaceID:      "ws-1",
		IntegrationID:    strPtr("int-1"),
		ExternalTicketID: strPtr("JIRA-9"),
	}
	lookups := 0
	tickets := &fakeTicketRepo{
		GetByExternalRefFunc: func(context.Context, string, string) (*domain.Ticket, error) {
			lookups++
			if lookups == 1 {
				// Not there yet when we first look.
				return nil, pgx.ErrNoRows
			}
			return winner, nil
		},
		CreateFunc: func(context.Context, *domain.Ticket) error {
			return repository.ErrDuplicateExternalTicket
		},
	}
	materializer := newTestMaterializer(tickets, nil)

	got, err := materializer.MaterializeFromExternal(context.Background(), "int-1", "JIRA-9", "ws-1", provider.TicketProjection{Title: "x"}, nil, nil)
	if err != nil {
		t.Fatalf("losing the race must not surface an error: %v", err)
	}
	if got.ID != winner.ID {
		t.Fatalf("loser must adopt the winner's record, got %s", got.ID)
	}
}

func TestMapExternalPriorityToInternal(t *testing.T) {
	priorities := []domain.TicketPriority{
		{ID: "p1", Name: "Low", Value: 1},
		{ID: "p2", Name: "Medium", Value: 2},
		{ID: "p3", Name: "High", Value: 3},
		{ID: "p4", Name: "Critical", Value: 4},
	}
	materializer := newTestMaterializer(&fakeTicketRepo{}, priorities)

	cases := []struct {
		external float64
		wantID   string
	}{
		{2.9, "p3"},
		{3.1, "p3"},
		{2.5, "p2"}, // equidistant, lower value wins
		{3.5, "p3"},
		{0, "p1"},
		{99, "p4"},
	}
	for _, tc := range cases {
		got, err := materializer.MapExternalPriorityToInternal(context.Background(), tc.external)
		if err != nil {
			t.Fatalf("external=%v: %v", tc.external, err)
		}
		if got == nil || got.ID != tc.wantID {
			t.Errorf("external=%v: got %+v, want %s", tc.external, got, tc.wantID)
		}
	}
}

func TestMapExternalPriorityNoPriorities(t *testing.T) {
	materializer := newTestMaterializer(&fakeTicketRepo{}, nil)
	got, err := materializer.MapExternalPriorityToInternal(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil when no local priorities exist, got %+v", got)
	}
}
