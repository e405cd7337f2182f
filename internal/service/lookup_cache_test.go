package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/ticket-hub/internal/domain"
)

func TestLookupCacheReadThrough(t *testing.T) {
	listCalls := 0
	repo := &fakeLookupRepo{
		ListStatusesFunc: func(context.Context) ([]domain.TicketStatus, error) {
			listCalls++
			return []domain.TicketStatus{{ID: "st-1", Name: "To Do"}}, nil
		},
	}
	cache := NewLookupCache(repo, time.Hour)

	for i := 0; i < 3; i++ {
		statuses, err := cache.Statuses(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(statuses) != 1 {
			t.Fatalf("got %d statuses, want 1", len(statuses))
		}
	}
	if listCalls != 1 {
		t.Fatalf("expected one storage read within TTL, got %d", listCalls)
	}

	cache.Invalidate()
	if _, err := cache.Statuses(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if listCalls != 2 {
		t.Fatalf("invalidation must force a re-read, got %d calls", listCalls)
	}
}

func TestLookupCacheByID(t *testing.T) {
	repo := &fakeLookupRepo{
		ListPrioritiesFunc: func(context.Context) ([]domain.TicketPriority, error) {
			return []domain.TicketPriority{{ID: "pr-1", Name: "High", Value: 3}}, nil
		},
	}
	cache := NewLookupCache(repo, time.Hour)

	priority, err := cache.PriorityByID(context.Background(), "pr-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if priority == nil || priority.Name != "High" {
		t.Fatalf("got %+v, want High", priority)
	}

	unknown, err := cache.PriorityByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unknown != nil {
		t.Fatalf("unknown id must resolve to nil, got %+v", unknown)
	}
}
