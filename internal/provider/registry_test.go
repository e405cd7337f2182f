package provider

import (
	"context"
	"testing"

	"github.com/spec-kit/ticket-hub/internal/domain"
)

type nopProvider struct{}

func (nopProvider) FetchPage(context.Context, domain.Integration, *string, int) (FetchResult, error) {
	return FetchResult{}, nil
}

func (nopProvider) AddComment(context.Context, domain.Integration, string, string, string) (domain.Comment, error) {
	return domain.Comment{}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	registry.Register(domain.ProviderJira, nopProvider{})

	if _, err := registry.Get(domain.ProviderJira); err != nil {
		t.Fatalf("registered provider not found: %v", err)
	}
	if _, err := registry.Get(domain.ProviderLinear); err == nil {
		t.Fatal("expected error for unregistered provider type")
	}
}
