package service

import (
	"context"
	"strings"

	"github.com/spec-kit/ticket-hub/internal/domain"
	"github.com/spec-kit/ticket-hub/internal/repository"
	apperrors "github.com/spec-kit/ticket-hub/pkg/util"
)

// LookupService administers the status/priority vocabularies, invalidating
// the shared cache on writes.
type LookupService struct {
	repo  repository.LookupRepository
	cache *LookupCache
}

// NewLookupService constructs the service.
func NewLookupService(repo repository.LookupRepository, cache *LookupCache) *LookupService {
	return &LookupService{repo: repo, cache: cache}
}

// ListStatuses returns cached status rows.
func (s *LookupService) ListStatuses(ctx context.Context) ([]domain.TicketStatus, error) {
	return s.cache.Statuses(ctx)
}

// ListPriorities returns cached priority rows.
func (s *LookupService) ListPriorities(ctx context.Context) ([]domain.TicketPriority, error) {
	return s.cache.Priorities(ctx)
}

// CreateStatus adds a status row and invalidates the cache.
func (s *LookupService) CreateStatus(ctx context.Context, name, color string) (*domain.TicketStatus, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	status := &domain.TicketStatus{Name: name, Color: color}
	if err := s.repo.CreateStatus(ctx, status); err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return status, nil
}

// CreatePriority adds a priority row and invalidates the cache.
func (s *LookupService) CreatePriority(ctx context.Context, name, color string, value int) (*domain.TicketPriority, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	priority := &domain.TicketPriority{Name: name, Color: color, Value: value}
	if err := s.repo.CreatePriority(ctx, priority); err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return priority, nil
}
