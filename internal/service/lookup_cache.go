package service

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/ticket-hub/internal/domain"
	"github.com/spec-kit/ticket-hub/internal/repository"
)

// LookupCache is a TTL read-through cache over the status and priority
// lookup tables. It is shared process-wide and safe for concurrent readers
// and writers; the durable store remains the source of truth.
type LookupCache struct {
	repo repository.LookupRepository
	ttl  time.Duration

	mu           sync.RWMutex
	statuses     []domain.TicketStatus
	statusesAt   time.Time
	priorities   []domain.TicketPriority
	prioritiesAt time.Time
}

// NewLookupCache constructs the cache with the given time-to-live.
func NewLookupCache(repo repository.LookupRepository, ttl time.Duration) *LookupCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LookupCache{repo: repo, ttl: ttl}
}

// Statuses returns all ticket statuses, refreshing from storage when stale.
func (c *LookupCache) Statuses(ctx context.Context) ([]domain.TicketStatus, error) {
	c.mu.RLock()
	if time.Since(c.statusesAt) < c.ttl {
		cached := c.statuses
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	rows, err := c.repo.ListStatuses(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.statuses = rows
	c.statusesAt = time.Now()
	c.mu.Unlock()
	return rows, nil
}

// Priorities returns all ticket priorities, refreshing from storage when stale.
func (c *LookupCache) Priorities(ctx context.Context) ([]domain.TicketPriority, error) {
	c.mu.RLock()
	if time.Since(c.prioritiesAt) < c.ttl {
		cached := c.priorities
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	rows, err := c.repo.ListPriorities(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.priorities = rows
	c.prioritiesAt = time.Now()
	c.mu.Unlock()
	return rows, nil
}

// StatusByID resolves one status, or nil when unknown.
func (c *LookupCache) StatusByID(ctx context.Context, id string) (*domain.TicketStatus, error) {
	statuses, err := c.Statuses(ctx)
	if err != nil {
		return nil, err
	}
	for i := range statuses {
		if statuses[i].ID == id {
			return &statuses[i], nil
		}
	}
	return nil, nil
}

// PriorityByID resolves one priority, or nil when unknown.
func (c *LookupCache) PriorityByID(ctx context.Context, id string) (*domain.TicketPriority, error) {
	priorities, err := c.Priorities(ctx)
	if err != nil {
		return nil, err
	}
	for i := range priorities {
		if priorities[i].ID == id {
			return &priorities[i], nil
		}
	}
	return nil, nil
}

// Invalidate drops cached entries after a write to the lookup tables.
func (c *LookupCache) Invalidate() {
	c.mu.Lock()
	c.statusesAt = time.Time{}
	c.prioritiesAt = time.Time{}
	c.mu.Unlock()
}
