package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-hub/internal/domain"
)

// LookupRepository persists the ticket status and priority lookup tables.
type LookupRepository interface {
	ListStatuses(ctx context.Context) ([]domain.TicketStatus, error)
	ListPriorities(ctx context.Context) ([]domain.TicketPriority, error)
	CreateStatus(ctx context.Context, status *domain.TicketStatus) error
	CreatePriority(ctx context.Context, priority *domain.TicketPriority) error
}

type lookupRepository struct {
	pool *pgxpool.Pool
}

// NewLookupRepository instantiates repository.
func NewLookupRepository(pool *pgxpool.Pool) LookupRepository {
	return &lookupRepository{pool: pool}
}

func (r *lookupRepository) ListStatuses(ctx context.Context) ([]domain.TicketStatus, error) {
	const query = `SELECT id, name, color, created_at FROM ticket_statuses ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketStatus
	for rows.Next() {
		var status domain.TicketStatus
		if err := rows.Scan(&status.ID, &status.Name, &status.Color, &status.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, status)
	}
	return result, rows.Err()
}

func (r *lookupRepository) ListPriorities(ctx context.Context) ([]domain.TicketPriority, error) {
	const query = `SELECT id, name, color, value, created_at FROM ticket_priorities ORDER BY value, id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketPriority
	for rows.Next() {
		var priority domain.TicketPriority
		if err := rows.Scan(&priority.ID, &priority.Name, &priority.Color, &priority.Value, &priority.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, priority)
	}
	return result, rows.Err()
}

func (r *lookupRepository) CreateStatus(ctx context.Context, status *domain.TicketStatus) error {
	const query = `
        INSERT INTO ticket_statuses (name, color)
        VALUES ($1,$2)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, status.Name, status.Color).Scan(&status.ID, &status.CreatedAt)
}

func (r *lookupRepository) CreatePriority(ctx context.Context, priority *domain.TicketPriority) error {
	const query = `
        INSERT INTO ticket_priorities (name, color, value)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, priority.Name, priority.Color, priority.Value).Scan(&priority.ID, &priority.CreatedAt)
}
