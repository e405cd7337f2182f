package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-hub/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByExternalRef(ctx context.Context, integrationID, externalTicketID string) (*domain.Ticket, error)
	ListInternalByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]domain.Ticket, error)
	ListByExternalRefs(ctx context.Context, integrationID string, externalIDs []string) ([]domain.Ticket, error)
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, workspace_id, title, description, status_id, priority_id, is_internal,
               integration_id, external_ticket_id, assigned_agent_id, assigned_workflow_id,
               created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (workspace_id, title, description, status_id, priority_id, is_internal,
                             integration_id, external_ticket_id, assigned_agent_id, assigned_workflow_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.WorkspaceID,
		ticket.Title,
		ticket.Description,
		ticket.StatusID,
		ticket.PriorityID,
		ticket.IsInternal,
		ticket.IntegrationID,
		ticket.ExternalTicketID,
		ticket.AssignedAgentID,
		ticket.AssignedWorkflowID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateExternalTicket
	}
	return err
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status_id=$3, priority_id=$4,
            assigned_agent_id=$5, assigned_workflow_id=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.StatusID,
		ticket.PriorityID,
		ticket.AssignedAgentID,
		ticket.AssignedWorkflowID,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByExternalRef(ctx context.Context, integrationID, externalTicketID string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE integration_id=$1 AND external_ticket_id=$2`, ticketColumns)
	return r.fetchSingle(ctx, query, integrationID, externalTicketID)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, args...), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListInternalByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE workspace_id=$1 AND is_internal=TRUE
        ORDER BY created_at DESC, id
        LIMIT $2 OFFSET $3`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, workspaceID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByExternalRefs(ctx context.Context, integrationID string, externalIDs []string) ([]domain.Ticket, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(externalIDs))
	args := []any{integrationID}
	for i, id := range externalIDs {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE integration_id=$1 AND external_ticket_id IN (%s)`,
		ticketColumns, strings.Join(placeholders, ","))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.WorkspaceID,
		&ticket.Title,
		&ticket.Description,
		&ticket.StatusID,
		&ticket.PriorityID,
		&ticket.IsInternal,
		&ticket.IntegrationID,
		&ticket.ExternalTicketID,
		&ticket.AssignedAgentID,
		&ticket.AssignedWorkflowID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
