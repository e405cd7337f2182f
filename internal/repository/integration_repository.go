package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-hub/internal/domain"
)

// IntegrationRepository reads external tracker connections. The aggregation
// pipeline never writes integrations.
type IntegrationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Integration, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Integration, error)
}

type integrationRepository struct {
	pool *pgxpool.Pool
}

// NewIntegrationRepository instantiates repository.
func NewIntegrationRepository(pool *pgxpool.Pool) IntegrationRepository {
	return &integrationRepository{pool: pool}
}

func (r *integrationRepository) GetByID(ctx context.Context, id string) (*domain.Integration, error) {
	const query = `
        SELECT id, workspace_id, provider, base_url, filter_query, created_at
        FROM integrations WHERE id=$1`
	var integration domain.Integration
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&integration.ID,
		&integration.WorkspaceID,
		&integration.Provider,
		&integration.BaseURL,
		&integration.FilterQuery,
		&integration.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &integration, nil
}

func (r *integrationRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Integration, error) {
	const query = `
        SELECT id, workspace_id, provider, base_url, filter_query, created_at
        FROM integrations WHERE workspace_id=$1
        ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIntegrations(rows)
}

func scanIntegrations(rows pgx.Rows) ([]domain.Integration, error) {
	var result []domain.Integration
	for rows.Next() {
		var integration domain.Integration
		if err := rows.Scan(
			&integration.ID,
			&integration.WorkspaceID,
			&integration.Provider,
			&integration.BaseURL,
			&integration.FilterQuery,
			&integration.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, integration)
	}
	return result, rows.Err()
}
