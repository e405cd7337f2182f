package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-hub/internal/domain"
)

// WorkspaceRepository reads workspace records.
type WorkspaceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Workspace, error)
}

type workspaceRepository struct {
	pool *pgxpool.Pool
}

// NewWorkspaceRepository instantiates repository.
func NewWorkspaceRepository(pool *pgxpool.Pool) WorkspaceRepository {
	return &workspaceRepository{pool: pool}
}

func (r *workspaceRepository) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	const query = `SELECT id, name, created_at, updated_at FROM workspaces WHERE id=$1`
	var workspace domain.Workspace
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&workspace.ID,
		&workspace.Name,
		&workspace.CreatedAt,
		&workspace.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &workspace, nil
}
