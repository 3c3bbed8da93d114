package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/itemforge/itemforge-backend/internal/model"
)

// MaterialRepository handles source-material data access.
type MaterialRepository struct {
	pool *pgxpool.Pool
}

// NewMaterialRepository creates a new MaterialRepository.
func NewMaterialRepository(pool *pgxpool.Pool) *MaterialRepository {
	return &MaterialRepository{pool: pool}
}

// Create inserts a new material.
func (r *MaterialRepository) Create(ctx context.Context, m *model.Material) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO materials (title, content, created_by)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		m.Title, m.Content, m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt)
}

// GetOwned retrieves a material by ID scoped to its creator.
func (r *MaterialRepository) GetOwned(ctx context.Context, id uuid.UUID, ownerID int) (*model.Material, error) {
	m := &model.Material{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, content, created_by, created_at
		 FROM materials WHERE id = $1 AND created_by = $2`, id, ownerID,
	).Scan(&m.ID, &m.Title, &m.Content, &m.CreatedBy, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListByOwner retrieves the creator's materials, newest first, with pagination.
// Content is omitted from listings; fetch a single material for the full text.
func (r *MaterialRepository) ListByOwner(ctx context.Context, ownerID, limit, offset int) ([]model.Material, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM materials WHERE created_by = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, title, ''::text, created_by, created_at
		 FROM materials WHERE created_by = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var materials []model.Material
	for rows.Next() {
		var m model.Material
		if err := rows.Scan(&m.ID, &m.Title, &m.Content, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		materials = append(materials, m)
	}
	return materials, total, rows.Err()
}

// DeleteOwned removes a material. Tasks cascade via FK; question rows keep
// their data with task_id nulled. Returns whether a row was deleted.
func (r *MaterialRepository) DeleteOwned(ctx context.Context, id uuid.UUID, ownerID int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM materials WHERE id = $1 AND created_by = $2`, id, ownerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
