package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/itemforge/itemforge-backend/internal/model"
)

// KnowledgePointRepository handles knowledge-point data access.
type KnowledgePointRepository struct {
	pool *pgxpool.Pool
}

// NewKnowledgePointRepository creates a new KnowledgePointRepository.
func NewKnowledgePointRepository(pool *pgxpool.Pool) *KnowledgePointRepository {
	return &KnowledgePointRepository{pool: pool}
}

// Create inserts a new knowledge point under a material.
func (r *KnowledgePointRepository) Create(ctx context.Context, kp *model.KnowledgePoint) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO knowledge_points (material_id, title, created_by)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		kp.MaterialID, kp.Title, kp.CreatedBy,
	).Scan(&kp.ID, &kp.CreatedAt)
}

// ListByMaterial retrieves all knowledge points of a material.
func (r *KnowledgePointRepository) ListByMaterial(ctx context.Context, materialID uuid.UUID, ownerID int) ([]model.KnowledgePoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, material_id, title, created_by, created_at
		 FROM knowledge_points WHERE material_id = $1 AND created_by = $2
		 ORDER BY created_at`, materialID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var kps []model.KnowledgePoint
	for rows.Next() {
		var kp model.KnowledgePoint
		if err := rows.Scan(&kp.ID, &kp.MaterialID, &kp.Title, &kp.CreatedBy, &kp.CreatedAt); err != nil {
			return nil, err
		}
		kps = append(kps, kp)
	}
	return kps, rows.Err()
}

// ListByIDs resolves a set of knowledge-point IDs, preserving the requested
// order. IDs that do not exist are simply absent from the result.
func (r *KnowledgePointRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.KnowledgePoint, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, material_id, title, created_by, created_at
		 FROM knowledge_points WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]model.KnowledgePoint, len(ids))
	for rows.Next() {
		var kp model.KnowledgePoint
		if err := rows.Scan(&kp.ID, &kp.MaterialID, &kp.Title, &kp.CreatedBy, &kp.CreatedAt); err != nil {
			return nil, err
		}
		byID[kp.ID] = kp
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]model.KnowledgePoint, 0, len(byID))
	for _, id := range ids {
		if kp, ok := byID[id]; ok {
			ordered = append(ordered, kp)
		}
	}
	return ordered, nil
}

// DeleteOwned removes a knowledge point. Returns whether a row was deleted.
func (r *KnowledgePointRepository) DeleteOwned(ctx context.Context, id uuid.UUID, ownerID int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM knowledge_points WHERE id = $1 AND created_by = $2`, id, ownerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
