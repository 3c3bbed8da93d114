package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/itemforge/itemforge-backend/internal/model"
)

const questionColumns = `id, task_id, type, stem, options, answer, difficulty,
	knowledge_level, quality_score, status, metadata, created_by, created_at, updated_at`

// QuestionRepository handles question data access. Every status transition is
// a conditional update keyed on the required source status, so a transition
// attempted from the wrong state affects zero rows instead of clobbering.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// Create inserts a single question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions
		   (task_id, type, stem, options, answer, difficulty, knowledge_level, quality_score, status, metadata, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		q.TaskID, q.Type, q.Stem, q.Options, q.Answer, q.Difficulty,
		q.KnowledgeLevel, q.QualityScore, q.Status, q.Metadata, q.CreatedBy,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// BulkCreate inserts a batch of questions in one round trip.
func (r *QuestionRepository) BulkCreate(ctx context.Context, qs []model.Question) ([]model.Question, error) {
	batch := &pgx.Batch{}
	for i := range qs {
		batch.Queue(
			`INSERT INTO questions
			   (task_id, type, stem, options, answer, difficulty, knowledge_level, quality_score, status, metadata, created_by)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING id, created_at, updated_at`,
			qs[i].TaskID, qs[i].Type, qs[i].Stem, qs[i].Options, qs[i].Answer,
			qs[i].Difficulty, qs[i].KnowledgeLevel, qs[i].QualityScore,
			qs[i].Status, qs[i].Metadata, qs[i].CreatedBy)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range qs {
		if err := results.QueryRow().Scan(&qs[i].ID, &qs[i].CreatedAt, &qs[i].UpdatedAt); err != nil {
			return nil, err
		}
	}
	return qs, nil
}

// CountByTask returns how many question rows a task has produced.
func (r *QuestionRepository) CountByTask(ctx context.Context, taskID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE task_id = $1`, taskID).Scan(&n)
	return n, err
}

// GetOwned retrieves a question by ID scoped to its owner.
func (r *QuestionRepository) GetOwned(ctx context.Context, id uuid.UUID, ownerID int) (*model.Question, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE id = $1 AND created_by = $2`, id, ownerID))
}

// GetOwnedInStatus retrieves a question by ID, owner, and required source
// status. A wrong status or a foreign owner both come back as no rows.
func (r *QuestionRepository) GetOwnedInStatus(ctx context.Context, id uuid.UUID, ownerID int, status model.QuestionStatus) (*model.Question, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE id = $1 AND created_by = $2 AND status = $3`, id, ownerID, status))
}

// ListOwnedInStatus resolves the subset of ids that exist, belong to ownerID,
// and are in the required source status. IDs failing any check are excluded.
func (r *QuestionRepository) ListOwnedInStatus(ctx context.Context, ids []uuid.UUID, ownerID int, status model.QuestionStatus) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE id = ANY($1) AND created_by = $2 AND status = $3`, ids, ownerID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// ListByTask retrieves all question rows created from a task.
func (r *QuestionRepository) ListByTask(ctx context.Context, taskID uuid.UUID, ownerID int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE task_id = $1 AND created_by = $2
		 ORDER BY created_at`, taskID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// ListPublished retrieves approved questions for the published bank query,
// optionally filtered by type and difficulty.
func (r *QuestionRepository) ListPublished(ctx context.Context, qType, difficulty string, limit, offset int) ([]model.Question, int, error) {
	where := `WHERE status = $1`
	args := []any{model.QuestionStatusApproved}
	if qType != "" {
		args = append(args, qType)
		where += ` AND type = $2`
	}
	if difficulty != "" {
		args = append(args, difficulty)
		if qType != "" {
			where += ` AND difficulty = $3`
		} else {
			where += ` AND difficulty = $2`
		}
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + questionColumns + ` FROM questions ` + where +
		` ORDER BY updated_at DESC LIMIT $` + itoa(len(args)+1) + ` OFFSET $` + itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	qs, err := r.scanAll(rows)
	return qs, total, err
}

// ApplyAIReview writes the AI review outcome: new status, quality score, and
// full metadata. If from is non-nil the write is conditional on that source
// status. Returns whether a row was updated.
func (r *QuestionRepository) ApplyAIReview(ctx context.Context, id uuid.UUID, from *model.QuestionStatus, to model.QuestionStatus, qualityScore float64, meta model.ReviewMetadata) (bool, error) {
	query := `UPDATE questions
	          SET status = $1, quality_score = $2, metadata = $3, updated_at = NOW()
	          WHERE id = $4`
	args := []any{to, qualityScore, meta, id}
	if from != nil {
		query += ` AND status = $5`
		args = append(args, *from)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ApplyManualReview writes the human decision conditionally on the source
// status. Returns whether a row was updated.
func (r *QuestionRepository) ApplyManualReview(ctx context.Context, id uuid.UUID, from, to model.QuestionStatus, meta model.ReviewMetadata) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions SET status = $1, metadata = $2, updated_at = NOW()
		 WHERE id = $3 AND status = $4`,
		to, meta, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// BulkManualReview applies one human decision to every id still in the source
// status, in a single conditional statement. The server-side jsonb merge keeps
// each question's ai_review record intact. Returns the number of rows moved.
func (r *QuestionRepository) BulkManualReview(ctx context.Context, ids []uuid.UUID, from, to model.QuestionStatus, rec model.ManualReviewRecord) (int64, error) {
	fragment, err := json.Marshal(model.ReviewMetadata{ManualReview: &rec})
	if err != nil {
		return 0, err
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET status = $1, metadata = metadata || $2::jsonb, updated_at = NOW()
		 WHERE id = ANY($3) AND status = $4`,
		to, string(fragment), ids, from)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteOwned removes every id owned by ownerID. Returns the number deleted.
func (r *QuestionRepository) DeleteOwned(ctx context.Context, ids []uuid.UUID, ownerID int) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM questions WHERE id = ANY($1) AND created_by = $2`, ids, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *QuestionRepository) scanOne(row rowScanner) (*model.Question, error) {
	q := &model.Question{}
	err := row.Scan(&q.ID, &q.TaskID, &q.Type, &q.Stem, &q.Options, &q.Answer,
		&q.Difficulty, &q.KnowledgeLevel, &q.QualityScore, &q.Status, &q.Metadata,
		&q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *QuestionRepository) scanAll(rows pgx.Rows) ([]model.Question, error) {
	var qs []model.Question
	for rows.Next() {
		q, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		qs = append(qs, *q)
	}
	return qs, rows.Err()
}

// itoa avoids fmt for single-digit placeholder indexes.
func itoa(n int) string {
	return string(rune('0' + n))
}
