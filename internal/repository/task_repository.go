package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/itemforge/itemforge-backend/internal/model"
)

const taskColumns = `id, material_id, question_count, question_types, difficulty,
	knowledge_point_ids, status, progress, result, created_by, created_at, completed_at`

// TaskRepository handles generation-task data access. Status transitions are
// conditional updates; the row's current status is the only concurrency
// control (read-then-conditional-write, last write wins).
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// Create inserts a new task in state pending.
func (r *TaskRepository) Create(ctx context.Context, t *model.GenerationTask) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO generation_tasks
		   (material_id, question_count, question_types, difficulty, knowledge_point_ids, status, progress, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		t.MaterialID, t.QuestionCount, t.QuestionTypes, t.Difficulty,
		t.KnowledgePointIDs, t.Status, t.Progress, t.CreatedBy,
	).Scan(&t.ID, &t.CreatedAt)
}

// GetByID retrieves a task by its UUID.
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.GenerationTask, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM generation_tasks WHERE id = $1`, id))
}

// GetOwned retrieves a task by ID scoped to its creator.
func (r *TaskRepository) GetOwned(ctx context.Context, id uuid.UUID, ownerID int) (*model.GenerationTask, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM generation_tasks WHERE id = $1 AND created_by = $2`, id, ownerID))
}

// ListByOwner retrieves the creator's tasks, newest first, with pagination.
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID, limit, offset int) ([]model.GenerationTask, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM generation_tasks WHERE created_by = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM generation_tasks
		 WHERE created_by = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tasks []model.GenerationTask
	for rows.Next() {
		t, err := r.scanOne(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, total, rows.Err()
}

// Claim performs the compare-and-swap pending→processing transition. Only one
// caller's claim succeeds; everyone else sees applied=false.
func (r *TaskRepository) Claim(ctx context.Context, id uuid.UUID, progress int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE generation_tasks SET status = $1, progress = $2
		 WHERE id = $3 AND status = $4`,
		model.TaskStatusProcessing, progress, id, model.TaskStatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateProgress persists a progress value for a processing task. The
// progress <= $ predicate keeps observed progress non-decreasing even if a
// stale writer races.
func (r *TaskRepository) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE generation_tasks SET progress = $1
		 WHERE id = $2 AND status = $3 AND progress <= $1`,
		progress, id, model.TaskStatusProcessing)
	return err
}

// Complete finalizes a processing task with its result payload.
func (r *TaskRepository) Complete(ctx context.Context, id uuid.UUID, result *model.TaskResult) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE generation_tasks
		 SET status = $1, progress = 100, result = $2, completed_at = NOW()
		 WHERE id = $3 AND status = $4`,
		model.TaskStatusCompleted, result, id, model.TaskStatusProcessing)
	return err
}

// Fail moves a task to failed with an error payload and progress reset to 0.
func (r *TaskRepository) Fail(ctx context.Context, id uuid.UUID, message string) error {
	result := &model.TaskResult{Error: message}
	_, err := r.pool.Exec(ctx,
		`UPDATE generation_tasks
		 SET status = $1, progress = 0, result = $2, completed_at = NOW()
		 WHERE id = $3 AND status IN ($4, $5)`,
		model.TaskStatusFailed, result, id, model.TaskStatusPending, model.TaskStatusProcessing)
	return err
}

// Reset returns a non-pending task to pending so it can be re-enqueued.
// Clears progress, result, and completion time. Used by regenerate to recover
// failed tasks or tasks orphaned in processing by a dead worker.
func (r *TaskRepository) Reset(ctx context.Context, id uuid.UUID, ownerID int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE generation_tasks
		 SET status = $1, progress = 0, result = NULL, completed_at = NULL
		 WHERE id = $2 AND created_by = $3 AND status <> $1`,
		model.TaskStatusPending, id, ownerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TaskRepository) scanOne(row rowScanner) (*model.GenerationTask, error) {
	t := &model.GenerationTask{}
	err := row.Scan(&t.ID, &t.MaterialID, &t.QuestionCount, &t.QuestionTypes,
		&t.Difficulty, &t.KnowledgePointIDs, &t.Status, &t.Progress, &t.Result,
		&t.CreatedBy, &t.CreatedAt, &t.CompletedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}
