package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/itemforge/itemforge-backend/internal/config"
	"github.com/itemforge/itemforge-backend/internal/model"
)

const (
	GenerationPollTimeout = 1 * time.Second
	// ProgressTTL bounds how long the advisory Redis progress mirror outlives
	// a crashed worker.
	ProgressTTL = 30 * time.Minute

	claimProgress   = 10
	progressPerTask = 80
)

// taskStore is the slice of the task store the worker needs.
type taskStore interface {
	Claim(ctx context.Context, id uuid.UUID, progress int) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.GenerationTask, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error
	Complete(ctx context.Context, id uuid.UUID, result *model.TaskResult) error
	Fail(ctx context.Context, id uuid.UUID, message string) error
}

type materialStore interface {
	GetOwned(ctx context.Context, id uuid.UUID, ownerID int) (*model.Material, error)
}

type knowledgePointStore interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.KnowledgePoint, error)
}

// GenerateClient is the external generation service contract.
type GenerateClient interface {
	Generate(ctx context.Context, content string, qType model.QuestionType, difficulty, knowledgePointTitle string) (*model.CandidateQuestion, error)
}

// GenerationWorker consumes task handoffs and runs generation tasks to a
// terminal state. Every task it claims ends as completed or failed; errors
// never propagate out of a run.
type GenerationWorker struct {
	queue     *Queue
	tasks     taskStore
	materials materialStore
	kps       knowledgePointStore
	generator GenerateClient
	rdb       *redis.Client
	cfg       config.WorkerConfig
	log       zerolog.Logger
}

// NewGenerationWorker creates a new GenerationWorker.
func NewGenerationWorker(queue *Queue, tasks taskStore, materials materialStore, kps knowledgePointStore, generator GenerateClient, rdb *redis.Client, cfg config.WorkerConfig, log zerolog.Logger) *GenerationWorker {
	return &GenerationWorker{
		queue:     queue,
		tasks:     tasks,
		materials: materials,
		kps:       kps,
		generator: generator,
		rdb:       rdb,
		cfg:       cfg,
		log:       log.With().Str("component", "generation_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop
// ----------------------------------------------------------------

// Start consumes the queue until ctx is cancelled, running up to
// cfg.Concurrency tasks in parallel. It waits for in-flight tasks to finish
// before returning.
func (w *GenerationWorker) Start(ctx context.Context) {
	w.log.Info().Int("concurrency", w.cfg.Concurrency).Msg("GenerationWorker started")

	slots := make(chan struct{}, w.cfg.Concurrency)
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Waiting for in-flight tasks...")
			wg.Wait()
			return

		default:
			taskID, err := w.queue.Dequeue(ctx, GenerationPollTimeout)
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("Dequeue error")
				}
				continue
			}

			slots <- struct{}{}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-slots }()
				w.runSafe(ctx, taskID)
			}()
		}
	}
}

// runSafe shields the loop from panics inside a run. A panicking task is
// failed, not retried.
func (w *GenerationWorker) runSafe(ctx context.Context, taskID uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Interface("panic", r).Str("task_id", taskID.String()).Msg("Task run panicked")
			w.finalizeFail(taskID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	w.Run(ctx, taskID)
}

// ----------------------------------------------------------------
// Single task run
// ----------------------------------------------------------------

// Run executes one generation task end to end. The claim step is a
// compare-and-swap on the pending status, so a handoff delivered twice or a
// task already reset runs at most once per claim.
func (w *GenerationWorker) Run(ctx context.Context, taskID uuid.UUID) {
	claimed, err := w.tasks.Claim(ctx, taskID, claimProgress)
	if err != nil {
		w.log.Error().Err(err).Str("task_id", taskID.String()).Msg("Claim failed")
		return
	}
	if !claimed {
		w.log.Warn().Str("task_id", taskID.String()).Msg("Task not pending, skipping")
		return
	}
	w.mirrorProgress(ctx, taskID, claimProgress)

	task, err := w.tasks.GetByID(ctx, taskID)
	if err != nil {
		w.finalizeFail(taskID, "load task: "+err.Error())
		return
	}

	material, err := w.materials.GetOwned(ctx, task.MaterialID, task.CreatedBy)
	if err != nil {
		w.finalizeFail(taskID, "load material: "+err.Error())
		return
	}

	var kps []model.KnowledgePoint
	if len(task.KnowledgePointIDs) > 0 {
		kps, err = w.kps.ListByIDs(ctx, task.KnowledgePointIDs)
		if err != nil {
			w.finalizeFail(taskID, "load knowledge points: "+err.Error())
			return
		}
	}

	result := w.generate(ctx, task, material, kps)

	if err := w.tasks.Complete(ctx, taskID, result); err != nil {
		w.log.Error().Err(err).Str("task_id", taskID.String()).Msg("Persist result failed")
		w.finalizeFail(taskID, "persist result: "+err.Error())
		return
	}
	w.clearProgress(taskID)

	w.log.Info().
		Str("task_id", taskID.String()).
		Int("generated", result.GeneratedCount).
		Int("requested", task.QuestionCount).
		Msg("Task completed")
}

// generate fills the task's question slots. Each slot gets up to MaxRetries
// attempts with a fixed delay between them; total attempts across all slots
// are capped at AttemptFactor × questionCount so a consistently failing
// upstream still terminates. Slots that exhaust their attempts are skipped;
// a task whose every slot fails still completes, with a zero count.
func (w *GenerationWorker) generate(ctx context.Context, task *model.GenerationTask, material *model.Material, kps []model.KnowledgePoint) *model.TaskResult {
	difficulty := model.NormalizeDifficulty(task.Difficulty)
	maxAttempts := w.cfg.AttemptFactor * task.QuestionCount

	var (
		candidates []model.CandidateQuestion
		attempts   int
		success    int
	)

	for slot := 0; slot < task.QuestionCount && attempts < maxAttempts; slot++ {
		qType := model.QuestionType(task.QuestionTypes[slot%len(task.QuestionTypes)])
		kpTitle := ""
		if len(kps) > 0 {
			kpTitle = kps[slot%len(kps)].Title
		}

		candidate := w.generateSlot(ctx, material.Content, qType, difficulty, kpTitle, task.ID, maxAttempts, &attempts)
		if candidate == nil {
			continue
		}

		candidates = append(candidates, *candidate)
		success++

		progress := success*progressPerTask/task.QuestionCount + claimProgress
		if err := w.tasks.UpdateProgress(ctx, task.ID, progress); err != nil {
			w.log.Warn().Err(err).Str("task_id", task.ID.String()).Msg("Progress update failed")
		}
		w.mirrorProgress(ctx, task.ID, progress)
	}

	return &model.TaskResult{
		GeneratedCount: success,
		SuccessRate:    float64(success) / float64(task.QuestionCount) * 100,
		Questions:      candidates,
	}
}

// generateSlot attempts one slot, charging each attempt against the global
// budget. Returns nil when the slot could not be filled.
func (w *GenerationWorker) generateSlot(ctx context.Context, content string, qType model.QuestionType, difficulty, kpTitle string, taskID uuid.UUID, maxAttempts int, attempts *int) *model.CandidateQuestion {
	for try := 0; try < w.cfg.MaxRetries && *attempts < maxAttempts; try++ {
		*attempts++

		candidate, err := w.generator.Generate(ctx, content, qType, difficulty, kpTitle)
		if err == nil {
			return candidate
		}

		w.log.Warn().Err(err).
			Str("task_id", taskID.String()).
			Str("type", string(qType)).
			Int("attempt", try+1).
			Msg("Generation attempt failed")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.cfg.RetryDelay):
		}
	}
	return nil
}

// finalizeFail moves a task to failed. Uses a fresh context so shutdown
// cancellation can't strand the task in processing.
func (w *GenerationWorker) finalizeFail(taskID uuid.UUID, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.tasks.Fail(ctx, taskID, message); err != nil {
		w.log.Error().Err(err).Str("task_id", taskID.String()).Msg("Fail transition failed")
	}
	w.clearProgress(taskID)
}

// ----------------------------------------------------------------
// Advisory Redis progress mirror
// ----------------------------------------------------------------

// mirrorProgress writes the progress value to Redis for cheap polling. The
// task row stays the source of truth; mirror errors are ignored.
func (w *GenerationWorker) mirrorProgress(ctx context.Context, taskID uuid.UUID, progress int) {
	if w.rdb == nil {
		return
	}
	_ = w.rdb.Set(ctx, config.CacheKey.TaskProgressKey(taskID.String()), progress, ProgressTTL).Err()
}

func (w *GenerationWorker) clearProgress(taskID uuid.UUID) {
	if w.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = w.rdb.Del(ctx, config.CacheKey.TaskProgressKey(taskID.String())).Err()
}
