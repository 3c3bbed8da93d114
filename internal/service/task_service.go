package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/itemforge/itemforge-backend/internal/model"
	"github.com/itemforge/itemforge-backend/internal/response"
)

// taskStore is the slice of the task store this service needs.
type taskStore interface {
	Create(ctx context.Context, t *model.GenerationTask) error
	GetOwned(ctx context.Context, id uuid.UUID, ownerID int) (*model.GenerationTask, error)
	ListByOwner(ctx context.Context, ownerID, limit, offset int) ([]model.GenerationTask, int, error)
	Reset(ctx context.Context, id uuid.UUID, ownerID int) (bool, error)
}

type materialReader interface {
	GetOwned(ctx context.Context, id uuid.UUID, ownerID int) (*model.Material, error)
}

type knowledgePointReader interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.KnowledgePoint, error)
}

type questionWriter interface {
	BulkCreate(ctx context.Context, qs []model.Question) ([]model.Question, error)
	CountByTask(ctx context.Context, taskID uuid.UUID) (int, error)
}

// TaskQueue hands a created task off to the background worker. The creating
// request returns as soon as the handoff is queued; completion is observed by
// polling the task record.
type TaskQueue interface {
	Enqueue(ctx context.Context, taskID uuid.UUID) error
}

// TaskService manages generation tasks: creation and queue handoff, polling,
// submit-for-review, and regenerate.
type TaskService struct {
	tasks     taskStore
	materials materialReader
	kps       knowledgePointReader
	questions questionWriter
	queue     TaskQueue
	log       zerolog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(tasks taskStore, materials materialReader, kps knowledgePointReader, questions questionWriter, queue TaskQueue, log zerolog.Logger) *TaskService {
	return &TaskService{
		tasks:     tasks,
		materials: materials,
		kps:       kps,
		questions: questions,
		queue:     queue,
		log:       log.With().Str("component", "task_service").Logger(),
	}
}

// Create validates the request, persists a pending task, and enqueues it for
// the generation worker. Referenced knowledge points must exist under the
// caller's material; any miss fails the whole request before mutation.
func (s *TaskService) Create(ctx context.Context, callerID int, req *model.CreateTaskRequest) (*model.GenerationTask, error) {
	material, err := s.materials.GetOwned(ctx, req.MaterialID, callerID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if len(req.KnowledgePointIDs) > 0 {
		kps, err := s.kps.ListByIDs(ctx, req.KnowledgePointIDs)
		if err != nil {
			return nil, err
		}
		if len(kps) != len(req.KnowledgePointIDs) {
			return nil, ErrNotFound
		}
		for _, kp := range kps {
			if kp.CreatedBy != callerID || kp.MaterialID != material.ID {
				return nil, ErrNotFound
			}
		}
	}

	task := &model.GenerationTask{
		MaterialID:        material.ID,
		QuestionCount:     req.QuestionCount,
		QuestionTypes:     req.QuestionTypes,
		Difficulty:        req.Difficulty,
		KnowledgePointIDs: req.KnowledgePointIDs,
		Status:            model.TaskStatusPending,
		Progress:          0,
		CreatedBy:         callerID,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, task.ID); err != nil {
		// The pending row survives; regenerate can re-enqueue it later.
		s.log.Error().Err(err).Str("task_id", task.ID.String()).Msg("Task enqueue failed")
		return nil, err
	}

	return task, nil
}

// Get returns one of the caller's tasks for polling.
func (s *TaskService) Get(ctx context.Context, callerID int, id uuid.UUID) (*model.GenerationTask, error) {
	task, err := s.tasks.GetOwned(ctx, id, callerID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return task, nil
}

// List returns the caller's tasks with pagination.
func (s *TaskService) List(ctx context.Context, callerID, page, perPage int) ([]model.GenerationTask, *response.Pagination, error) {
	page, perPage = clampPage(page, perPage)

	tasks, total, err := s.tasks.ListByOwner(ctx, callerID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if tasks == nil {
		tasks = []model.GenerationTask{}
	}

	return tasks, paginate(page, perPage, total), nil
}

// SubmitForReview turns a completed task's candidate list into question rows
// with status ai_reviewing. Each task's candidates can be submitted once.
func (s *TaskService) SubmitForReview(ctx context.Context, callerID int, taskID uuid.UUID) ([]model.Question, error) {
	task, err := s.tasks.GetOwned(ctx, taskID, callerID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if task.Status != model.TaskStatusCompleted {
		return nil, ErrTaskNotCompleted
	}
	if task.Result == nil || len(task.Result.Questions) == 0 {
		return nil, ErrNoCandidates
	}

	existing, err := s.questions.CountByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrConflict
	}

	rows := make([]model.Question, len(task.Result.Questions))
	for i, c := range task.Result.Questions {
		taskRef := task.ID
		rows[i] = model.Question{
			TaskID:         &taskRef,
			Type:           c.Type,
			Stem:           c.Stem,
			Options:        c.Options,
			Answer:         c.Answer,
			Difficulty:     c.Difficulty,
			KnowledgeLevel: c.KnowledgeLevel,
			Status:         model.QuestionStatusAIReviewing,
			CreatedBy:      task.CreatedBy,
		}
	}

	return s.questions.BulkCreate(ctx, rows)
}

// Regenerate resets a non-pending task (failed, finished, or orphaned in
// processing by a dead worker) back to pending and re-enqueues it.
func (s *TaskService) Regenerate(ctx context.Context, callerID int, id uuid.UUID) (*model.GenerationTask, error) {
	ok, err := s.tasks.Reset(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Distinguish a missing/foreign task from one already pending.
		if _, err := s.tasks.GetOwned(ctx, id, callerID); err != nil {
			return nil, mapStoreErr(err)
		}
		return nil, ErrTaskNotResettable
	}

	if err := s.queue.Enqueue(ctx, id); err != nil {
		s.log.Error().Err(err).Str("task_id", id.String()).Msg("Task re-enqueue failed")
		return nil, err
	}

	return s.tasks.GetOwned(ctx, id, callerID)
}

func clampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

func paginate(page, perPage, total int) *response.Pagination {
	return &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
}
