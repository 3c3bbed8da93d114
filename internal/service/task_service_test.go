package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/itemforge/itemforge-backend/internal/model"
	"github.com/itemforge/itemforge-backend/internal/response"
)

type fakeTaskStore struct {
	tasks map[uuid.UUID]*model.GenerationTask
}

func newFakeTaskStore(tasks ...*model.GenerationTask) *fakeTaskStore {
	store := &fakeTaskStore{tasks: map[uuid.UUID]*model.GenerationTask{}}
	for _, t := range tasks {
		store.tasks[t.ID] = t
	}
	return store
}

func (f *fakeTaskStore) Create(ctx context.Context, t *model.GenerationTask) error {
	t.ID = uuid.New()
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeTaskStore) GetOwned(ctx context.Context, id uuid.UUID, ownerID int) (*model.GenerationTask, error) {
	t, ok := f.tasks[id]
	if !ok || t.CreatedBy != ownerID {
		return nil, pgx.ErrNoRows
	}
	return t, nil
}

func (f *fakeTaskStore) ListByOwner(ctx context.Context, ownerID, limit, offset int) ([]model.GenerationTask, int, error) {
	var out []model.GenerationTask
	for _, t := range f.tasks {
		if t.CreatedBy == ownerID {
			out = append(out, *t)
		}
	}
	return out, len(out), nil
}

func (f *fakeTaskStore) Reset(ctx context.Context, id uuid.UUID, ownerID int) (bool, error) {
	t, ok := f.tasks[id]
	if !ok || t.CreatedBy != ownerID || t.Status == model.TaskStatusPending {
		return false, nil
	}
	t.Status = model.TaskStatusPending
	t.Progress = 0
	t.Result = nil
	t.CompletedAt = nil
	return true, nil
}

type fakeMaterialReader struct {
	materials map[uuid.UUID]*model.Material
}

func (f *fakeMaterialReader) GetOwned(ctx context.Context, id uuid.UUID, ownerID int) (*model.Material, error) {
	m, ok := f.materials[id]
	if !ok || m.CreatedBy != ownerID {
		return nil, pgx.ErrNoRows
	}
	return m, nil
}

type fakeKPReader struct{ kps []model.KnowledgePoint }

func (f *fakeKPReader) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.KnowledgePoint, error) {
	var out []model.KnowledgePoint
	for _, id := range ids {
		for _, kp := range f.kps {
			if kp.ID == id {
				out = append(out, kp)
			}
		}
	}
	return out, nil
}

type fakeQuestionWriter struct {
	created  []model.Question
	existing int
}

func (f *fakeQuestionWriter) BulkCreate(ctx context.Context, qs []model.Question) ([]model.Question, error) {
	for i := range qs {
		qs[i].ID = uuid.New()
	}
	f.created = append(f.created, qs...)
	return qs, nil
}

func (f *fakeQuestionWriter) CountByTask(ctx context.Context, taskID uuid.UUID) (int, error) {
	return f.existing, nil
}

type fakeQueue struct {
	enqueued []uuid.UUID
	err      error
}

func (f *fakeQueue) Enqueue(ctx context.Context, taskID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, taskID)
	return nil
}

type taskFixture struct {
	svc       *TaskService
	tasks     *fakeTaskStore
	material  *model.Material
	kp        model.KnowledgePoint
	questions *fakeQuestionWriter
	queue     *fakeQueue
}

func newTaskFixture(tasks ...*model.GenerationTask) *taskFixture {
	material := &model.Material{ID: uuid.New(), Title: "m", Content: "c", CreatedBy: 1}
	kp := model.KnowledgePoint{ID: uuid.New(), MaterialID: material.ID, Title: "kp", CreatedBy: 1}

	store := newFakeTaskStore(tasks...)
	questions := &fakeQuestionWriter{}
	queue := &fakeQueue{}

	svc := NewTaskService(
		store,
		&fakeMaterialReader{materials: map[uuid.UUID]*model.Material{material.ID: material}},
		&fakeKPReader{kps: []model.KnowledgePoint{kp}},
		questions,
		queue,
		zerolog.Nop(),
	)

	return &taskFixture{svc: svc, tasks: store, material: material, kp: kp, questions: questions, queue: queue}
}

func TestCreateTaskEnqueues(t *testing.T) {
	fx := newTaskFixture()

	task, err := fx.svc.Create(context.Background(), 1, &model.CreateTaskRequest{
		MaterialID:        fx.material.ID,
		QuestionCount:     5,
		QuestionTypes:     []string{"single_choice"},
		Difficulty:        "medium",
		KnowledgePointIDs: []uuid.UUID{fx.kp.ID},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if task.Status != model.TaskStatusPending || task.Progress != 0 {
		t.Errorf("task = %+v, want pending at progress 0", task)
	}
	if len(fx.queue.enqueued) != 1 || fx.queue.enqueued[0] != task.ID {
		t.Errorf("enqueued = %v, want [%s]", fx.queue.enqueued, task.ID)
	}
}

func TestCreateTaskForeignMaterial(t *testing.T) {
	fx := newTaskFixture()

	_, err := fx.svc.Create(context.Background(), 2, &model.CreateTaskRequest{
		MaterialID:    fx.material.ID,
		QuestionCount: 5,
		QuestionTypes: []string{"single_choice"},
		Difficulty:    "medium",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(fx.queue.enqueued) != 0 {
		t.Error("task enqueued despite validation failure")
	}
}

func TestCreateTaskUnknownKnowledgePoint(t *testing.T) {
	fx := newTaskFixture()

	_, err := fx.svc.Create(context.Background(), 1, &model.CreateTaskRequest{
		MaterialID:        fx.material.ID,
		QuestionCount:     5,
		QuestionTypes:     []string{"single_choice"},
		Difficulty:        "medium",
		KnowledgePointIDs: []uuid.UUID{uuid.New()},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmitForReview(t *testing.T) {
	task := &model.GenerationTask{
		ID:        uuid.New(),
		Status:    model.TaskStatusCompleted,
		CreatedBy: 1,
		Result: &model.TaskResult{
			GeneratedCount: 2,
			Questions: []model.CandidateQuestion{
				{Type: model.QuestionTypeSingleChoice, Stem: "s1", Options: []string{"a", "b"}, Answer: "A", Difficulty: "中"},
				{Type: model.QuestionTypeTrueFalse, Stem: "s2", Options: []string{"true", "false"}, Answer: "B", Difficulty: "中"},
			},
		},
	}
	fx := newTaskFixture(task)

	rows, err := fx.svc.SubmitForReview(context.Background(), 1, task.ID)
	if err != nil {
		t.Fatalf("SubmitForReview: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for _, q := range rows {
		if q.Status != model.QuestionStatusAIReviewing {
			t.Errorf("status = %s, want ai_reviewing", q.Status)
		}
		if q.TaskID == nil || *q.TaskID != task.ID {
			t.Errorf("task reference missing on submitted question")
		}
		if q.CreatedBy != 1 {
			t.Errorf("created_by = %d, want 1", q.CreatedBy)
		}
	}
}

func TestSubmitForReviewGuards(t *testing.T) {
	running := &model.GenerationTask{ID: uuid.New(), Status: model.TaskStatusProcessing, CreatedBy: 1}
	empty := &model.GenerationTask{ID: uuid.New(), Status: model.TaskStatusCompleted, CreatedBy: 1, Result: &model.TaskResult{}}
	done := &model.GenerationTask{
		ID: uuid.New(), Status: model.TaskStatusCompleted, CreatedBy: 1,
		Result: &model.TaskResult{Questions: []model.CandidateQuestion{{Stem: "s"}}},
	}
	fx := newTaskFixture(running, empty, done)

	if _, err := fx.svc.SubmitForReview(context.Background(), 1, running.ID); !errors.Is(err, ErrTaskNotCompleted) {
		t.Errorf("running task err = %v, want ErrTaskNotCompleted", err)
	}
	if _, err := fx.svc.SubmitForReview(context.Background(), 1, empty.ID); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("empty result err = %v, want ErrNoCandidates", err)
	}

	fx.questions.existing = 3
	if _, err := fx.svc.SubmitForReview(context.Background(), 1, done.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("resubmit err = %v, want ErrConflict", err)
	}
}

func TestRegenerate(t *testing.T) {
	failed := &model.GenerationTask{ID: uuid.New(), Status: model.TaskStatusFailed, Progress: 0, CreatedBy: 1}
	pending := &model.GenerationTask{ID: uuid.New(), Status: model.TaskStatusPending, CreatedBy: 1}
	fx := newTaskFixture(failed, pending)

	task, err := fx.svc.Regenerate(context.Background(), 1, failed.ID)
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if task.Status != model.TaskStatusPending {
		t.Errorf("status = %s, want pending", task.Status)
	}
	if len(fx.queue.enqueued) != 1 {
		t.Errorf("enqueued = %d, want 1", len(fx.queue.enqueued))
	}

	if _, err := fx.svc.Regenerate(context.Background(), 1, pending.ID); !errors.Is(err, ErrTaskNotResettable) {
		t.Errorf("pending task err = %v, want ErrTaskNotResettable", err)
	}
	if _, err := fx.svc.Regenerate(context.Background(), 2, failed.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign task err = %v, want ErrNotFound", err)
	}
}

func TestClampPage(t *testing.T) {
	cases := []struct {
		page, perPage         int
		wantPage, wantPerPage int
	}{
		{0, 0, 1, 10},
		{-3, 500, 1, 100},
		{2, 25, 2, 25},
	}
	for _, c := range cases {
		page, perPage := clampPage(c.page, c.perPage)
		if page != c.wantPage || perPage != c.wantPerPage {
			t.Errorf("clampPage(%d, %d) = (%d, %d), want (%d, %d)",
				c.page, c.perPage, page, perPage, c.wantPage, c.wantPerPage)
		}
	}
}

func TestPaginate(t *testing.T) {
	got := paginate(2, 10, 25)
	want := &response.Pagination{Page: 2, PerPage: 10, TotalItems: 25, TotalPages: 3}
	if *got != *want {
		t.Errorf("paginate = %+v, want %+v", got, want)
	}
}
