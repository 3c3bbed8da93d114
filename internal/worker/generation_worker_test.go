package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/itemforge/itemforge-backend/internal/config"
	"github.com/itemforge/itemforge-backend/internal/model"
)

type fakeTaskStore struct {
	mu       sync.Mutex
	task     *model.GenerationTask
	progress []int
	result   *model.TaskResult
	status   model.TaskStatus
	failMsg  string

	completeErr error
}

func (f *fakeTaskStore) Claim(ctx context.Context, id uuid.UUID, progress int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.task.Status != model.TaskStatusPending {
		return false, nil
	}
	f.task.Status = model.TaskStatusProcessing
	f.progress = append(f.progress, progress)
	return true, nil
}

func (f *fakeTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*model.GenerationTask, error) {
	return f.task, nil
}

func (f *fakeTaskStore) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, progress)
	return nil
}

func (f *fakeTaskStore) Complete(ctx context.Context, id uuid.UUID, result *model.TaskResult) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = model.TaskStatusCompleted
	f.result = result
	return nil
}

func (f *fakeTaskStore) Fail(ctx context.Context, id uuid.UUID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = model.TaskStatusFailed
	f.failMsg = message
	return nil
}

type fakeMaterialStore struct{}

func (f *fakeMaterialStore) GetOwned(ctx context.Context, id uuid.UUID, ownerID int) (*model.Material, error) {
	return &model.Material{ID: id, Title: "m", Content: "content", CreatedBy: ownerID}, nil
}

type fakeKPStore struct{ kps []model.KnowledgePoint }

func (f *fakeKPStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.KnowledgePoint, error) {
	return f.kps, nil
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	// fail returns an error for call number n (1-based) when fail(n) is true.
	fail func(n int) bool
}

func (f *fakeGenerator) Generate(ctx context.Context, content string, qType model.QuestionType, difficulty, kpTitle string) (*model.CandidateQuestion, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.fail != nil && f.fail(n) {
		return nil, errors.New("upstream error")
	}
	return &model.CandidateQuestion{
		Type:       qType,
		Stem:       "stem",
		Options:    []string{"a", "b", "c", "d"},
		Answer:     "A",
		Difficulty: difficulty,
	}, nil
}

func testWorkerConfig() config.WorkerConfig {
	return config.WorkerConfig{
		MaxRetries:    3,
		RetryDelay:    time.Millisecond,
		AttemptFactor: 2,
		Concurrency:   1,
	}
}

func newTestWorker(store *fakeTaskStore, gen GenerateClient) *GenerationWorker {
	return NewGenerationWorker(nil, store, &fakeMaterialStore{}, &fakeKPStore{}, gen, nil, testWorkerConfig(), zerolog.Nop())
}

func pendingTask(count int) *model.GenerationTask {
	return &model.GenerationTask{
		ID:            uuid.New(),
		MaterialID:    uuid.New(),
		QuestionCount: count,
		QuestionTypes: []string{"single_choice", "true_false"},
		Difficulty:    "medium",
		Status:        model.TaskStatusPending,
		CreatedBy:     1,
	}
}

func TestRunAllSlotsSucceed(t *testing.T) {
	store := &fakeTaskStore{task: pendingTask(3)}
	gen := &fakeGenerator{}
	w := newTestWorker(store, gen)

	w.Run(context.Background(), store.task.ID)

	if store.status != model.TaskStatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", store.status, store.failMsg)
	}
	if store.result.GeneratedCount != 3 {
		t.Errorf("generated_count = %d, want 3", store.result.GeneratedCount)
	}
	if store.result.SuccessRate != 100 {
		t.Errorf("success_rate = %v, want 100", store.result.SuccessRate)
	}
	if len(store.result.Questions) != 3 {
		t.Errorf("questions = %d, want 3", len(store.result.Questions))
	}
	if gen.calls != 3 {
		t.Errorf("generator calls = %d, want 3", gen.calls)
	}

	// Progress must be non-decreasing, start at the claim value, end at 90.
	if store.progress[0] != 10 {
		t.Errorf("first progress = %d, want 10", store.progress[0])
	}
	for i := 1; i < len(store.progress); i++ {
		if store.progress[i] < store.progress[i-1] {
			t.Errorf("progress decreased: %v", store.progress)
		}
	}
	if last := store.progress[len(store.progress)-1]; last != 90 {
		t.Errorf("last reported progress = %d, want 90", last)
	}

	// Slot types round-robin over the requested list.
	if store.result.Questions[0].Type != model.QuestionTypeSingleChoice ||
		store.result.Questions[1].Type != model.QuestionTypeTrueFalse ||
		store.result.Questions[2].Type != model.QuestionTypeSingleChoice {
		t.Errorf("unexpected type rotation: %+v", store.result.Questions)
	}
}

func TestRunEveryAttemptFails(t *testing.T) {
	store := &fakeTaskStore{task: pendingTask(3)}
	gen := &fakeGenerator{fail: func(int) bool { return true }}
	w := newTestWorker(store, gen)

	w.Run(context.Background(), store.task.ID)

	// Persistent upstream failure still terminates in completed with zero
	// questions, and the attempt budget caps the calls.
	if store.status != model.TaskStatusCompleted {
		t.Fatalf("expected completed, got %s", store.status)
	}
	if store.result.GeneratedCount != 0 {
		t.Errorf("generated_count = %d, want 0", store.result.GeneratedCount)
	}
	if store.result.SuccessRate != 0 {
		t.Errorf("success_rate = %v, want 0", store.result.SuccessRate)
	}
	if gen.calls > 6 {
		t.Errorf("generator calls = %d, want <= 6 (2x question count)", gen.calls)
	}
}

func TestRunPartialFailure(t *testing.T) {
	store := &fakeTaskStore{task: pendingTask(2)}
	// First call fails, everything after succeeds: slot 0 retries once.
	gen := &fakeGenerator{fail: func(n int) bool { return n == 1 }}
	w := newTestWorker(store, gen)

	w.Run(context.Background(), store.task.ID)

	if store.status != model.TaskStatusCompleted {
		t.Fatalf("expected completed, got %s", store.status)
	}
	if store.result.GeneratedCount != 2 {
		t.Errorf("generated_count = %d, want 2", store.result.GeneratedCount)
	}
	if gen.calls != 3 {
		t.Errorf("generator calls = %d, want 3", gen.calls)
	}
}

func TestRunSkipsNonPendingTask(t *testing.T) {
	task := pendingTask(2)
	task.Status = model.TaskStatusCompleted
	store := &fakeTaskStore{task: task}
	gen := &fakeGenerator{}
	w := newTestWorker(store, gen)

	w.Run(context.Background(), task.ID)

	if gen.calls != 0 {
		t.Errorf("generator called %d times for a non-pending task", gen.calls)
	}
	if store.status == model.TaskStatusFailed {
		t.Error("refused claim must not fail the task")
	}
}

func TestRunPersistFailureMarksTaskFailed(t *testing.T) {
	store := &fakeTaskStore{task: pendingTask(1), completeErr: errors.New("db down")}
	gen := &fakeGenerator{}
	w := newTestWorker(store, gen)

	w.Run(context.Background(), store.task.ID)

	if store.status != model.TaskStatusFailed {
		t.Fatalf("expected failed, got %s", store.status)
	}
	if store.failMsg == "" {
		t.Error("failure message missing")
	}
}

func TestRunSafeRecoversPanic(t *testing.T) {
	store := &fakeTaskStore{task: pendingTask(1)}
	w := newTestWorker(store, &panickyGenerator{})

	w.runSafe(context.Background(), store.task.ID)

	if store.status != model.TaskStatusFailed {
		t.Fatalf("expected failed after panic, got %s", store.status)
	}
}

type panickyGenerator struct{}

func (p *panickyGenerator) Generate(ctx context.Context, content string, qType model.QuestionType, difficulty, kpTitle string) (*model.CandidateQuestion, error) {
	panic("boom")
}
