package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/itemforge/itemforge-backend/internal/model"
)

type fakeBatchStore struct {
	mu        sync.Mutex
	questions map[uuid.UUID]*model.Question
}

func newFakeBatchStore(qs ...*model.Question) *fakeBatchStore {
	store := &fakeBatchStore{questions: map[uuid.UUID]*model.Question{}}
	for _, q := range qs {
		store.questions[q.ID] = q
	}
	return store
}

func (f *fakeBatchStore) ListOwnedInStatus(ctx context.Context, ids []uuid.UUID, ownerID int, status model.QuestionStatus) ([]model.Question, error) {
	var out []model.Question
	for _, id := range ids {
		q, ok := f.questions[id]
		if ok && q.CreatedBy == ownerID && q.Status == status {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeBatchStore) ApplyAIReview(ctx context.Context, id uuid.UUID, from *model.QuestionStatus, to model.QuestionStatus, qualityScore float64, meta model.ReviewMetadata) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[id]
	if !ok {
		return false, nil
	}
	if from != nil && q.Status != *from {
		return false, nil
	}
	q.Status = to
	q.QualityScore = qualityScore
	q.Metadata = meta
	return true, nil
}

func (f *fakeBatchStore) BulkManualReview(ctx context.Context, ids []uuid.UUID, from, to model.QuestionStatus, rec model.ManualReviewRecord) (int64, error) {
	var moved int64
	for _, id := range ids {
		q, ok := f.questions[id]
		if !ok || q.Status != from {
			continue
		}
		q.Status = to
		q.Metadata.ManualReview = &rec
		moved++
	}
	return moved, nil
}

func (f *fakeBatchStore) DeleteOwned(ctx context.Context, ids []uuid.UUID, ownerID int) (int64, error) {
	var deleted int64
	for _, id := range ids {
		q, ok := f.questions[id]
		if !ok || q.CreatedBy != ownerID {
			continue
		}
		delete(f.questions, id)
		deleted++
	}
	return deleted, nil
}

func batchQuestion(owner int, status model.QuestionStatus) *model.Question {
	return &model.Question{
		ID:        uuid.New(),
		Type:      model.QuestionTypeSingleChoice,
		Stem:      "stem",
		Options:   []string{"a", "b"},
		Answer:    "A",
		Status:    status,
		CreatedBy: owner,
	}
}

func newBatchService(store *fakeBatchStore, scorer *stubScorer) *BatchService {
	engine := NewReviewEngine(scorer, zerolog.Nop())
	return NewBatchService(store, engine, zerolog.Nop())
}

func collectIDs(qs ...*model.Question) []uuid.UUID {
	ids := make([]uuid.UUID, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}

func TestBatchAIReviewSkipsIneligible(t *testing.T) {
	mine1 := batchQuestion(1, model.QuestionStatusAIReviewing)
	mine2 := batchQuestion(1, model.QuestionStatusAIReviewing)
	mine3 := batchQuestion(1, model.QuestionStatusAIReviewing)
	foreign := batchQuestion(2, model.QuestionStatusAIReviewing)
	wrongState := batchQuestion(1, model.QuestionStatusApproved)

	store := newFakeBatchStore(mine1, mine2, mine3, foreign, wrongState)
	scorer := &stubScorer{result: &model.ReviewResult{Score: 90, Passed: true}}
	svc := newBatchService(store, scorer)

	ids := collectIDs(mine1, mine2, mine3, foreign, wrongState)
	result, err := svc.AIReview(context.Background(), 1, ids)
	if err != nil {
		t.Fatalf("AIReview: %v", err)
	}

	if result.Requested != 5 || result.Attempted != 3 || result.Succeeded != 3 || result.Failed != 0 {
		t.Errorf("result = %+v, want requested 5 attempted 3 succeeded 3 failed 0", result)
	}

	// Only the eligible questions moved.
	if store.questions[mine1.ID].Status != model.QuestionStatusAIApproved {
		t.Error("eligible question not moved")
	}
	if store.questions[foreign.ID].Status != model.QuestionStatusAIReviewing {
		t.Error("foreign question was touched")
	}
	if store.questions[wrongState.ID].Status != model.QuestionStatusApproved {
		t.Error("wrong-state question was touched")
	}
}

func TestBatchAIReviewNoEligible(t *testing.T) {
	foreign := batchQuestion(2, model.QuestionStatusAIReviewing)
	store := newFakeBatchStore(foreign)
	svc := newBatchService(store, &stubScorer{result: &model.ReviewResult{Score: 90, Passed: true}})

	if _, err := svc.AIReview(context.Background(), 1, collectIDs(foreign)); !errors.Is(err, ErrNoEligibleItems) {
		t.Fatalf("err = %v, want ErrNoEligibleItems", err)
	}
}

func TestBatchAIReviewScoringFailuresCountAsSkipped(t *testing.T) {
	q1 := batchQuestion(1, model.QuestionStatusAIReviewing)
	q2 := batchQuestion(1, model.QuestionStatusAIReviewing)
	store := newFakeBatchStore(q1, q2)

	// First scoring call fails, second succeeds.
	scorer := &flakyScorer{failOn: 1}
	engine := NewReviewEngine(scorer, zerolog.Nop())
	svc := NewBatchService(store, engine, zerolog.Nop())

	result, err := svc.AIReview(context.Background(), 1, collectIDs(q1, q2))
	if err != nil {
		t.Fatalf("AIReview: %v", err)
	}
	if result.Attempted != 1 || result.Succeeded != 1 {
		t.Errorf("result = %+v, want attempted 1 succeeded 1", result)
	}
}

type flakyScorer struct {
	calls  int
	failOn int
}

func (s *flakyScorer) Score(ctx context.Context, q *model.Question) (*model.ReviewResult, error) {
	s.calls++
	if s.calls == s.failOn {
		return nil, errors.New("scoring unavailable")
	}
	return &model.ReviewResult{Score: 75, Passed: true}, nil
}

func TestBatchManualReview(t *testing.T) {
	q1 := batchQuestion(1, model.QuestionStatusAIApproved)
	q2 := batchQuestion(1, model.QuestionStatusAIApproved)
	notGated := batchQuestion(1, model.QuestionStatusAIReviewing)
	store := newFakeBatchStore(q1, q2, notGated)
	svc := newBatchService(store, &stubScorer{})

	result, err := svc.ManualReview(context.Background(), 1, collectIDs(q1, q2, notGated), model.ReviewActionReject, "off topic")
	if err != nil {
		t.Fatalf("ManualReview: %v", err)
	}
	if result.Requested != 3 || result.Attempted != 2 || result.Succeeded != 2 {
		t.Errorf("result = %+v, want requested 3 attempted 2 succeeded 2", result)
	}

	if store.questions[q1.ID].Status != model.QuestionStatusRejected {
		t.Error("eligible question not rejected")
	}
	if store.questions[q1.ID].Metadata.ManualReview == nil {
		t.Error("manual_review record missing after batch decision")
	}
	if store.questions[notGated.ID].Status != model.QuestionStatusAIReviewing {
		t.Error("ungated question was touched")
	}
}

func TestBatchApproveLegacyPath(t *testing.T) {
	q1 := batchQuestion(1, model.QuestionStatusPending)
	q2 := batchQuestion(1, model.QuestionStatusPending)
	store := newFakeBatchStore(q1, q2)
	svc := newBatchService(store, &stubScorer{})

	result, err := svc.Approve(context.Background(), 1, collectIDs(q1, q2))
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if result.Succeeded != 2 {
		t.Errorf("succeeded = %d, want 2", result.Succeeded)
	}
	if store.questions[q1.ID].Status != model.QuestionStatusApproved {
		t.Error("question not approved")
	}
}

func TestBatchDelete(t *testing.T) {
	mine := batchQuestion(1, model.QuestionStatusRejected)
	foreign := batchQuestion(2, model.QuestionStatusRejected)
	store := newFakeBatchStore(mine, foreign)
	svc := newBatchService(store, &stubScorer{})

	result, err := svc.Delete(context.Background(), 1, collectIDs(mine, foreign))
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Errorf("result = %+v, want succeeded 1 failed 1", result)
	}
	if _, ok := store.questions[foreign.ID]; !ok {
		t.Error("foreign question deleted")
	}

	if _, err := svc.Delete(context.Background(), 1, collectIDs(foreign)); !errors.Is(err, ErrNoEligibleItems) {
		t.Errorf("err = %v, want ErrNoEligibleItems", err)
	}
}
