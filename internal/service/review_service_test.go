package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/itemforge/itemforge-backend/internal/model"
)

type fakeReviewStore struct {
	questions map[uuid.UUID]*model.Question
	ownerID   int
}

func newFakeReviewStore(ownerID int, qs ...*model.Question) *fakeReviewStore {
	store := &fakeReviewStore{questions: map[uuid.UUID]*model.Question{}, ownerID: ownerID}
	for _, q := range qs {
		store.questions[q.ID] = q
	}
	return store
}

func (f *fakeReviewStore) GetOwned(ctx context.Context, id uuid.UUID, ownerID int) (*model.Question, error) {
	q, ok := f.questions[id]
	if !ok || q.CreatedBy != ownerID {
		return nil, pgx.ErrNoRows
	}
	cp := *q
	return &cp, nil
}

func (f *fakeReviewStore) GetOwnedInStatus(ctx context.Context, id uuid.UUID, ownerID int, status model.QuestionStatus) (*model.Question, error) {
	q, err := f.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if q.Status != status {
		return nil, pgx.ErrNoRows
	}
	return q, nil
}

func (f *fakeReviewStore) ApplyAIReview(ctx context.Context, id uuid.UUID, from *model.QuestionStatus, to model.QuestionStatus, qualityScore float64, meta model.ReviewMetadata) (bool, error) {
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

func (f *fakeReviewStore) ApplyManualReview(ctx context.Context, id uuid.UUID, from, to model.QuestionStatus, meta model.ReviewMetadata) (bool, error) {
	q, ok := f.questions[id]
	if !ok || q.Status != from {
		return false, nil
	}
	q.Status = to
	q.Metadata = meta
	return true, nil
}

type stubScorer struct {
	result *model.ReviewResult
	err    error
	calls  int
}

func (s *stubScorer) Score(ctx context.Context, q *model.Question) (*model.ReviewResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func reviewQuestion(owner int, status model.QuestionStatus) *model.Question {
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

func newReviewService(store *fakeReviewStore, scorer *stubScorer, strict bool) *ReviewService {
	engine := NewReviewEngine(scorer, zerolog.Nop())
	return NewReviewService(store, engine, strict, zerolog.Nop())
}

func TestAIReviewPass(t *testing.T) {
	q := reviewQuestion(1, model.QuestionStatusAIReviewing)
	store := newFakeReviewStore(1, q)
	scorer := &stubScorer{result: &model.ReviewResult{Score: 85, Passed: true, Suggestions: []string{"tighten stem"}}}
	svc := newReviewService(store, scorer, true)

	got, err := svc.AIReview(context.Background(), 1, q.ID)
	if err != nil {
		t.Fatalf("AIReview: %v", err)
	}
	if got.Status != model.QuestionStatusAIApproved {
		t.Errorf("status = %s, want ai_approved", got.Status)
	}
	if got.QualityScore != 0.85 {
		t.Errorf("quality_score = %v, want 0.85", got.QualityScore)
	}
	if got.Metadata.AIReview == nil || got.Metadata.AIReview.Score != 85 {
		t.Errorf("ai_review record missing or wrong: %+v", got.Metadata.AIReview)
	}
}

func TestAIReviewFailVerdict(t *testing.T) {
	q := reviewQuestion(1, model.QuestionStatusAIReviewing)
	store := newFakeReviewStore(1, q)
	scorer := &stubScorer{result: &model.ReviewResult{Score: 30, Passed: false, Issues: []string{"ambiguous answer"}}}
	svc := newReviewService(store, scorer, true)

	got, err := svc.AIReview(context.Background(), 1, q.ID)
	if err != nil {
		t.Fatalf("AIReview: %v", err)
	}
	if got.Status != model.QuestionStatusAIRejected {
		t.Errorf("status = %s, want ai_rejected", got.Status)
	}
	if got.Metadata.AIReview.Passed {
		t.Error("ai_review record marked passed for a failing verdict")
	}
}

func TestAIReviewStrictRejectsWrongState(t *testing.T) {
	q := reviewQuestion(1, model.QuestionStatusApproved)
	store := newFakeReviewStore(1, q)
	scorer := &stubScorer{result: &model.ReviewResult{Score: 85, Passed: true}}
	svc := newReviewService(store, scorer, true)

	if _, err := svc.AIReview(context.Background(), 1, q.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if scorer.calls != 0 {
		t.Error("scoring called for an ineligible question")
	}
}

func TestAIReviewForeignOwnerLooksMissing(t *testing.T) {
	q := reviewQuestion(1, model.QuestionStatusAIReviewing)
	store := newFakeReviewStore(1, q)
	scorer := &stubScorer{result: &model.ReviewResult{Score: 85, Passed: true}}
	svc := newReviewService(store, scorer, true)

	if _, err := svc.AIReview(context.Background(), 99, q.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAIReviewScorerErrorPropagates(t *testing.T) {
	q := reviewQuestion(1, model.QuestionStatusAIReviewing)
	store := newFakeReviewStore(1, q)
	scorer := &stubScorer{err: errors.New("scoring unavailable")}
	svc := newReviewService(store, scorer, true)

	if _, err := svc.AIReview(context.Background(), 1, q.ID); err == nil {
		t.Fatal("expected error from scoring failure")
	}
	if store.questions[q.ID].Status != model.QuestionStatusAIReviewing {
		t.Error("question moved despite scoring failure")
	}
}

func TestManualReviewApprove(t *testing.T) {
	q := reviewQuestion(1, model.QuestionStatusAIApproved)
	q.Metadata.AIReview = &model.AIReviewRecord{Score: 85, Passed: true}
	store := newFakeReviewStore(1, q)
	svc := newReviewService(store, &stubScorer{}, true)

	got, err := svc.ManualReview(context.Background(), 1, q.ID, model.ReviewActionApprove, "looks good")
	if err != nil {
		t.Fatalf("ManualReview: %v", err)
	}
	if got.Status != model.QuestionStatusApproved {
		t.Errorf("status = %s, want approved", got.Status)
	}
	if got.Metadata.ManualReview == nil || got.Metadata.ManualReview.ReviewerID != 1 {
		t.Errorf("manual_review record missing or wrong: %+v", got.Metadata.ManualReview)
	}
	if got.Metadata.AIReview == nil {
		t.Error("manual review clobbered the ai_review record")
	}
}

func TestManualReviewRequiresAIApproved(t *testing.T) {
	q := reviewQuestion(1, model.QuestionStatusAIReviewing)
	store := newFakeReviewStore(1, q)
	svc := newReviewService(store, &stubScorer{}, true)

	if _, err := svc.ManualReview(context.Background(), 1, q.ID, model.ReviewActionApprove, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLegacyApproveAndReject(t *testing.T) {
	approve := reviewQuestion(1, model.QuestionStatusPending)
	reject := reviewQuestion(1, model.QuestionStatusPending)
	store := newFakeReviewStore(1, approve, reject)
	svc := newReviewService(store, &stubScorer{}, true)

	got, err := svc.Approve(context.Background(), 1, approve.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != model.QuestionStatusApproved {
		t.Errorf("status = %s, want approved", got.Status)
	}

	got, err = svc.Reject(context.Background(), 1, reject.ID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got.Status != model.QuestionStatusRejected {
		t.Errorf("status = %s, want rejected", got.Status)
	}

	// Terminal states are final on this path.
	if _, err := svc.Approve(context.Background(), 1, approve.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("re-approve err = %v, want ErrNotFound", err)
	}
}
