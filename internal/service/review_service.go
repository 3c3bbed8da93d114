package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/itemforge/itemforge-backend/internal/model"
)

// reviewStore is the slice of the question store the review gate needs.
type reviewStore interface {
	GetOwned(ctx context.Context, id uuid.UUID, ownerID int) (*model.Question, error)
	GetOwnedInStatus(ctx context.Context, id uuid.UUID, ownerID int, status model.QuestionStatus) (*model.Question, error)
	ApplyAIReview(ctx context.Context, id uuid.UUID, from *model.QuestionStatus, to model.QuestionStatus, qualityScore float64, meta model.ReviewMetadata) (bool, error)
	ApplyManualReview(ctx context.Context, id uuid.UUID, from, to model.QuestionStatus, meta model.ReviewMetadata) (bool, error)
}

// ReviewService drives single-question review transitions. Every operation is
// scoped to the caller's own questions; a foreign, missing, or wrong-state
// question uniformly yields ErrNotFound.
type ReviewService struct {
	store  reviewStore
	engine *ReviewEngine
	// strict requires ai_reviewing as the AI review source state. When
	// disabled, already-gated questions can be re-scored.
	strict bool
	log    zerolog.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(store reviewStore, engine *ReviewEngine, strict bool, log zerolog.Logger) *ReviewService {
	return &ReviewService{
		store:  store,
		engine: engine,
		strict: strict,
		log:    log.With().Str("component", "review_service").Logger(),
	}
}

// AIReview scores one question and applies the outcome:
// ai_reviewing → ai_approved | ai_rejected, quality_score = score/100, and an
// ai_review metadata record. Any existing manual_review record is preserved.
func (s *ReviewService) AIReview(ctx context.Context, callerID int, id uuid.UUID) (*model.Question, error) {
	var (
		q   *model.Question
		err error
	)
	if s.strict {
		q, err = s.store.GetOwnedInStatus(ctx, id, callerID, model.QuestionStatusAIReviewing)
	} else {
		q, err = s.store.GetOwned(ctx, id, callerID)
	}
	if err != nil {
		return nil, mapStoreErr(err)
	}

	result, err := s.engine.ReviewOne(ctx, q)
	if err != nil {
		return nil, err
	}

	to := model.QuestionStatusAIRejected
	if result.Passed {
		to = model.QuestionStatusAIApproved
	}

	meta := q.Metadata
	meta.AIReview = &model.AIReviewRecord{
		Score:       result.Score,
		Passed:      result.Passed,
		Issues:      result.Issues,
		Suggestions: result.Suggestions,
		ReviewedAt:  time.Now().UTC(),
	}

	// In strict mode the write re-checks the source status, excluding any
	// question whose state moved between the read and the write.
	var from *model.QuestionStatus
	if s.strict {
		required := model.QuestionStatusAIReviewing
		from = &required
	}

	applied, err := s.store.ApplyAIReview(ctx, q.ID, from, to, result.Score/100, meta)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrNotFound
	}

	q.Status = to
	q.QualityScore = result.Score / 100
	q.Metadata = meta
	return q, nil
}

// ManualReview records the terminal human decision on a question that has
// cleared the AI gate: ai_approved → approved | rejected.
func (s *ReviewService) ManualReview(ctx context.Context, callerID int, id uuid.UUID, action model.ReviewAction, reason string) (*model.Question, error) {
	return s.humanDecision(ctx, callerID, id, model.QuestionStatusAIApproved, action, reason)
}

// Approve moves a directly inserted question along the legacy path
// pending → approved, without an AI gate.
func (s *ReviewService) Approve(ctx context.Context, callerID int, id uuid.UUID) (*model.Question, error) {
	return s.humanDecision(ctx, callerID, id, model.QuestionStatusPending, model.ReviewActionApprove, "")
}

// Reject moves a directly inserted question along the legacy path
// pending → rejected, without an AI gate.
func (s *ReviewService) Reject(ctx context.Context, callerID int, id uuid.UUID) (*model.Question, error) {
	return s.humanDecision(ctx, callerID, id, model.QuestionStatusPending, model.ReviewActionReject, "")
}

func (s *ReviewService) humanDecision(ctx context.Context, callerID int, id uuid.UUID, from model.QuestionStatus, action model.ReviewAction, reason string) (*model.Question, error) {
	q, err := s.store.GetOwnedInStatus(ctx, id, callerID, from)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	to := model.QuestionStatusRejected
	if action == model.ReviewActionApprove {
		to = model.QuestionStatusApproved
	}

	meta := q.Metadata
	meta.ManualReview = &model.ManualReviewRecord{
		Action:     action,
		Reason:     reason,
		ReviewerID: callerID,
		ReviewedAt: time.Now().UTC(),
	}

	applied, err := s.store.ApplyManualReview(ctx, q.ID, from, to, meta)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrNotFound
	}

	q.Status = to
	q.Metadata = meta
	return q, nil
}

// mapStoreErr folds the store's no-rows result into the uniform not-found
// error every ineligible lookup produces.
func mapStoreErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
