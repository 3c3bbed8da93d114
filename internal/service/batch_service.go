package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/itemforge/itemforge-backend/internal/model"
)

// batchStore is the slice of the question store batch operations need.
type batchStore interface {
	ListOwnedInStatus(ctx context.Context, ids []uuid.UUID, ownerID int, status model.QuestionStatus) ([]model.Question, error)
	ApplyAIReview(ctx context.Context, id uuid.UUID, from *model.QuestionStatus, to model.QuestionStatus, qualityScore float64, meta model.ReviewMetadata) (bool, error)
	BulkManualReview(ctx context.Context, ids []uuid.UUID, from, to model.QuestionStatus, rec model.ManualReviewRecord) (int64, error)
	DeleteOwned(ctx context.Context, ids []uuid.UUID, ownerID int) (int64, error)
}

// BatchService applies review operations across sets of question IDs. IDs
// that don't exist, belong to someone else, or sit in the wrong state are
// silently excluded during resolution; the result reports aggregate counts
// only. The whole batch fails only when nothing at all is eligible or the
// bulk statement itself errors.
type BatchService struct {
	store  batchStore
	engine *ReviewEngine
	log    zerolog.Logger
}

// NewBatchService creates a new BatchService.
func NewBatchService(store batchStore, engine *ReviewEngine, log zerolog.Logger) *BatchService {
	return &BatchService{
		store:  store,
		engine: engine,
		log:    log.With().Str("component", "batch_service").Logger(),
	}
}

// AIReview scores every eligible question (one scoring call each) and applies
// the outcomes with one store update per question. The updates run
// concurrently and independently; one failed write neither rolls back nor
// blocks the rest.
func (s *BatchService) AIReview(ctx context.Context, callerID int, ids []uuid.UUID) (*model.BatchResult, error) {
	eligible, err := s.store.ListOwnedInStatus(ctx, ids, callerID, model.QuestionStatusAIReviewing)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return nil, ErrNoEligibleItems
	}

	results := s.engine.ReviewBatch(ctx, eligible)

	from := model.QuestionStatusAIReviewing
	reviewedAt := time.Now().UTC()

	var (
		wg        sync.WaitGroup
		attempted int
		succeeded atomic.Int64
	)
	for i := range eligible {
		q := eligible[i]
		result, ok := results[q.ID]
		if !ok {
			continue // not reviewed, nothing to write
		}
		attempted++

		wg.Add(1)
		go func() {
			defer wg.Done()

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
				ReviewedAt:  reviewedAt,
			}

			applied, err := s.store.ApplyAIReview(ctx, q.ID, &from, to, result.Score/100, meta)
			if err != nil {
				s.log.Error().Err(err).Str("question_id", q.ID.String()).Msg("AI review write failed")
				return
			}
			if applied {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	done := int(succeeded.Load())
	return &model.BatchResult{
		Requested: len(ids),
		Attempted: attempted,
		Succeeded: done,
		Failed:    attempted - done,
	}, nil
}

// ManualReview applies one human decision across the eligible subset with a
// single conditional bulk update (ai_approved → approved | rejected). Items
// whose state changed between resolution and write drop out atomically.
func (s *BatchService) ManualReview(ctx context.Context, callerID int, ids []uuid.UUID, action model.ReviewAction, reason string) (*model.BatchResult, error) {
	return s.bulkDecision(ctx, callerID, ids, model.QuestionStatusAIApproved, action, reason)
}

// Approve moves directly inserted questions along the legacy batch path
// pending → approved.
func (s *BatchService) Approve(ctx context.Context, callerID int, ids []uuid.UUID) (*model.BatchResult, error) {
	return s.bulkDecision(ctx, callerID, ids, model.QuestionStatusPending, model.ReviewActionApprove, "")
}

func (s *BatchService) bulkDecision(ctx context.Context, callerID int, ids []uuid.UUID, from model.QuestionStatus, action model.ReviewAction, reason string) (*model.BatchResult, error) {
	eligible, err := s.store.ListOwnedInStatus(ctx, ids, callerID, from)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return nil, ErrNoEligibleItems
	}

	eligibleIDs := make([]uuid.UUID, len(eligible))
	for i := range eligible {
		eligibleIDs[i] = eligible[i].ID
	}

	to := model.QuestionStatusRejected
	if action == model.ReviewActionApprove {
		to = model.QuestionStatusApproved
	}

	moved, err := s.store.BulkManualReview(ctx, eligibleIDs, from, to, model.ManualReviewRecord{
		Action:     action,
		Reason:     reason,
		ReviewerID: callerID,
		ReviewedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	return &model.BatchResult{
		Requested: len(ids),
		Attempted: len(eligible),
		Succeeded: int(moved),
		Failed:    len(eligible) - int(moved),
	}, nil
}

// Delete removes every requested question the caller owns, in one statement.
// Status is not a gate for deletion; ownership and existence are.
func (s *BatchService) Delete(ctx context.Context, callerID int, ids []uuid.UUID) (*model.BatchResult, error) {
	deleted, err := s.store.DeleteOwned(ctx, ids, callerID)
	if err != nil {
		return nil, err
	}
	if deleted == 0 {
		return nil, ErrNoEligibleItems
	}

	return &model.BatchResult{
		Requested: len(ids),
		Attempted: len(ids),
		Succeeded: int(deleted),
		Failed:    len(ids) - int(deleted),
	}, nil
}
