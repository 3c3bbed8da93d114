package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/itemforge/itemforge-backend/internal/model"
)

// ScoreClient is the external scoring service contract.
type ScoreClient interface {
	Score(ctx context.Context, q *model.Question) (*model.ReviewResult, error)
}

// ReviewEngine scores questions via the external scoring service. It only
// produces ReviewResults; persisting them onto questions is the caller's job.
type ReviewEngine struct {
	scorer ScoreClient
	log    zerolog.Logger
}

// NewReviewEngine creates a new ReviewEngine.
func NewReviewEngine(scorer ScoreClient, log zerolog.Logger) *ReviewEngine {
	return &ReviewEngine{
		scorer: scorer,
		log:    log.With().Str("component", "review_engine").Logger(),
	}
}

// ReviewOne scores a single question.
func (e *ReviewEngine) ReviewOne(ctx context.Context, q *model.Question) (*model.ReviewResult, error) {
	return e.scorer.Score(ctx, q)
}

// ReviewBatch scores each question with its own call and aggregates results
// keyed by question ID. A question whose scoring call fails is logged and
// left out of the map; callers treat absence as "not reviewed" and skip the
// corresponding write.
func (e *ReviewEngine) ReviewBatch(ctx context.Context, questions []model.Question) map[uuid.UUID]model.ReviewResult {
	results := make(map[uuid.UUID]model.ReviewResult, len(questions))
	for i := range questions {
		q := &questions[i]
		result, err := e.scorer.Score(ctx, q)
		if err != nil {
			e.log.Warn().Err(err).Str("question_id", q.ID.String()).Msg("Scoring call failed, skipping question")
			continue
		}
		results[q.ID] = *result
	}
	return results
}
