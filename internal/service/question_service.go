package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/itemforge/itemforge-backend/internal/model"
	"github.com/itemforge/itemforge-backend/internal/response"
)

// questionStore is the slice of the question store this service needs.
type questionStore interface {
	Create(ctx context.Context, q *model.Question) error
	GetOwned(ctx context.Context, id uuid.UUID, ownerID int) (*model.Question, error)
	ListByTask(ctx context.Context, taskID uuid.UUID, ownerID int) ([]model.Question, error)
	ListPublished(ctx context.Context, qType, difficulty string, limit, offset int) ([]model.Question, int, error)
}

// QuestionService handles question reads and the direct insert path. Directly
// inserted questions skip the AI gate and start at pending, where the legacy
// approve/reject transitions pick them up.
type QuestionService struct {
	store questionStore
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(store questionStore) *QuestionService {
	return &QuestionService{store: store}
}

// Create inserts a hand-written question at status pending.
func (s *QuestionService) Create(ctx context.Context, callerID int, req *model.CreateQuestionRequest) (*model.Question, error) {
	q := &model.Question{
		Type:           model.QuestionType(req.Type),
		Stem:           req.Stem,
		Options:        req.Options,
		Answer:         req.Answer,
		Difficulty:     model.NormalizeDifficulty(req.Difficulty),
		KnowledgeLevel: req.KnowledgeLevel,
		Status:         model.QuestionStatusPending,
		CreatedBy:      callerID,
	}
	if err := s.store.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Get returns one of the caller's questions.
func (s *QuestionService) Get(ctx context.Context, callerID int, id uuid.UUID) (*model.Question, error) {
	q, err := s.store.GetOwned(ctx, id, callerID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return q, nil
}

// ListByTask returns all question rows produced from one of the caller's tasks.
func (s *QuestionService) ListByTask(ctx context.Context, callerID int, taskID uuid.UUID) ([]model.Question, error) {
	qs, err := s.store.ListByTask(ctx, taskID, callerID)
	if err != nil {
		return nil, err
	}
	if qs == nil {
		qs = []model.Question{}
	}
	return qs, nil
}

// ListPublished returns the shared bank of approved questions, optionally
// filtered by type and difficulty.
func (s *QuestionService) ListPublished(ctx context.Context, qType, difficulty string, page, perPage int) ([]model.Question, *response.Pagination, error) {
	page, perPage = clampPage(page, perPage)
	if difficulty != "" {
		difficulty = model.NormalizeDifficulty(difficulty)
	}

	qs, total, err := s.store.ListPublished(ctx, qType, difficulty, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if qs == nil {
		qs = []model.Question{}
	}

	return qs, paginate(page, perPage, total), nil
}
