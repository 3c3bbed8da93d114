package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported exam item types.
type QuestionType string

const (
	QuestionTypeSingleChoice QuestionType = "single_choice"
	QuestionTypeMultiChoice  QuestionType = "multi_choice"
	QuestionTypeTrueFalse    QuestionType = "true_false"
)

// QuestionStatus enumerates the review pipeline states of a question.
//
// Valid transitions:
//
//	ai_reviewing → ai_approved | ai_rejected   (AI review outcome)
//	ai_approved  → approved    | rejected      (human decision)
//	pending      → approved    | rejected      (legacy direct path, no AI gate)
type QuestionStatus string

const (
	QuestionStatusAIReviewing QuestionStatus = "ai_reviewing"
	QuestionStatusAIApproved  QuestionStatus = "ai_approved"
	QuestionStatusAIRejected  QuestionStatus = "ai_rejected"
	QuestionStatusPending     QuestionStatus = "pending"
	QuestionStatusApproved    QuestionStatus = "approved"
	QuestionStatusRejected    QuestionStatus = "rejected"
)

// Question represents one candidate/published exam item.
type Question struct {
	ID             uuid.UUID      `json:"id"`
	TaskID         *uuid.UUID     `json:"task_id,omitempty"`
	Type           QuestionType   `json:"type"`
	Stem           string         `json:"stem"`
	Options        []string       `json:"options"`
	Answer         string         `json:"answer"`
	Difficulty     string         `json:"difficulty"`
	KnowledgeLevel string         `json:"knowledge_level,omitempty"`
	QualityScore   float64        `json:"quality_score"`
	Status         QuestionStatus `json:"status"`
	Metadata       ReviewMetadata `json:"metadata"`
	CreatedBy      int            `json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ReviewMetadata holds the question's review history as two fixed-shape
// records rather than an open map, so writers cannot drift apart.
type ReviewMetadata struct {
	AIReview     *AIReviewRecord     `json:"ai_review,omitempty"`
	ManualReview *ManualReviewRecord `json:"manual_review,omitempty"`
}

// AIReviewRecord is written once per AI review pass.
type AIReviewRecord struct {
	Score       float64   `json:"score"`
	Passed      bool      `json:"passed"`
	Issues      []string  `json:"issues,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
	ReviewedAt  time.Time `json:"reviewed_at"`
}

// ManualReviewRecord is written when a terminal human decision is recorded.
type ManualReviewRecord struct {
	Action     ReviewAction `json:"action"`
	Reason     string       `json:"reason,omitempty"`
	ReviewerID int          `json:"reviewer_id"`
	ReviewedAt time.Time    `json:"reviewed_at"`
}

// ReviewAction is the human decision on a question.
type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "approve"
	ReviewActionReject  ReviewAction = "reject"
)

// ReviewResult is the value produced by one AI scoring call. Score is on a
// 0-100 scale; the stored quality score is Score/100.
type ReviewResult struct {
	Score       float64  `json:"score"`
	Passed      bool     `json:"passed"`
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// CreateQuestionRequest is the payload for inserting a question directly,
// bypassing generation and the AI gate (initial status: pending).
type CreateQuestionRequest struct {
	Type           string   `json:"type" binding:"required,oneof=single_choice multi_choice true_false"`
	Stem           string   `json:"stem" binding:"required,min=1,max=2000"`
	Options        []string `json:"options" binding:"required,min=2,max=8,dive,min=1"`
	Answer         string   `json:"answer" binding:"required,max=64"`
	Difficulty     string   `json:"difficulty" binding:"required,max=16"`
	KnowledgeLevel string   `json:"knowledge_level" binding:"omitempty,max=64"`
}

// ManualReviewRequest is the payload for the human approve/reject decision.
type ManualReviewRequest struct {
	Action ReviewAction `json:"action" binding:"required,oneof=approve reject"`
	Reason string       `json:"reason" binding:"omitempty,max=1000"`
}

// BatchIDsRequest carries the target question IDs of a batch operation.
type BatchIDsRequest struct {
	QuestionIDs []uuid.UUID `json:"question_ids" binding:"required,min=1,max=200"`
}

// BatchManualReviewRequest is the payload for a batch human decision.
type BatchManualReviewRequest struct {
	QuestionIDs []uuid.UUID  `json:"question_ids" binding:"required,min=1,max=200"`
	Action      ReviewAction `json:"action" binding:"required,oneof=approve reject"`
	Reason      string       `json:"reason" binding:"omitempty,max=1000"`
}

// BatchResult is the aggregate summary returned by batch operations.
// Partial success is the expected outcome, not an error condition.
type BatchResult struct {
	Requested int `json:"requested"`
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
