package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus enumerates the possible states of a generation task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// GenerationTask is one generation run scoped to a material and a parameter
// set. It is mutated exclusively by the worker that claimed it; progress is
// monotonically non-decreasing while the task is pending/processing.
type GenerationTask struct {
	ID                uuid.UUID   `json:"id"`
	MaterialID        uuid.UUID   `json:"material_id"`
	QuestionCount     int         `json:"question_count"`
	QuestionTypes     []string    `json:"question_types"`
	Difficulty        string      `json:"difficulty"`
	KnowledgePointIDs []uuid.UUID `json:"knowledge_point_ids,omitempty"`
	Status            TaskStatus  `json:"status"`
	Progress          int         `json:"progress"`
	Result            *TaskResult `json:"result,omitempty"`
	CreatedBy         int         `json:"created_by"`
	CreatedAt         time.Time   `json:"created_at"`
	CompletedAt       *time.Time  `json:"completed_at,omitempty"`
}

// TaskResult is the jsonb result payload of a finished task. For completed
// tasks it carries the in-memory candidate list; for failed tasks only Error
// is set.
type TaskResult struct {
	GeneratedCount int                 `json:"generated_count"`
	SuccessRate    float64             `json:"success_rate"`
	Questions      []CandidateQuestion `json:"questions,omitempty"`
	Error          string              `json:"error,omitempty"`
}

// CandidateQuestion is a generated question held inside a task result. It is
// not a Question row yet; submit-for-review turns candidates into rows.
type CandidateQuestion struct {
	Type           QuestionType `json:"type"`
	Stem           string       `json:"stem"`
	Options        []string     `json:"options"`
	Answer         string       `json:"answer"`
	Difficulty     string       `json:"difficulty"`
	KnowledgeLevel string       `json:"knowledge_level,omitempty"`
}

// CreateTaskRequest is the payload for starting a generation task.
type CreateTaskRequest struct {
	MaterialID        uuid.UUID   `json:"material_id" binding:"required"`
	QuestionCount     int         `json:"question_count" binding:"required,min=1,max=50"`
	QuestionTypes     []string    `json:"question_types" binding:"required,min=1,dive,oneof=single_choice multi_choice true_false"`
	Difficulty        string      `json:"difficulty" binding:"required,max=16"`
	KnowledgePointIDs []uuid.UUID `json:"knowledge_point_ids" binding:"omitempty"`
}

// Canonical difficulty scale used by the generation service.
const (
	DifficultyEasy   = "易"
	DifficultyMedium = "中"
	DifficultyHard   = "难"
)

// NormalizeDifficulty maps the client difficulty vocabulary onto the fixed
// three-value scale. Unrecognized values fall back to the middle value.
func NormalizeDifficulty(raw string) string {
	switch raw {
	case "easy", "简单", DifficultyEasy:
		return DifficultyEasy
	case "hard", "困难", DifficultyHard:
		return DifficultyHard
	case "medium", "中等", DifficultyMedium:
		return DifficultyMedium
	default:
		return DifficultyMedium
	}
}
