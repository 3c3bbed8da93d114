package aiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/itemforge/itemforge-backend/internal/config"
	"github.com/itemforge/itemforge-backend/internal/model"
)

// Scorer calls the external scoring service for one question at a time and
// maps the verdict onto a ReviewResult.
type Scorer struct {
	client *openai.Client
	model  string
}

// NewScorer creates a Scorer from the AI configuration.
func NewScorer(cfg config.AIConfig) *Scorer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Scorer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.ScoringModel,
	}
}

// Score evaluates a question's quality on a 0-100 scale.
func (s *Scorer) Score(ctx context.Context, q *model.Question) (*model.ReviewResult, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a strict exam item reviewer. Score the question's clarity, correctness, and option quality.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildScoringPrompt(q),
			},
		},
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        "submit_review",
					Description: "Submit the review verdict",
					Parameters: map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"score": map[string]interface{}{
								"type":        "number",
								"description": "Overall quality score from 0 to 100",
							},
							"passed": map[string]interface{}{
								"type":        "boolean",
								"description": "Whether the question meets the publication bar",
							},
							"issues": map[string]interface{}{
								"type":  "array",
								"items": map[string]interface{}{"type": "string"},
							},
							"suggestions": map[string]interface{}{
								"type":  "array",
								"items": map[string]interface{}{"type": "string"},
							},
						},
						"required": []string{"score", "passed"},
					},
				},
			},
		},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: "submit_review"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scoring call: %w", err)
	}

	args, err := extractToolArguments(resp, "submit_review")
	if err != nil {
		return nil, err
	}

	var result model.ReviewResult
	if err := json.Unmarshal([]byte(args), &result); err != nil {
		return nil, fmt.Errorf("parse tool arguments: %w", err)
	}

	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 100 {
		result.Score = 100
	}

	return &result, nil
}

func buildScoringPrompt(q *model.Question) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Review this %s exam question.\n\n", q.Type)
	fmt.Fprintf(&sb, "Stem: %s\n", q.Stem)
	for i, opt := range q.Options {
		fmt.Fprintf(&sb, "%c. %s\n", 'A'+i, opt)
	}
	fmt.Fprintf(&sb, "Correct answer: %s\n", q.Answer)
	fmt.Fprintf(&sb, "Difficulty: %s\n", q.Difficulty)

	sb.WriteString("\nScore 0-100 and decide pass/fail. List concrete issues and ")
	sb.WriteString("improvement suggestions. Use the submit_review tool to respond.")

	return sb.String()
}
