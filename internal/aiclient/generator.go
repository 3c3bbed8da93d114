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

// Generator produces one candidate question per call from source material.
// The model is forced into a tool call so the output is structured JSON.
type Generator struct {
	client *openai.Client
	model  string
}

// NewGenerator creates a Generator from the AI configuration.
func NewGenerator(cfg config.AIConfig) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Generator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.GenerationModel,
	}
}

var questionTypeLabels = map[model.QuestionType]string{
	model.QuestionTypeSingleChoice: "single-choice question with exactly 4 options and one correct option",
	model.QuestionTypeMultiChoice:  "multiple-choice question with exactly 4 options and two or more correct options",
	model.QuestionTypeTrueFalse:    "true/false statement with the two options \"true\" and \"false\"",
}

// Generate calls the external generation service for one question slot.
// May fail or return an invalid result; the caller owns retry policy.
func (g *Generator) Generate(ctx context.Context, content string, qType model.QuestionType, difficulty, knowledgePointTitle string) (*model.CandidateQuestion, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert exam item writer. Generate one high-quality exam question strictly grounded in the provided source material.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildGenerationPrompt(content, qType, difficulty, knowledgePointTitle),
			},
		},
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        "submit_question",
					Description: "Submit the generated exam question",
					Parameters: map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"stem": map[string]interface{}{
								"type":        "string",
								"description": "The question text",
							},
							"options": map[string]interface{}{
								"type":        "array",
								"items":       map[string]interface{}{"type": "string"},
								"description": "The answer options, in display order",
							},
							"answer": map[string]interface{}{
								"type":        "string",
								"description": "The correct option letter(s), e.g. \"A\" or \"AC\"",
							},
							"knowledge_level": map[string]interface{}{
								"type":        "string",
								"description": "Cognitive level tag: recall, comprehension, or application",
							},
						},
						"required": []string{"stem", "options", "answer"},
					},
				},
			},
		},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: "submit_question"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generation call: %w", err)
	}

	args, err := extractToolArguments(resp, "submit_question")
	if err != nil {
		return nil, err
	}

	var out struct {
		Stem           string   `json:"stem"`
		Options        []string `json:"options"`
		Answer         string   `json:"answer"`
		KnowledgeLevel string   `json:"knowledge_level"`
	}
	if err := json.Unmarshal([]byte(args), &out); err != nil {
		return nil, fmt.Errorf("parse tool arguments: %w", err)
	}

	if out.Stem == "" || len(out.Options) < 2 || out.Answer == "" {
		return nil, fmt.Errorf("generation returned an incomplete question")
	}

	return &model.CandidateQuestion{
		Type:           qType,
		Stem:           out.Stem,
		Options:        out.Options,
		Answer:         out.Answer,
		Difficulty:     difficulty,
		KnowledgeLevel: out.KnowledgeLevel,
	}, nil
}

func buildGenerationPrompt(content string, qType model.QuestionType, difficulty, knowledgePointTitle string) string {
	var sb strings.Builder

	sb.WriteString("Generate one ")
	sb.WriteString(questionTypeLabels[qType])
	sb.WriteString(".\n\n")

	sb.WriteString("Source material:\n")
	sb.WriteString(content)
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Difficulty (易=easy, 中=medium, 难=hard): %s\n", difficulty)
	if knowledgePointTitle != "" {
		fmt.Fprintf(&sb, "Focus on this knowledge point: %s\n", knowledgePointTitle)
	}

	sb.WriteString("\nRequirements:\n")
	sb.WriteString("- The answer must be derivable from the source material alone\n")
	sb.WriteString("- Incorrect options must be plausible but clearly wrong\n")
	sb.WriteString("- Do not give the answer away in the question text\n")
	sb.WriteString("- Use the submit_question tool to return the question\n")

	return sb.String()
}

// extractToolArguments pulls the arguments of the expected tool call out of a
// chat completion, guarding against empty or mismatched responses.
func extractToolArguments(resp openai.ChatCompletionResponse, toolName string) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return "", fmt.Errorf("no tool calls in response")
	}
	if calls[0].Function.Name != toolName {
		return "", fmt.Errorf("unexpected tool call: %s", calls[0].Function.Name)
	}
	return calls[0].Function.Arguments, nil
}
