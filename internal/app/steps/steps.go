// Package steps asks the model for one micro-step toward a goal, with a short
// reason it helps, and can shrink a step that still feels too big.
package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloGalante/onestep/internal/domain"
	"github.com/PabloGalante/onestep/internal/observability"
)

const stepSystemPrompt = `You break tasks into tiny steps for someone with ADHD. You answer with JSON only.`

// StepRequest describes the goal and what has been done so far.
type StepRequest struct {
	Goal      string   `json:"goal"`
	TaskType  string   `json:"taskType,omitempty"`
	Completed []string `json:"completed,omitempty"`
}

// Step is one micro-step and the reason it helps.
type Step struct {
	Step string `json:"step"`
	Why  string `json:"why"`
}

type Service struct {
	llm domain.LLMClient
}

func NewService(llm domain.LLMClient) *Service {
	return &Service{llm: llm}
}

// Next returns the next micro-step toward req.Goal.
func (s *Service) Next(ctx context.Context, req StepRequest) (*Step, error) {
	if strings.TrimSpace(req.Goal) == "" {
		return nil, domain.ErrEmptyInput
	}
	return s.ask(ctx, buildNextPrompt(req))
}

// Smaller returns an even smaller version of previous.
func (s *Service) Smaller(ctx context.Context, req StepRequest, previous string) (*Step, error) {
	if strings.TrimSpace(req.Goal) == "" || strings.TrimSpace(previous) == "" {
		return nil, domain.ErrEmptyInput
	}
	return s.ask(ctx, buildSmallerPrompt(req, previous))
}

func (s *Service) ask(ctx context.Context, user string) (*Step, error) {
	logger := observability.LoggerFromContext(ctx)

	text, err := s.llm.GenerateReply(ctx, domain.Prompt{
		System:      stepSystemPrompt,
		User:        user,
		MaxTokens:   256,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, &domain.GenerationError{Mode: "step", Err: err}
	}

	step, err := Parse(text)
	if err != nil {
		logger.Warn("step output could not be parsed", "raw_len", len(text))
		return nil, err
	}
	return step, nil
}

func buildNextPrompt(req StepRequest) string {
	return fmt.Sprintf(`The user wants to: %s
Task type: %s
Steps already completed:
%s

Generate TWO things as JSON:
{
  "step": "one micro first-step so small it feels embarrassing not to do. Under 15 words. Must match the task type context. Friendly tone. No preamble.",
  "why": "one sentence of real ADHD neuroscience (max 15 words) explaining why this tiny action helps ADHD brains. Reference dopamine, working memory, or executive function. No fluff."
}
Return only valid JSON.`, req.Goal, taskType(req), completedList(req.Completed))
}

func buildSmallerPrompt(req StepRequest, previous string) string {
	return fmt.Sprintf(`The user wants to: %s
Task type: %s
Steps already completed:
%s

Make the previous step even smaller:
%s

Generate TWO things as JSON:
{
  "step": "an even smaller micro-step, still under 15 words, that matches the task type. Friendly tone, no preamble.",
  "why": "one sentence of real ADHD neuroscience (max 15 words) explaining why this even smaller action helps ADHD brains. Reference dopamine, working memory, or executive function. No fluff."
}
Return only valid JSON.`, req.Goal, taskType(req), completedList(req.Completed), previous)
}

func taskType(req StepRequest) string {
	if req.TaskType == "" {
		return "general"
	}
	return req.TaskType
}

func completedList(done []string) string {
	if len(done) == 0 {
		return "none"
	}
	lines := make([]string, len(done))
	for i, s := range done {
		lines[i] = fmt.Sprintf("%d. %s", i+1, s)
	}
	return strings.Join(lines, "\n")
}
