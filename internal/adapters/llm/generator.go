package llm

import (
	"context"
	"strings"

	"github.com/PabloGalante/onestep/internal/app/classify"
	"github.com/PabloGalante/onestep/internal/domain"
	"github.com/PabloGalante/onestep/internal/observability"
)

// Generator implements domain.ResponseGenerator on top of any LLMClient.
type Generator struct {
	client domain.LLMClient
}

func NewGenerator(client domain.LLMClient) *Generator {
	return &Generator{client: client}
}

// Generate validates start-mode tasks, builds the mode prompt and calls the model.
func (g *Generator) Generate(ctx context.Context, req domain.TurnRequest) (string, error) {
	log := observability.LoggerFromContext(ctx).With("mode", req.Mode)

	if req.Mode == domain.ModeStart {
		task := strings.TrimSpace(req.Task)
		if task == "" {
			return "", &domain.RejectionError{Reason: "missing_task", Message: "tell me what you want to get done first 😊"}
		}
		if classify.QuestionLike(task) {
			log.Info("start task looks like a question")
			return "", &domain.RejectionError{Reason: "question", Message: classify.QuestionRejection}
		}
	}

	text, err := g.client.GenerateReply(ctx, BuildPrompt(req))
	if err != nil {
		log.Error("llm call failed", "error", err)
		return "", &domain.GenerationError{Mode: req.Mode, Err: err}
	}
	return strings.TrimSpace(text), nil
}
