package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/PabloGalante/onestep/internal/domain"
)

// OpenAIClient implements domain.LLMClient against the chat completions API
// (or any compatible endpoint when baseURL is set).
type OpenAIClient struct {
	client openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model, baseURL string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

func (c *OpenAIClient) GenerateReply(ctx context.Context, p domain.Prompt) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.System),
			openai.UserMessage(p.User),
		},
	}
	if p.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(p.MaxTokens))
	}
	if p.Temperature > 0 {
		params.Temperature = openai.Float(float64(p.Temperature))
	}

	res, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	text := strings.TrimSpace(res.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai returned empty text")
	}
	return text, nil
}
