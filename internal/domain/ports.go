package domain

import "context"

// Prompt is the system prompt + the content to send as "user".
type Prompt struct {
	System      string
	User        string
	MaxTokens   int32
	Temperature float32
}

// LLMClient defines how the core application interacts with an LLM service.
type LLMClient interface {
	GenerateReply(ctx context.Context, p Prompt) (string, error)
}

// TurnRequest is what the session hands to the response generator for one turn.
type TurnRequest struct {
	Mode           TurnMode        `json:"mode"`
	Task           string          `json:"task"`
	UserMessage    string          `json:"userMessage"`
	RecentMessages []RecentMessage `json:"recentMessages"`
	AwaitingWrapup bool            `json:"awaitingWrapup"`
}

// ResponseGenerator produces reply text for a turn. A start-mode request may be
// refused with a *RejectionError; transport problems surface as *GenerationError.
type ResponseGenerator interface {
	Generate(ctx context.Context, req TurnRequest) (string, error)
}

// JournalRecorder receives finalized session records.
type JournalRecorder interface {
	Record(ctx context.Context, entry *JournalEntry) error
}
