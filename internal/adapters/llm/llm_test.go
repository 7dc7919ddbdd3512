package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/onestep/internal/adapters/llm"
	"github.com/PabloGalante/onestep/internal/app/classify"
	"github.com/PabloGalante/onestep/internal/domain"
)

type countingClient struct {
	calls   int
	last    domain.Prompt
	reply   string
	failure error
}

func (c *countingClient) GenerateReply(ctx context.Context, p domain.Prompt) (string, error) {
	c.calls++
	c.last = p
	return c.reply, c.failure
}

var recent = []domain.RecentMessage{
	{Role: domain.RoleUser, Content: "clean my room"},
	{Role: domain.RoleAssistant, Content: "pick up one sock"},
}

func TestBuildPromptPerMode(t *testing.T) {
	start := llm.BuildPrompt(domain.TurnRequest{Mode: domain.ModeStart, Task: "clean my room"})
	assert.Contains(t, start.User, `"clean my room"`)
	assert.Contains(t, start.User, "first step")
	assert.Contains(t, start.System, "OneStep")
	assert.Equal(t, int32(256), start.MaxTokens)

	checkin := llm.BuildPrompt(domain.TurnRequest{Mode: domain.ModeCheckIn, Task: "clean my room", RecentMessages: recent})
	assert.Contains(t, checkin.User, "them: clean my room")
	assert.Contains(t, checkin.User, "me: pick up one sock")

	road := llm.BuildPrompt(domain.TurnRequest{Mode: domain.ModeRoadblock, Task: "taxes", UserMessage: "I'm stuck"})
	assert.Contains(t, road.User, "Someone is stuck on")

	wrap := llm.BuildPrompt(domain.TurnRequest{Mode: domain.ModeConversation, Task: "taxes", UserMessage: "yep", AwaitingWrapup: true})
	assert.Contains(t, wrap.User, classify.CompletionMarker)

	conv := llm.BuildPrompt(domain.TurnRequest{Mode: domain.ModeConversation, Task: "taxes", UserMessage: "ok", RecentMessages: recent})
	assert.Contains(t, conv.User, "mid-conversation")
	assert.NotContains(t, conv.User, classify.CompletionMarker)
}

func TestGeneratorRejectsQuestionWithoutCallingModel(t *testing.T) {
	client := &countingClient{reply: "unused"}
	gen := llm.NewGenerator(client)

	_, err := gen.Generate(context.Background(), domain.TurnRequest{Mode: domain.ModeStart, Task: "how do I start?"})

	rej, ok := domain.IsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "question", rej.Reason)
	assert.Equal(t, 0, client.calls)
}

func TestGeneratorWrapsFailures(t *testing.T) {
	client := &countingClient{failure: errors.New("quota")}
	gen := llm.NewGenerator(client)

	_, err := gen.Generate(context.Background(), domain.TurnRequest{Mode: domain.ModeConversation, Task: "taxes", UserMessage: "hi"})

	var gerr *domain.GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, domain.ModeConversation, gerr.Mode)
	assert.EqualError(t, errors.Unwrap(err), "quota")
}

func TestGeneratorTrimsReply(t *testing.T) {
	gen := llm.NewGenerator(&countingClient{reply: "\n  go for it \n"})
	text, err := gen.Generate(context.Background(), domain.TurnRequest{Mode: domain.ModeCheckIn, Task: "taxes"})
	require.NoError(t, err)
	assert.Equal(t, "go for it", text)
}

func TestMockWrapupFlow(t *testing.T) {
	gen := llm.NewGenerator(llm.NewMockLLM())
	ctx := context.Background()

	ask, err := gen.Generate(ctx, domain.TurnRequest{Mode: domain.ModeConversation, Task: "taxes", UserMessage: "ok I'm done for today"})
	require.NoError(t, err)
	assert.True(t, classify.AsksWrapup(ask))

	done, err := gen.Generate(ctx, domain.TurnRequest{Mode: domain.ModeConversation, Task: "taxes", UserMessage: "yep", AwaitingWrapup: true})
	require.NoError(t, err)
	_, found := classify.StripCompletion(done)
	assert.True(t, found)

	keep, err := gen.Generate(ctx, domain.TurnRequest{Mode: domain.ModeConversation, Task: "taxes", UserMessage: "not yet", AwaitingWrapup: true})
	require.NoError(t, err)
	_, found = classify.StripCompletion(keep)
	assert.False(t, found)
}

func TestRemoteGenerator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req domain.TurnRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		switch req.Task {
		case "question":
			_ = json.NewEncoder(w).Encode(llm.GenerateResponse{Error: "question", Message: "try a task"})
		case "boom":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"internal"}`))
		default:
			_ = json.NewEncoder(w).Encode(llm.GenerateResponse{Text: "reply for " + req.Task})
		}
	}))
	defer srv.Close()

	gen := llm.NewRemoteGenerator(srv.URL+"/", srv.Client())
	ctx := context.Background()

	text, err := gen.Generate(ctx, domain.TurnRequest{Mode: domain.ModeStart, Task: "laundry"})
	require.NoError(t, err)
	assert.Equal(t, "reply for laundry", text)

	_, err = gen.Generate(ctx, domain.TurnRequest{Mode: domain.ModeStart, Task: "question"})
	rej, ok := domain.IsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "try a task", rej.Message)

	_, err = gen.Generate(ctx, domain.TurnRequest{Mode: domain.ModeConversation, Task: "boom"})
	var gerr *domain.GenerationError
	assert.ErrorAs(t, err, &gerr)
}
