package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/PabloGalante/onestep/internal/adapters/http"
	"github.com/PabloGalante/onestep/internal/adapters/llm"
	"github.com/PabloGalante/onestep/internal/adapters/storage/memory"
	"github.com/PabloGalante/onestep/internal/app/journal"
	"github.com/PabloGalante/onestep/internal/app/session"
	"github.com/PabloGalante/onestep/internal/app/steps"
	"github.com/PabloGalante/onestep/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var today = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type testServer struct {
	handler http.Handler
	journal *journal.Service
}

func newTestServer(t *testing.T, gen domain.ResponseGenerator, limit httpadapter.RateLimit) *testServer {
	t.Helper()

	mock := llm.NewMockLLM()
	if gen == nil {
		gen = llm.NewGenerator(mock)
	}
	journalSvc := journal.NewService(memory.NewJournalStore(), memory.NewUsageStore()).
		WithClock(func() time.Time { return today })
	registry := session.NewRegistry(gen, journalSvc, session.Options{})
	t.Cleanup(registry.CloseAll)

	return &testServer{
		handler: httpadapter.NewServer(httpadapter.Deps{
			Registry:  registry,
			Journal:   journalSvc,
			Steps:     steps.NewService(mock),
			Generator: gen,
			RateLimit: limit,
			Now:       func() time.Time { return today },
		}),
		journal: journalSvc,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type messageResponse struct {
	Mode      domain.TurnMode      `json:"mode"`
	Reply     *domain.Message      `json:"reply"`
	Completed bool                 `json:"completed"`
	Entry     *domain.JournalEntry `json:"journal_entry"`
	View      domain.View          `json:"view"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil, httpadapter.RateLimit{})
	w := srv.do(t, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSessionFlowToJournal(t *testing.T) {
	srv := newTestServer(t, nil, httpadapter.RateLimit{})

	w := srv.do(t, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decode[domain.View](t, w)
	assert.Equal(t, domain.StateIdle, view.State)
	assert.Equal(t, 1, view.StreakDays)

	path := "/sessions/" + string(view.SessionID) + "/messages"

	w = srv.do(t, http.MethodPost, path, map[string]string{"text": "clean my room"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[messageResponse](t, w)
	assert.Equal(t, domain.ModeStart, res.Mode)
	assert.Equal(t, domain.StateActive, res.View.State)
	assert.False(t, res.View.CheckinArmed)

	w = srv.do(t, http.MethodPost, path, map[string]string{"text": "ok I'm done for today"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res = decode[messageResponse](t, w)
	assert.Equal(t, domain.StateAwaitingWrapup, res.View.State)
	assert.True(t, res.View.CheckinArmed)

	w = srv.do(t, http.MethodPost, path, map[string]string{"text": "yep"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res = decode[messageResponse](t, w)
	assert.True(t, res.Completed)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "clean my room", res.Entry.Task)
	assert.Equal(t, 6, res.Entry.MessageCount)
	assert.Equal(t, domain.StateIdle, res.View.State)
	assert.False(t, res.View.CheckinArmed)
	assert.NotContains(t, res.Reply.Content, "[SESSION_COMPLETE]")

	w = srv.do(t, http.MethodGet, "/journal", nil)
	require.Equal(t, http.StatusOK, w.Code)
	j := decode[struct {
		Entries    []*domain.JournalEntry `json:"entries"`
		StreakDays int                    `json:"streak_days"`
	}](t, w)
	require.Len(t, j.Entries, 1)
	assert.Equal(t, 1, j.StreakDays)

	w = srv.do(t, http.MethodDelete, "/journal/"+string(j.Entries[0].ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = srv.do(t, http.MethodDelete, "/journal/"+string(j.Entries[0].ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestQuestionFirstMessageRejected(t *testing.T) {
	srv := newTestServer(t, nil, httpadapter.RateLimit{})
	view := decode[domain.View](t, srv.do(t, http.MethodPost, "/sessions", nil))

	w := srv.do(t, http.MethodPost, "/sessions/"+string(view.SessionID)+"/messages",
		map[string]string{"text": "how do I start my essay?"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "question", decode[errorResponse](t, w).Error)

	w = srv.do(t, http.MethodGet, "/sessions/"+string(view.SessionID), nil)
	got := decode[domain.View](t, w)
	assert.Empty(t, got.Messages)
	assert.Equal(t, domain.StateIdle, got.State)
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t, nil, httpadapter.RateLimit{})

	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/sessions/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodDelete, "/sessions/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound,
		srv.do(t, http.MethodPost, "/sessions/nope/messages", map[string]string{"text": "hi"}).Code)
}

func TestCloseSession(t *testing.T) {
	srv := newTestServer(t, nil, httpadapter.RateLimit{})
	view := decode[domain.View](t, srv.do(t, http.MethodPost, "/sessions", map[string]string{"task": "laundry"}))
	assert.Equal(t, domain.StateActive, view.State)
	assert.True(t, view.CheckinArmed)

	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/sessions/"+string(view.SessionID), nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/sessions/"+string(view.SessionID), nil).Code)
}

func TestStepsEndpoints(t *testing.T) {
	srv := newTestServer(t, nil, httpadapter.RateLimit{})

	w := srv.do(t, http.MethodPost, "/api/steps", map[string]any{"goal": "write my essay", "taskType": "writing"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	step := decode[steps.Step](t, w)
	assert.NotEmpty(t, step.Step)
	assert.NotEmpty(t, step.Why)

	w = srv.do(t, http.MethodPost, "/api/steps/smaller", map[string]any{"goal": "write my essay", "previous": step.Step})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = srv.do(t, http.MethodPost, "/api/steps", map[string]any{"goal": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateEndpointServesRemoteGenerator(t *testing.T) {
	srv := newTestServer(t, nil, httpadapter.RateLimit{})
	ts := httptest.NewServer(srv.handler)
	defer ts.Close()

	remote := llm.NewRemoteGenerator(ts.URL, ts.Client())
	ctx := context.Background()

	text, err := remote.Generate(ctx, domain.TurnRequest{Mode: domain.ModeStart, Task: "clean my room"})
	require.NoError(t, err)
	assert.NotEmpty(t, text)

	_, err = remote.Generate(ctx, domain.TurnRequest{Mode: domain.ModeStart, Task: "what should I do?"})
	rej, ok := domain.IsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "question", rej.Reason)

	_, err = remote.Generate(ctx, domain.TurnRequest{Mode: domain.ModeStart, Task: ""})
	_, ok = domain.IsRejection(err)
	assert.True(t, ok)
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, nil, httpadapter.RateLimit{Requests: 2, Window: time.Hour})
	body := map[string]any{"goal": "laundry"}

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/steps", body).Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/steps", body).Code)

	w := srv.do(t, http.MethodPost, "/api/steps", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "slow_down", decode[errorResponse](t, w).Error)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Unlimited routes are unaffected.
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/healthz", nil).Code)
}

type blockingGen struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *blockingGen) Generate(ctx context.Context, req domain.TurnRequest) (string, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return "ok, go", nil
}

func TestSecondMessageWhileInFlight(t *testing.T) {
	gen := &blockingGen{entered: make(chan struct{}), release: make(chan struct{})}
	srv := newTestServer(t, gen, httpadapter.RateLimit{})
	view := decode[domain.View](t, srv.do(t, http.MethodPost, "/sessions", nil))
	path := "/sessions/" + string(view.SessionID) + "/messages"

	done := make(chan int, 1)
	go func() {
		done <- srv.do(t, http.MethodPost, path, map[string]string{"text": "laundry"}).Code
	}()
	<-gen.entered

	w := srv.do(t, http.MethodPost, path, map[string]string{"text": "another"})
	assert.Equal(t, http.StatusConflict, w.Code)

	typing := decode[domain.View](t, srv.do(t, http.MethodGet, "/sessions/"+string(view.SessionID), nil))
	assert.True(t, typing.IsTyping)
	assert.Equal(t, domain.MoodThinking, typing.Mood)

	close(gen.release)
	assert.Equal(t, http.StatusOK, <-done)
}
