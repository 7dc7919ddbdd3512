package httpadapter

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PabloGalante/onestep/internal/adapters/llm"
	"github.com/PabloGalante/onestep/internal/app/steps"
	"github.com/PabloGalante/onestep/internal/domain"
	"github.com/PabloGalante/onestep/internal/observability"
)

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type createSessionRequest struct {
	// Task resumes an existing task instead of starting idle.
	Task string `json:"task,omitempty"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	Mode        domain.TurnMode      `json:"mode"`
	UserMessage domain.Message       `json:"user_message"`
	Reply       *domain.Message      `json:"reply,omitempty"`
	Completed   bool                 `json:"completed"`
	Entry       *domain.JournalEntry `json:"journal_entry,omitempty"`
	Degraded    bool                 `json:"degraded,omitempty"`
	View        domain.View          `json:"view"`
}

type stepRequest struct {
	Goal      string   `json:"goal"`
	TaskType  string   `json:"taskType,omitempty"`
	Completed []string `json:"completed,omitempty"`
	Previous  string   `json:"previous,omitempty"`
}

type journalResponse struct {
	Entries    []*domain.JournalEntry `json:"entries"`
	StreakDays int                    `json:"streak_days"`
}

// ─────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleGenerate exposes the response generator itself so another process
// can use this one as its backend.
func (s *Server) handleGenerate(c *gin.Context) {
	var req domain.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	req.Mode = domain.ParseTurnMode(string(req.Mode))

	text, err := s.generator.Generate(c.Request.Context(), req)
	if err != nil {
		if rej, ok := domain.IsRejection(err); ok {
			status := http.StatusUnprocessableEntity
			if rej.Reason == "missing_task" {
				status = http.StatusBadRequest
			}
			c.JSON(status, llm.GenerateResponse{Error: rej.Reason, Message: rej.Message})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, llm.GenerateResponse{Text: text})
}

func (s *Server) handleNextStep(c *gin.Context) {
	if s.steps == nil {
		c.JSON(http.StatusNotImplemented, errorBody{Error: "steps_unavailable", Message: "step generation needs a direct model backend"})
		return
	}

	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	step, err := s.steps.Next(c.Request.Context(), toStepRequest(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

func (s *Server) handleSmallerStep(c *gin.Context) {
	if s.steps == nil {
		c.JSON(http.StatusNotImplemented, errorBody{Error: "steps_unavailable", Message: "step generation needs a direct model backend"})
		return
	}

	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	step, err := s.steps.Smaller(c.Request.Context(), toStepRequest(req), req.Previous)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid JSON body")
		return
	}

	sess := s.registry.Create(strings.TrimSpace(req.Task))
	observability.LoggerFromContext(c.Request.Context()).Info("session created",
		"session_id", sess.ID(), "resumed", req.Task != "")

	c.JSON(http.StatusCreated, s.view(c, sess.View()))
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, err := s.registry.Get(domain.SessionID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.view(c, sess.View()))
}

func (s *Server) handleSendMessage(c *gin.Context) {
	sess, err := s.registry.Get(domain.SessionID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	out, err := sess.Submit(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sendMessageResponse{
		Mode:        out.Mode,
		UserMessage: out.UserMessage,
		Reply:       out.Reply,
		Completed:   out.Completed,
		Entry:       out.Entry,
		Degraded:    out.Failure != nil,
		View:        s.view(c, sess.View()),
	})
}

func (s *Server) handleCloseSession(c *gin.Context) {
	if err := s.registry.Close(domain.SessionID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListJournal(c *gin.Context) {
	ctx := c.Request.Context()

	entries, err := s.journal.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	streak, err := s.journal.Streak(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, journalResponse{Entries: entries, StreakDays: streak})
}

func (s *Server) handleDeleteJournalEntry(c *gin.Context) {
	if err := s.journal.Delete(c.Request.Context(), domain.JournalEntryID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

// view fills the streak, touching the usage record for today.
func (s *Server) view(c *gin.Context, v domain.View) domain.View {
	streak, err := s.journal.Touch(c.Request.Context(), s.now())
	if err != nil {
		observability.LoggerFromContext(c.Request.Context()).Warn("streak unavailable", "error", err)
		return v
	}
	v.StreakDays = streak
	return v
}

func toStepRequest(r stepRequest) steps.StepRequest {
	return steps.StepRequest{Goal: r.Goal, TaskType: r.TaskType, Completed: r.Completed}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody{Error: "bad_request", Message: msg})
}

// respondError maps domain errors to status codes.
func respondError(c *gin.Context, err error) {
	var (
		gerr      *domain.GenerationError
		malformed *domain.MalformedOutputError
	)

	if rej, ok := domain.IsRejection(err); ok {
		c.JSON(http.StatusUnprocessableEntity, errorBody{Error: rej.Reason, Message: rej.Message})
		return
	}

	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		badRequest(c, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, errorBody{Error: "not_found", Message: err.Error()})
	case errors.Is(err, domain.ErrTurnInFlight):
		c.JSON(http.StatusConflict, errorBody{Error: "turn_in_flight", Message: err.Error()})
	case errors.Is(err, domain.ErrSessionClosed):
		c.JSON(http.StatusGone, errorBody{Error: "session_closed", Message: err.Error()})
	case errors.Is(err, domain.ErrJournalNotAvailable):
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "journal_unavailable", Message: err.Error()})
	case errors.As(err, &malformed):
		c.JSON(http.StatusBadGateway, errorBody{Error: "malformed_output", Message: "the model answered in an unexpected shape"})
	case errors.As(err, &gerr):
		c.JSON(http.StatusBadGateway, errorBody{Error: "generation_failed", Message: "the model is unavailable, try again in a sec"})
	default:
		observability.LoggerFromContext(c.Request.Context()).Error("unhandled error", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal server error"})
	}
}
