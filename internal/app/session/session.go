// Package session drives one companion conversation: it tracks the active task,
// picks the turn mode, schedules proactive check-ins, infers the display mood and
// hands completed tasks to the journal.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/onestep/internal/app/classify"
	"github.com/PabloGalante/onestep/internal/app/timer"
	"github.com/PabloGalante/onestep/internal/domain"
	"github.com/PabloGalante/onestep/internal/observability"
)

const (
	FallbackReply = "Something went wrong. Try again in a sec?"
	SavedNotice   = "💛 saved to your wins · open the journal to see them all"
)

// Options tunes timings and hooks. Zero values take the defaults below.
type Options struct {
	Clock             timer.Clock
	CheckinDelay      time.Duration
	CheckinDeferral   time.Duration
	CelebrateDecay    time.Duration
	CompletionDecay   time.Duration
	RecentWindow      int
	GenerationTimeout time.Duration
	RoadblockRouting  bool

	// ResumeTask starts the session Active on an existing task with an armed check-in.
	ResumeTask string

	// OnChange receives a fresh view after every state change. It is called
	// without the session lock held and may call back into the session.
	OnChange func(domain.View)
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = timer.Real()
	}
	if o.CheckinDelay <= 0 {
		o.CheckinDelay = 10 * time.Minute
	}
	if o.CheckinDeferral <= 0 {
		o.CheckinDeferral = 30 * time.Second
	}
	if o.CelebrateDecay <= 0 {
		o.CelebrateDecay = 3 * time.Second
	}
	if o.CompletionDecay <= 0 {
		o.CompletionDecay = 5 * time.Second
	}
	if o.RecentWindow <= 0 {
		o.RecentWindow = 4
	}
	return o
}

// Session is the state machine for one conversation. All methods are safe for
// concurrent use; at most one generator call is in flight at a time.
type Session struct {
	id      domain.SessionID
	gen     domain.ResponseGenerator
	journal domain.JournalRecorder
	opts    Options

	checkin   *timer.Slot
	moodDecay *timer.Slot

	mu             sync.Mutex
	task           string
	messages       []domain.Message
	awaitingWrapup bool
	mood           domain.Mood
	inFlight       bool
	errorMessage   string
	closed         bool

	// Bumped on every arm or cancel; a timer callback only acts if its
	// captured value is still current.
	checkinSeq uint64
	moodSeq    uint64
}

// Outcome describes what a user turn did.
type Outcome struct {
	Mode        domain.TurnMode
	UserMessage domain.Message
	Reply       *domain.Message

	// Failure is set when the generator failed and the fallback reply was used.
	Failure error

	Completed  bool
	Entry      *domain.JournalEntry
	JournalErr error
}

// New creates an idle session. journal may be nil, in which case completed
// tasks are only announced in history.
func New(gen domain.ResponseGenerator, journal domain.JournalRecorder, opts Options) *Session {
	opts = opts.withDefaults()
	s := &Session{
		id:        domain.SessionID(uuid.NewString()),
		gen:       gen,
		journal:   journal,
		opts:      opts,
		checkin:   timer.NewSlot(opts.Clock),
		moodDecay: timer.NewSlot(opts.Clock),
		mood:      domain.MoodIdle,
	}
	if task := strings.TrimSpace(opts.ResumeTask); task != "" {
		s.task = task
		s.armCheckinLocked()
	}
	return s
}

func (s *Session) ID() domain.SessionID { return s.id }

// Submit runs one user turn. It blocks until the generator answers.
//
// A question-like first message returns a *domain.RejectionError and leaves the
// session untouched. A generator failure is not an error: the fallback reply is
// appended and Outcome.Failure carries the cause.
func (s *Session) Submit(ctx context.Context, text string) (*Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyInput
	}

	ctx = observability.WithSessionID(ctx, string(s.id))
	log := observability.LoggerFromContext(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, domain.ErrSessionClosed
	}
	if s.inFlight {
		s.mu.Unlock()
		return nil, domain.ErrTurnInFlight
	}

	first := s.task == ""
	if first && classify.QuestionLike(text) {
		s.errorMessage = classify.QuestionRejection
		s.mu.Unlock()
		s.notify()
		log.Info("first message rejected as question")
		return nil, &domain.RejectionError{Reason: "question", Message: classify.QuestionRejection}
	}

	baseLen := len(s.messages)
	recent := s.recentLocked()
	inferred := classify.InferMood(text)

	mode := domain.ModeConversation
	switch {
	case first:
		mode = domain.ModeStart
		s.task = text
	case s.opts.RoadblockRouting && !s.awaitingWrapup && inferred == domain.MoodConcerned:
		mode = domain.ModeRoadblock
	}

	userMsg := s.newMessageLocked(domain.RoleUser, text)
	s.messages = append(s.messages, userMsg)

	req := domain.TurnRequest{
		Mode:           mode,
		Task:           s.task,
		UserMessage:    text,
		RecentMessages: recent,
		AwaitingWrapup: s.awaitingWrapup,
	}
	turnTask := s.task

	s.cancelMoodDecayLocked()
	if inferred == domain.MoodConcerned {
		s.mood = domain.MoodConcerned
	} else {
		s.mood = domain.MoodThinking
	}
	s.errorMessage = ""
	s.inFlight = true
	s.mu.Unlock()
	s.notify()

	log.Info("turn started", "mode", mode, "awaiting_wrapup", req.AwaitingWrapup)
	start := time.Now()

	reply, genErr := s.generate(ctx, req)

	s.mu.Lock()
	s.inFlight = false
	if s.closed {
		s.mu.Unlock()
		log.Info("turn result discarded, session closed", "mode", mode)
		return nil, domain.ErrSessionClosed
	}

	out := &Outcome{Mode: mode, UserMessage: userMsg}

	if genErr != nil {
		if rej, ok := domain.IsRejection(genErr); ok {
			// Roll back the optimistic append and the task it started.
			s.messages = s.messages[:baseLen]
			if first {
				s.task = ""
			}
			s.errorMessage = rej.Message
			s.mood = domain.MoodIdle
			s.mu.Unlock()
			s.notify()
			log.Info("generator rejected first message", "reason", rej.Reason)
			return nil, rej
		}

		var gerr *domain.GenerationError
		if !errors.As(genErr, &gerr) {
			gerr = &domain.GenerationError{Mode: mode, Err: genErr}
		}
		out.Failure = gerr

		fallback := s.newMessageLocked(domain.RoleAssistant, FallbackReply)
		s.messages = append(s.messages, fallback)
		out.Reply = &fallback
		s.settleMoodLocked(inferred, false)
		if !first {
			s.armCheckinLocked()
		}
		s.mu.Unlock()
		s.notify()

		log.Error("generation failed, fallback used", "mode", mode, "error", genErr,
			"elapsed_ms", time.Since(start).Milliseconds())
		return out, nil
	}

	cleaned, complete := classify.StripCompletion(reply)
	assistant := s.newMessageLocked(domain.RoleAssistant, cleaned)
	s.messages = append(s.messages, assistant)
	out.Reply = &assistant

	if complete {
		now := s.opts.Clock.Now()
		entry := &domain.JournalEntry{
			ID:           domain.JournalEntryID(uuid.NewString()),
			Task:         turnTask,
			MessageCount: baseLen + 2,
			Date:         domain.Day(now),
			CreatedAt:    now,
		}
		s.messages = append(s.messages, s.newMessageLocked(domain.RoleSystem, SavedNotice))
		s.completeLocked()
		out.Completed = true
		out.Entry = entry
	} else {
		s.awaitingWrapup = classify.AsksWrapup(reply)
		s.settleMoodLocked(inferred, false)
		if !first {
			s.armCheckinLocked()
		}
	}
	s.mu.Unlock()

	if out.Completed && s.journal != nil {
		if err := s.journal.Record(ctx, out.Entry); err != nil {
			out.JournalErr = err
			log.Error("journal handoff failed", "entry_id", out.Entry.ID, "error", err)
		}
	}
	s.notify()

	log.Info("turn completed",
		"mode", mode,
		"completed", out.Completed,
		"elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

// completeLocked performs the Active/AwaitingWrapup -> Idle transition.
func (s *Session) completeLocked() {
	s.task = ""
	s.awaitingWrapup = false
	s.cancelCheckinLocked()
	s.settleMoodLocked(domain.MoodIdle, true)
}

func (s *Session) generate(ctx context.Context, req domain.TurnRequest) (string, error) {
	if s.opts.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.GenerationTimeout)
		defer cancel()
	}
	return s.gen.Generate(ctx, req)
}

// Close tears the session down. Pending timers never fire afterwards and an
// in-flight reply is discarded when it arrives.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.checkin.Shutdown()
	s.moodDecay.Shutdown()
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Task returns the active task, or "" when idle.
func (s *Session) Task() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task
}

// Messages returns a copy of the history.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.messages...)
}

// CheckinArmed reports whether a proactive check-in is scheduled.
func (s *Session) CheckinArmed() bool {
	return s.checkin.Armed()
}

// CheckinDue returns when the pending check-in fires, or the zero time.
func (s *Session) CheckinDue() time.Time {
	return s.checkin.DueAt()
}

// View projects the session for display. StreakDays is left for the caller.
func (s *Session) View() domain.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() domain.View {
	return domain.View{
		SessionID:      s.id,
		State:          s.stateLocked(),
		Task:           s.task,
		Messages:       append([]domain.Message(nil), s.messages...),
		IsTyping:       s.inFlight,
		Mood:           s.mood,
		ErrorMessage:   s.errorMessage,
		AwaitingWrapup: s.awaitingWrapup,
		CheckinArmed:   s.checkin.Armed(),
	}
}

func (s *Session) stateLocked() domain.State {
	switch {
	case s.task == "":
		return domain.StateIdle
	case s.awaitingWrapup:
		return domain.StateAwaitingWrapup
	default:
		return domain.StateActive
	}
}

// recentLocked returns the last RecentWindow history entries, oldest first.
func (s *Session) recentLocked() []domain.RecentMessage {
	msgs := s.messages
	if len(msgs) > s.opts.RecentWindow {
		msgs = msgs[len(msgs)-s.opts.RecentWindow:]
	}
	out := make([]domain.RecentMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, domain.RecentMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func (s *Session) newMessageLocked(role domain.Role, content string) domain.Message {
	return domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		Role:      role,
		Content:   content,
		CreatedAt: s.opts.Clock.Now(),
	}
}

func (s *Session) notify() {
	if s.opts.OnChange == nil {
		return
	}
	s.opts.OnChange(s.View())
}
