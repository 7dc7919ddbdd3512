package session

import (
	"context"
	"time"

	"github.com/PabloGalante/onestep/internal/app/classify"
	"github.com/PabloGalante/onestep/internal/domain"
	"github.com/PabloGalante/onestep/internal/observability"
)

// armCheckinLocked (re)starts the idle countdown. Only an active task may hold
// a check-in.
func (s *Session) armCheckinLocked() {
	if s.task == "" {
		s.cancelCheckinLocked()
		return
	}
	s.scheduleCheckinLocked(s.opts.CheckinDelay)
}

func (s *Session) cancelCheckinLocked() {
	s.checkinSeq++
	s.checkin.Cancel()
}

// scheduleCheckinLocked arms the slot with a callback bound to a fresh
// sequence number. A fire that already left the slot but has not yet taken
// s.mu sees a newer number once anything re-arms or cancels, and drops out.
func (s *Session) scheduleCheckinLocked(d time.Duration) {
	s.checkinSeq++
	seq := s.checkinSeq
	s.checkin.Arm(d, func() { s.onCheckinFire(seq) })
}

// onCheckinFire runs a proactive turn. It never rearms itself for the full
// delay; the next user turn does that. If a user turn is in flight the
// check-in is pushed back by CheckinDeferral instead of interleaving.
func (s *Session) onCheckinFire(seq uint64) {
	ctx := observability.WithSessionID(context.Background(), string(s.id))
	log := observability.LoggerFromContext(ctx)

	s.mu.Lock()
	if s.closed || s.task == "" || seq != s.checkinSeq {
		s.mu.Unlock()
		return
	}
	if s.inFlight {
		s.scheduleCheckinLocked(s.opts.CheckinDeferral)
		s.mu.Unlock()
		log.Info("check-in deferred, turn in flight", "deferral", s.opts.CheckinDeferral.String())
		return
	}

	req := domain.TurnRequest{
		Mode:           domain.ModeCheckIn,
		Task:           s.task,
		RecentMessages: s.recentLocked(),
		AwaitingWrapup: s.awaitingWrapup,
	}
	s.inFlight = true
	prevMood := s.mood
	s.mood = domain.MoodThinking
	s.mu.Unlock()
	s.notify()

	start := time.Now()
	reply, err := s.generate(ctx, req)

	s.mu.Lock()
	s.inFlight = false
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.mood == domain.MoodThinking {
		s.mood = prevMood
	}
	if err != nil {
		s.mu.Unlock()
		s.notify()
		log.Error("check-in generation failed", "error", err)
		return
	}
	cleaned, _ := classify.StripCompletion(reply)
	if cleaned != "" {
		s.messages = append(s.messages, s.newMessageLocked(domain.RoleAssistant, cleaned))
	}
	s.mu.Unlock()
	s.notify()

	log.Info("check-in delivered", "elapsed_ms", time.Since(start).Milliseconds())
}
