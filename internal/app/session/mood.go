package session

import (
	"time"

	"github.com/PabloGalante/onestep/internal/domain"
)

// settleMoodLocked applies the post-reply mood for an inference made on the
// user's text. Celebrating decays back to idle; concerned holds until the next
// inference replaces it.
func (s *Session) settleMoodLocked(inferred domain.Mood, completed bool) {
	switch {
	case completed:
		s.setMoodLocked(domain.MoodCelebrating, s.opts.CompletionDecay)
	case inferred == domain.MoodCelebrating:
		s.setMoodLocked(domain.MoodCelebrating, s.opts.CelebrateDecay)
	case inferred == domain.MoodConcerned:
		s.setMoodLocked(domain.MoodConcerned, 0)
	default:
		s.setMoodLocked(domain.MoodIdle, 0)
	}
}

// setMoodLocked sets the mood and, for decay > 0, schedules the return to idle.
// Any pending decay is dropped first.
func (s *Session) setMoodLocked(m domain.Mood, decay time.Duration) {
	s.cancelMoodDecayLocked()
	s.mood = m
	if decay <= 0 {
		return
	}
	seq := s.moodSeq
	s.moodDecay.Arm(decay, func() { s.decayMood(seq) })
}

// cancelMoodDecayLocked drops the pending decay, including one that has fired
// but is still waiting for s.mu.
func (s *Session) cancelMoodDecayLocked() {
	s.moodSeq++
	s.moodDecay.Cancel()
}

func (s *Session) decayMood(seq uint64) {
	s.mu.Lock()
	if s.closed || seq != s.moodSeq {
		s.mu.Unlock()
		return
	}
	s.mood = domain.MoodIdle
	s.mu.Unlock()
	s.notify()
}

// Mood returns the current display mood.
func (s *Session) Mood() domain.Mood {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mood
}
