package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/onestep/internal/domain"
	"github.com/PabloGalante/onestep/internal/observability"
)

// Service holds the wins journal and the daily usage streak.
type Service struct {
	store domain.JournalStore
	usage domain.UsageStore
	now   func() time.Time
}

// NewService creates a journal service. usage may be nil, in which case the
// streak is not tracked.
func NewService(store domain.JournalStore, usage domain.UsageStore) *Service {
	return &Service{
		store: store,
		usage: usage,
		now:   time.Now,
	}
}

// WithClock overrides the time source used for entries without a date.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Record appends a completed task. It implements domain.JournalRecorder.
func (s *Service) Record(ctx context.Context, e *domain.JournalEntry) error {
	if s.store == nil {
		return domain.ErrJournalNotAvailable
	}
	if e == nil {
		return errors.New("journal entry is nil")
	}

	if e.ID == "" {
		e.ID = domain.JournalEntryID(uuid.NewString())
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	if e.Date == "" {
		e.Date = domain.Day(e.CreatedAt)
	}

	if err := s.store.AppendJournalEntry(ctx, e); err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}

	observability.LoggerFromContext(ctx).Info("win recorded",
		"entry_id", e.ID,
		"message_count", e.MessageCount,
	)
	return nil
}

// List returns every entry, newest first.
func (s *Service) List(ctx context.Context) ([]*domain.JournalEntry, error) {
	if s.store == nil {
		return []*domain.JournalEntry{}, nil
	}
	entries, err := s.store.ListJournalEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	return entries, nil
}

// Delete removes one entry. Deleting an unknown id succeeds.
func (s *Service) Delete(ctx context.Context, id domain.JournalEntryID) error {
	if s.store == nil {
		return domain.ErrJournalNotAvailable
	}
	if err := s.store.RemoveJournalEntry(ctx, id); err != nil {
		return fmt.Errorf("remove journal entry %s: %w", id, err)
	}
	return nil
}

// Touch marks the companion as opened at now and returns the current streak.
// The first use ever starts at 1. A second open on the same day changes
// nothing, an open on the following day extends the streak and anything
// later resets it to 1.
func (s *Service) Touch(ctx context.Context, now time.Time) (int, error) {
	if s.usage == nil {
		return 0, nil
	}

	u, err := s.usage.GetUsage(ctx)
	if err != nil {
		return 0, fmt.Errorf("get usage: %w", err)
	}

	next := advanceStreak(u, now)
	if next == u {
		return u.Streak, nil
	}
	if err := s.usage.SaveUsage(ctx, next); err != nil {
		return 0, fmt.Errorf("save usage: %w", err)
	}
	return next.Streak, nil
}

// Streak returns the stored streak without updating it.
func (s *Service) Streak(ctx context.Context) (int, error) {
	if s.usage == nil {
		return 0, nil
	}
	u, err := s.usage.GetUsage(ctx)
	if err != nil {
		return 0, fmt.Errorf("get usage: %w", err)
	}
	return u.Streak, nil
}

func advanceStreak(u domain.Usage, now time.Time) domain.Usage {
	today := domain.Day(now)
	if u.LastUsedDate == today && u.Streak > 0 {
		return u
	}

	yesterday := domain.Day(now.AddDate(0, 0, -1))
	streak := 1
	if u.LastUsedDate == yesterday && u.Streak > 0 {
		streak = u.Streak + 1
	}
	return domain.Usage{LastUsedDate: today, Streak: streak}
}
