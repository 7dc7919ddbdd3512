package domain

import (
	"context"
	"time"
)

// JournalEntryID identifies a journal entry
type JournalEntryID string

// JournalEntry is the record of one completed task. Written once, never mutated.
type JournalEntry struct {
	ID           JournalEntryID `json:"id"`
	Task         string         `json:"task"`
	MessageCount int            `json:"message_count"`
	Date         string         `json:"date"` // calendar day, DayLayout
	CreatedAt    time.Time      `json:"created_at"`
}

// JournalStore persists the append-only wins journal.
// List returns entries newest first. Remove of an unknown id is not an error.
type JournalStore interface {
	AppendJournalEntry(ctx context.Context, entry *JournalEntry) error
	RemoveJournalEntry(ctx context.Context, id JournalEntryID) error
	ListJournalEntries(ctx context.Context) ([]*JournalEntry, error)
}

// Usage tracks consecutive days the companion was opened.
type Usage struct {
	LastUsedDate string `json:"last_used_date"`
	Streak       int    `json:"streak"`
}

// UsageStore persists the single usage record. A missing record is the zero Usage.
type UsageStore interface {
	GetUsage(ctx context.Context) (Usage, error)
	SaveUsage(ctx context.Context, u Usage) error
}
