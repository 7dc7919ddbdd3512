// Package storagetest holds behavior checks shared by every store backend.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/onestep/internal/domain"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func entry(id string, offset time.Duration, task string, count int) *domain.JournalEntry {
	at := base.Add(offset)
	return &domain.JournalEntry{
		ID:           domain.JournalEntryID(id),
		Task:         task,
		MessageCount: count,
		Date:         domain.Day(at),
		CreatedAt:    at,
	}
}

// JournalStore checks append, newest-first listing and idempotent removal.
func JournalStore(t *testing.T, store domain.JournalStore) {
	t.Helper()
	ctx := context.Background()

	empty, err := store.ListJournalEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first := entry("a", 0, "clean my room", 4)
	second := entry("b", time.Hour, "write the report", 6)
	third := entry("c", 26*time.Hour, "call mom", 2)
	for _, e := range []*domain.JournalEntry{first, second, third} {
		require.NoError(t, store.AppendJournalEntry(ctx, e))
	}

	// Appending an id twice fails and keeps the first entry.
	dup := entry("a", 2*time.Hour, "something else", 9)
	require.Error(t, store.AppendJournalEntry(ctx, dup))

	got, err := store.ListJournalEntries(ctx)
	require.NoError(t, err)
	want := []*domain.JournalEntry{third, second, first}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, store.RemoveJournalEntry(ctx, "b"))
	require.NoError(t, store.RemoveJournalEntry(ctx, "b"))
	require.NoError(t, store.RemoveJournalEntry(ctx, "missing"))

	got, err = store.ListJournalEntries(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff([]*domain.JournalEntry{third, first}, got); diff != "" {
		t.Fatalf("entries after remove mismatch (-want +got):\n%s", diff)
	}
}

// UsageStore checks that a missing record reads as zero and saves overwrite.
func UsageStore(t *testing.T, store domain.UsageStore) {
	t.Helper()
	ctx := context.Background()

	u, err := store.GetUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Usage{}, u)

	require.NoError(t, store.SaveUsage(ctx, domain.Usage{LastUsedDate: "2026-03-01", Streak: 1}))
	require.NoError(t, store.SaveUsage(ctx, domain.Usage{LastUsedDate: "2026-03-02", Streak: 2}))

	u, err = store.GetUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Usage{LastUsedDate: "2026-03-02", Streak: 2}, u)
}
