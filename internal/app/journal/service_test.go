package journal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/onestep/internal/adapters/storage/memory"
	"github.com/PabloGalante/onestep/internal/app/journal"
	"github.com/PabloGalante/onestep/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DayLayout, s)
	if err != nil {
		panic(err)
	}
	return t.Add(14 * time.Hour)
}

func TestRecordFillsMissingFields(t *testing.T) {
	ctx := context.Background()
	now := day("2026-03-02")
	svc := journal.NewService(memory.NewJournalStore(), nil).WithClock(func() time.Time { return now })

	e := &domain.JournalEntry{Task: "clean my room", MessageCount: 4}
	require.NoError(t, svc.Record(ctx, e))

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, now, e.CreatedAt)
	assert.Equal(t, "2026-03-02", e.Date)

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "clean my room", entries[0].Task)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := journal.NewService(memory.NewJournalStore(), nil)

	e := &domain.JournalEntry{Task: "taxes", MessageCount: 2}
	require.NoError(t, svc.Record(ctx, e))

	require.NoError(t, svc.Delete(ctx, e.ID))
	require.NoError(t, svc.Delete(ctx, e.ID))

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWithoutStore(t *testing.T) {
	ctx := context.Background()
	svc := journal.NewService(nil, nil)

	err := svc.Record(ctx, &domain.JournalEntry{Task: "x"})
	assert.ErrorIs(t, err, domain.ErrJournalNotAvailable)

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	streak, err := svc.Touch(ctx, day("2026-03-02"))
	require.NoError(t, err)
	assert.Zero(t, streak)
}

func TestTouchStreak(t *testing.T) {
	tests := []struct {
		name  string
		prior domain.Usage
		today string
		want  int
	}{
		{name: "first use", prior: domain.Usage{}, today: "2026-03-02", want: 1},
		{name: "same day", prior: domain.Usage{LastUsedDate: "2026-03-02", Streak: 4}, today: "2026-03-02", want: 4},
		{name: "next day", prior: domain.Usage{LastUsedDate: "2026-03-01", Streak: 4}, today: "2026-03-02", want: 5},
		{name: "across month", prior: domain.Usage{LastUsedDate: "2026-02-28", Streak: 2}, today: "2026-03-01", want: 3},
		{name: "gap resets", prior: domain.Usage{LastUsedDate: "2026-02-27", Streak: 9}, today: "2026-03-02", want: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			usage := memory.NewUsageStore()
			require.NoError(t, usage.SaveUsage(ctx, tc.prior))
			svc := journal.NewService(memory.NewJournalStore(), usage)

			got, err := svc.Touch(ctx, day(tc.today))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			stored, err := svc.Streak(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.want, stored)

			u, err := usage.GetUsage(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.today, u.LastUsedDate)
		})
	}
}

type failingUsage struct{}

func (failingUsage) GetUsage(context.Context) (domain.Usage, error) {
	return domain.Usage{}, errors.New("disk gone")
}

func (failingUsage) SaveUsage(context.Context, domain.Usage) error {
	return errors.New("disk gone")
}

func TestTouchSurfacesStoreErrors(t *testing.T) {
	svc := journal.NewService(memory.NewJournalStore(), failingUsage{})
	_, err := svc.Touch(context.Background(), day("2026-03-02"))
	assert.ErrorContains(t, err, "disk gone")
}
