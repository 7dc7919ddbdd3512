package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/PabloGalante/onestep/internal/domain"
)

// JournalStore is a simple in-memory implementation of domain.JournalStore.
// It is NOT persistent and is only suitable for development / local mode.
type JournalStore struct {
	mu      sync.RWMutex
	entries map[domain.JournalEntryID]*domain.JournalEntry
	order   []domain.JournalEntryID
}

// NewJournalStore creates a new in-memory JournalStore.
func NewJournalStore() *JournalStore {
	return &JournalStore{
		entries: make(map[domain.JournalEntryID]*domain.JournalEntry),
	}
}

// AppendJournalEntry saves a new journal entry. An id that is already stored
// is an error and leaves the existing entry untouched.
func (s *JournalStore) AppendJournalEntry(ctx context.Context, entry *domain.JournalEntry) error {
	if entry == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = domain.JournalEntryID(uuid.NewString())
	}
	if _, exists := s.entries[entry.ID]; exists {
		return fmt.Errorf("journal entry %s already exists", entry.ID)
	}

	s.order = append(s.order, entry.ID)
	cp := *entry
	s.entries[entry.ID] = &cp
	return nil
}

func (s *JournalStore) RemoveJournalEntry(ctx context.Context, id domain.JournalEntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return nil
	}
	delete(s.entries, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListJournalEntries returns every entry, most recently appended first.
func (s *JournalStore) ListJournalEntries(ctx context.Context) ([]*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.JournalEntry, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		cp := *s.entries[s.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}
