package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/onestep/internal/domain"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Uses the project passed (ONESTEP_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) journalCol() *firestore.CollectionRef {
	return s.client.Collection("journal")
}

func (s *Store) usageDoc() *firestore.DocumentRef {
	return s.client.Collection("usage").Doc("default")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type journalDoc struct {
	Task         string    `firestore:"task"`
	MessageCount int       `firestore:"message_count"`
	Date         string    `firestore:"date"`
	CreatedAt    time.Time `firestore:"created_at"`
}

type usageDoc struct {
	LastUsedDate string `firestore:"last_used_date"`
	Streak       int    `firestore:"streak"`
}

// ─────────────────────────────────────────
// JournalStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendJournalEntry(ctx context.Context, e *domain.JournalEntry) error {
	if e == nil {
		return nil
	}
	if e.ID == "" {
		e.ID = domain.JournalEntryID(uuid.NewString())
	}

	doc := journalDoc{
		Task:         e.Task,
		MessageCount: e.MessageCount,
		Date:         e.Date,
		CreatedAt:    e.CreatedAt,
	}

	if _, err := s.journalCol().Doc(string(e.ID)).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore AppendJournalEntry: %w", err)
	}
	return nil
}

// RemoveJournalEntry deletes the document; Firestore deletes of missing
// documents already succeed.
func (s *Store) RemoveJournalEntry(ctx context.Context, id domain.JournalEntryID) error {
	_, err := s.journalCol().Doc(string(id)).Delete(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("firestore RemoveJournalEntry: %w", err)
	}
	return nil
}

func (s *Store) ListJournalEntries(ctx context.Context) ([]*domain.JournalEntry, error) {
	iter := s.journalCol().OrderBy("created_at", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	out := []*domain.JournalEntry{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, fmt.Errorf("firestore ListJournalEntries: %w", err)
		}

		var doc journalDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode journalDoc: %w", err)
		}

		out = append(out, &domain.JournalEntry{
			ID:           domain.JournalEntryID(snap.Ref.ID),
			Task:         doc.Task,
			MessageCount: doc.MessageCount,
			Date:         doc.Date,
			CreatedAt:    doc.CreatedAt,
		})
	}
	return out, nil
}

// ─────────────────────────────────────────
// UsageStore implementation
// ─────────────────────────────────────────

func (s *Store) GetUsage(ctx context.Context) (domain.Usage, error) {
	snap, err := s.usageDoc().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.Usage{}, nil
		}
		return domain.Usage{}, fmt.Errorf("firestore GetUsage: %w", err)
	}

	var doc usageDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Usage{}, fmt.Errorf("firestore GetUsage decode: %w", err)
	}
	return domain.Usage{LastUsedDate: doc.LastUsedDate, Streak: doc.Streak}, nil
}

func (s *Store) SaveUsage(ctx context.Context, u domain.Usage) error {
	doc := usageDoc{LastUsedDate: u.LastUsedDate, Streak: u.Streak}
	if _, err := s.usageDoc().Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore SaveUsage: %w", err)
	}
	return nil
}
