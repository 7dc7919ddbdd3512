package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/onestep/internal/domain"
)

// UsageStore keeps the streak record in memory.
type UsageStore struct {
	mu    sync.RWMutex
	usage domain.Usage
}

func NewUsageStore() *UsageStore {
	return &UsageStore{}
}

func (s *UsageStore) GetUsage(ctx context.Context) (domain.Usage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage, nil
}

func (s *UsageStore) SaveUsage(ctx context.Context, u domain.Usage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = u
	return nil
}
