package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/appetiteclub/apt/seed"
)

// SeedTracker records applied seeds for the lifetime of the process.
type SeedTracker struct {
	mu      sync.Mutex
	records map[string]seed.Record
}

func NewSeedTracker() *SeedTracker {
	return &SeedTracker{records: make(map[string]seed.Record)}
}

func (t *SeedTracker) HasRun(ctx context.Context, id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.records[id]
	return ok, nil
}

func (t *SeedTracker) MarkRun(ctx context.Context, record seed.Record) error {
	if record.ID == "" {
		return errors.New("seed record ID is required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.records[record.ID] = record
	return nil
}
