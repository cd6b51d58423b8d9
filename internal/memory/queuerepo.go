package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/appetiteclub/seating/internal/seating"
)

type QueueRepo struct {
	mu      sync.RWMutex
	seq     int64
	entries map[int64]seating.QueueEntry
}

func NewQueueRepo() *QueueRepo {
	return &QueueRepo{entries: make(map[int64]seating.QueueEntry)}
}

func (r *QueueRepo) NextID(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	return r.seq, nil
}

func (r *QueueRepo) Create(ctx context.Context, entry *seating.QueueEntry) error {
	if entry == nil {
		return fmt.Errorf("queue entry is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[entry.ID]; ok {
		return fmt.Errorf("queue entry %d already exists", entry.ID)
	}
	r.entries[entry.ID] = *entry
	return nil
}

func (r *QueueRepo) Get(ctx context.Context, id int64) (*seating.QueueEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (r *QueueRepo) List(ctx context.Context) ([]*seating.QueueEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*seating.QueueEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, &entry)
	}
	slices.SortFunc(result, func(a, b *seating.QueueEntry) int {
		return compareIDs(a.ID, b.ID)
	})
	return result, nil
}

func (r *QueueRepo) Save(ctx context.Context, entry *seating.QueueEntry) error {
	if entry == nil {
		return fmt.Errorf("queue entry is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[entry.ID]; !ok {
		return fmt.Errorf("queue entry not found")
	}
	r.entries[entry.ID] = *entry
	return nil
}

func (r *QueueRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("queue entry not found")
	}
	delete(r.entries, id)
	return nil
}
