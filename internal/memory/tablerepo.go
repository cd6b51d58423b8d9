package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/appetiteclub/seating/internal/seating"
)

// TableRepo keeps tables in process memory. Values are copied in and out so
// callers never share state with the store.
type TableRepo struct {
	mu     sync.RWMutex
	seq    int64
	tables map[int64]seating.Table
}

func NewTableRepo() *TableRepo {
	return &TableRepo{tables: make(map[int64]seating.Table)}
}

func (r *TableRepo) NextID(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	return r.seq, nil
}

func (r *TableRepo) Create(ctx context.Context, table *seating.Table) error {
	if table == nil {
		return fmt.Errorf("table is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[table.ID]; ok {
		return fmt.Errorf("table %d already exists", table.ID)
	}
	r.tables[table.ID] = *table
	return nil
}

func (r *TableRepo) Get(ctx context.Context, id int64) (*seating.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table, ok := r.tables[id]
	if !ok {
		return nil, nil
	}
	return &table, nil
}

func (r *TableRepo) GetByNumber(ctx context.Context, number string) (*seating.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, table := range r.tables {
		if table.Number == number {
			return &table, nil
		}
	}
	return nil, nil
}

func (r *TableRepo) List(ctx context.Context) ([]*seating.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*seating.Table, 0, len(r.tables))
	for _, table := range r.tables {
		result = append(result, &table)
	}
	slices.SortFunc(result, func(a, b *seating.Table) int {
		return compareIDs(a.ID, b.ID)
	})
	return result, nil
}

func (r *TableRepo) Save(ctx context.Context, table *seating.Table) error {
	if table == nil {
		return fmt.Errorf("table is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[table.ID]; !ok {
		return fmt.Errorf("table not found")
	}
	r.tables[table.ID] = *table
	return nil
}

func (r *TableRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[id]; !ok {
		return fmt.Errorf("table not found")
	}
	delete(r.tables, id)
	return nil
}

func compareIDs(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
