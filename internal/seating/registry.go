package seating

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/jonboulle/clockwork"

	"github.com/appetiteclub/seating/pkg"
	"github.com/appetiteclub/seating/pkg/enums/tablestate"
)

// Registry owns tables and their occupancy state. A table that becomes
// available is offered to the queue straight away.
//
// Lock order: Registry, then Queue or Ledger. Neither calls back.
type Registry struct {
	mu     sync.Mutex
	tables TableRepo
	queue  *Queue
	ledger *Ledger
	events emitter
	clock  clockwork.Clock
	logger apt.Logger
}

func newRegistry(tables TableRepo, queue *Queue, ledger *Ledger, events emitter, clock clockwork.Clock, logger apt.Logger) *Registry {
	return &Registry{
		tables: tables,
		queue:  queue,
		ledger: ledger,
		events: events,
		clock:  clock,
		logger: logger,
	}
}

func (r *Registry) Create(ctx context.Context, req TableCreateRequest) (*Table, error) {
	if err := ValidateTableCreate(req); err != nil {
		return nil, err
	}
	number := strings.TrimSpace(req.Number)

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.tables.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("get table by number: %w", err)
	}
	if existing != nil {
		return nil, duplicate(fmt.Sprintf("table number %s already exists", number))
	}

	id, err := r.tables.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("next table id: %w", err)
	}

	table := NewTable(number, req.Capacity)
	table.ID = id
	if req.State != "" {
		table.State = req.State
	}
	table.BeforeCreate(r.clock.Now().UTC())

	if err := r.tables.Create(ctx, table); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}

	r.events.emit(ctx, pkg.TablesChannel, pkg.EventTableCreated, tablePayload(table))
	return table, nil
}

// SetState overwrites the table state. When the table moves into available
// from any other state, the earliest waiting party that fits is called and
// reported as assigned to it.
func (r *Registry) SetState(ctx context.Context, id int64, state string) (*StateChange, error) {
	if err := validateTableState(state); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	table, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := table.State
	table.State = state
	table.BeforeUpdate(r.clock.Now().UTC())
	if err := r.tables.Save(ctx, table); err != nil {
		return nil, fmt.Errorf("save table: %w", err)
	}

	change := &StateChange{Table: table, PreviousState: previous}

	payload := tablePayload(table)
	payload["previous_state"] = previous
	r.events.emit(ctx, pkg.TablesChannel, pkg.EventTableStateChanged, payload)

	if previous == tablestate.States.Available.Name || !table.IsAvailable() {
		return change, nil
	}

	entry, err := r.queue.claimNext(ctx, table.Capacity)
	if err != nil {
		r.logger.Error("cannot match freed table with queue", "error", err, "table_id", table.ID)
		return change, nil
	}
	if entry == nil {
		return change, nil
	}
	change.AssignedParty = entry

	assigned := entryPayload(entry)
	assigned["table_id"] = table.ID
	assigned["table_number"] = table.Number
	assigned["capacity"] = table.Capacity
	r.events.emit(ctx, pkg.QueueChannel, pkg.EventPartyAssigned, assigned)

	r.logger.Info("party assigned to table", "table_id", table.ID, "entry_id", entry.ID, "party_size", entry.PartySize)
	return change, nil
}

// Delete removes a table that no active reservation refers to.
func (r *Registry) Delete(ctx context.Context, id int64) (*Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}

	err = r.ledger.withoutActiveReservations(ctx, id, func() error {
		if err := r.tables.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete table: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.events.emit(ctx, pkg.TablesChannel, pkg.EventTableDeleted, tablePayload(table))
	return table, nil
}

func (r *Registry) Get(ctx context.Context, id int64) (*Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.get(ctx, id)
}

// List returns every table, or only those in state when it is not empty.
func (r *Registry) List(ctx context.Context, state string) ([]*Table, error) {
	if state != "" {
		if err := validateTableState(state); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.tables.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	if state == "" {
		return all, nil
	}

	filtered := make([]*Table, 0, len(all))
	for _, t := range all {
		if t.State == state {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func (r *Registry) Stats(ctx context.Context) (*TableStats, error) {
	all, err := r.List(ctx, "")
	if err != nil {
		return nil, err
	}

	stats := &TableStats{ByState: make(map[string]int, len(tablestate.All))}
	for _, s := range tablestate.All {
		stats.ByState[s.Name] = 0
	}
	for _, t := range all {
		stats.Total++
		stats.ByState[t.State]++
		stats.TotalCapacity += t.Capacity
		if t.IsAvailable() {
			stats.AvailableCapacity += t.Capacity
		}
	}
	return stats, nil
}

func (r *Registry) get(ctx context.Context, id int64) (*Table, error) {
	table, err := r.tables.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get table: %w", err)
	}
	if table == nil {
		return nil, notFound("table", id)
	}
	return table, nil
}
