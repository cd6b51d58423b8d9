package seating

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/appetiteclub/seating/pkg"
	"github.com/appetiteclub/seating/pkg/enums/tablestate"
)

func TestRegistryCreate(t *testing.T) {
	tests := []struct {
		name      string
		req       TableCreateRequest
		wantKind  ErrorKind
		wantState string
	}{
		{
			name:      "defaultsToAvailable",
			req:       TableCreateRequest{Number: "7", Capacity: 4},
			wantState: tablestate.States.Available.Name,
		},
		{
			name:      "explicitState",
			req:       TableCreateRequest{Number: "8", Capacity: 2, State: "maintenance"},
			wantState: tablestate.States.Maintenance.Name,
		},
		{
			name:     "missingNumber",
			req:      TableCreateRequest{Capacity: 4},
			wantKind: KindMissingField,
		},
		{
			name:     "zeroCapacity",
			req:      TableCreateRequest{Number: "9"},
			wantKind: KindValidation,
		},
		{
			name:     "unknownState",
			req:      TableCreateRequest{Number: "9", Capacity: 2, State: "libre"},
			wantKind: KindValidation,
		},
		{
			name:     "duplicateNumber",
			req:      TableCreateRequest{Number: "1", Capacity: 2},
			wantKind: KindDuplicateEntry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEngine(t)
			te.mustTable(t, "1", 2)
			te.notifier.Reset()

			table, err := te.Tables.Create(context.Background(), tt.req)
			if tt.wantKind != "" {
				if !IsKind(err, tt.wantKind) {
					t.Fatalf("Create() error = %v, want kind %s", err, tt.wantKind)
				}
				if len(te.notifier.Events()) != 0 {
					t.Error("rejected create must not emit")
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if table.ID != 2 {
				t.Errorf("ID = %d, want 2", table.ID)
			}
			if table.State != tt.wantState {
				t.Errorf("State = %q, want %q", table.State, tt.wantState)
			}
			if table.CreatedAt.IsZero() {
				t.Error("CreatedAt not set")
			}
			if got := te.notifier.Types(); len(got) != 1 || got[0] != pkg.EventTableCreated {
				t.Errorf("events = %v", got)
			}
		})
	}
}

func TestRegistrySetStateAssignsParty(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	te.mustTable(t, "1", 2)
	te.mustTable(t, "2", 4)
	third := te.mustTable(t, "3", 6)
	if _, err := te.Tables.SetState(ctx, third.ID, "occupied"); err != nil {
		t.Fatalf("SetState(occupied) error = %v", err)
	}

	a := te.mustJoin(t, "A", "5550101", 4)
	b := te.mustJoin(t, "B", "5550102", 8)
	te.notifier.Reset()

	change, err := te.Tables.SetState(ctx, 3, "available")
	if err != nil {
		t.Fatalf("SetState(available) error = %v", err)
	}

	if change.PreviousState != "occupied" {
		t.Errorf("PreviousState = %q, want occupied", change.PreviousState)
	}
	if change.AssignedParty == nil || change.AssignedParty.ID != a.ID {
		t.Fatalf("AssignedParty = %+v, want entry %d", change.AssignedParty, a.ID)
	}

	gotA, _ := te.Queue.Get(ctx, a.ID)
	if !gotA.IsCalled() {
		t.Errorf("A state = %q, want called", gotA.State)
	}
	gotB, _ := te.Queue.Get(ctx, b.ID)
	if !gotB.IsWaiting() || gotB.Position != 1 {
		t.Errorf("B = %s at %d, want waiting at 1", gotB.State, gotB.Position)
	}

	types := te.notifier.Types()
	want := []string{pkg.EventTableStateChanged, pkg.EventPartyAssigned}
	if len(types) != len(want) || types[0] != want[0] || types[1] != want[1] {
		t.Fatalf("events = %v, want %v", types, want)
	}
	assigned, _ := te.notifier.Last(pkg.EventPartyAssigned)
	if assigned.Channel != pkg.QueueChannel || assigned.Payload["table_id"] != third.ID {
		t.Errorf("assigned event = %+v", assigned)
	}
}

func TestRegistrySetStateNoMatch(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		to       string
		partySz  int
		wantCall bool
	}{
		{name: "partyTooLarge", from: "occupied", to: "available", partySz: 8},
		{name: "alreadyAvailable", from: "available", to: "available", partySz: 2},
		{name: "notBecomingAvailable", from: "occupied", to: "maintenance", partySz: 2},
		{name: "fromMaintenance", from: "maintenance", to: "available", partySz: 2, wantCall: true},
		{name: "fromReserved", from: "reserved", to: "available", partySz: 4, wantCall: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEngine(t)
			ctx := context.Background()

			table := te.mustTable(t, "1", 4)
			if tt.from != "available" {
				if _, err := te.Tables.SetState(ctx, table.ID, tt.from); err != nil {
					t.Fatalf("SetState(%s) error = %v", tt.from, err)
				}
			}
			entry := te.mustJoin(t, "Ana", "5550101", tt.partySz)

			change, err := te.Tables.SetState(ctx, table.ID, tt.to)
			if err != nil {
				t.Fatalf("SetState(%s) error = %v", tt.to, err)
			}
			if (change.AssignedParty != nil) != tt.wantCall {
				t.Errorf("AssignedParty = %+v, wantCall %v", change.AssignedParty, tt.wantCall)
			}

			got, _ := te.Queue.Get(ctx, entry.ID)
			if got.IsCalled() != tt.wantCall {
				t.Errorf("entry state = %q, wantCall %v", got.State, tt.wantCall)
			}
		})
	}
}

func TestRegistrySetStateErrors(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	table := te.mustTable(t, "1", 4)

	if _, err := te.Tables.SetState(ctx, table.ID, "open"); !IsKind(err, KindValidation) {
		t.Errorf("SetState(open) error = %v, want validation", err)
	}
	if _, err := te.Tables.SetState(ctx, 42, "occupied"); !IsKind(err, KindNotFound) {
		t.Errorf("SetState(42) error = %v, want not found", err)
	}

	te.tables.SaveFunc = func(ctx context.Context, table *Table) error {
		return errMockStorage
	}
	te.notifier.Reset()
	if _, err := te.Tables.SetState(ctx, table.ID, "occupied"); !errors.Is(err, errMockStorage) {
		t.Errorf("SetState() error = %v, want storage error", err)
	}
	if len(te.notifier.Events()) != 0 {
		t.Error("failed save must not emit")
	}
}

func TestRegistryDelete(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	table := te.mustTable(t, "1", 4)
	booking := te.mustBook(t, table.ID, "19:00", "")

	if _, err := te.Tables.Delete(ctx, table.ID); !IsKind(err, KindInvalidState) {
		t.Fatalf("Delete() with active booking error = %v, want invalid state", err)
	}

	if _, err := te.Reservations.ChangeState(ctx, booking.ID, "cancelled"); err != nil {
		t.Fatalf("ChangeState() error = %v", err)
	}
	deleted, err := te.Tables.Delete(ctx, table.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted.ID != table.ID {
		t.Errorf("deleted = %d, want %d", deleted.ID, table.ID)
	}
	if _, err := te.Tables.Get(ctx, table.ID); !IsKind(err, KindNotFound) {
		t.Errorf("Get() after delete error = %v, want not found", err)
	}
	if _, ok := te.notifier.Last(pkg.EventTableDeleted); !ok {
		t.Error("expected table.deleted event")
	}

	// Ids are never handed out twice.
	next := te.mustTable(t, "1", 4)
	if next.ID == table.ID {
		t.Errorf("reused id %d", next.ID)
	}
}

func TestRegistryListAndStats(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	te.mustTable(t, "1", 2)
	second := te.mustTable(t, "2", 4)
	te.mustTable(t, "3", 6)
	if _, err := te.Tables.SetState(ctx, second.ID, "occupied"); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}

	occupied, err := te.Tables.List(ctx, "occupied")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(occupied) != 1 || occupied[0].ID != second.ID {
		t.Errorf("List(occupied) = %+v", occupied)
	}
	if _, err := te.Tables.List(ctx, "busy"); !IsKind(err, KindValidation) {
		t.Errorf("List(busy) error = %v, want validation", err)
	}

	stats, err := te.Tables.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 3 || stats.TotalCapacity != 12 || stats.AvailableCapacity != 8 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ByState["available"] != 2 || stats.ByState["occupied"] != 1 || stats.ByState["reserved"] != 0 {
		t.Errorf("ByState = %v", stats.ByState)
	}
}

func TestRegistrySetStateConcurrentAssignsOnce(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	const tables = 10
	ids := make([]int64, 0, tables)
	for i := 1; i <= tables; i++ {
		table := te.mustTable(t, fmt.Sprintf("%d", i), 4)
		if _, err := te.Tables.SetState(ctx, table.ID, tablestate.States.Occupied.Name); err != nil {
			t.Fatalf("SetState() error = %v", err)
		}
		ids = append(ids, table.ID)
	}
	party := te.mustJoin(t, "Ana", "5550101", 2)
	te.notifier.Reset()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		assigned []int64
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			change, err := te.Tables.SetState(ctx, id, tablestate.States.Available.Name)
			if err != nil {
				t.Errorf("SetState(%d) error = %v", id, err)
				return
			}
			if change.AssignedParty != nil {
				mu.Lock()
				assigned = append(assigned, change.AssignedParty.ID)
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	if len(assigned) != 1 || assigned[0] != party.ID {
		t.Fatalf("assigned = %v, want only entry %d", assigned, party.ID)
	}

	count := 0
	for _, typ := range te.notifier.Types() {
		if typ == pkg.EventPartyAssigned {
			count++
		}
	}
	if count != 1 {
		t.Errorf("party_assigned events = %d, want 1", count)
	}
	if got, _ := te.Queue.Get(ctx, party.ID); got == nil || !got.IsCalled() {
		t.Errorf("party = %+v, want called", got)
	}
}
