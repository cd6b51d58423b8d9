package memory

import (
	"context"
	"testing"

	"github.com/appetiteclub/apt/seed"
	"github.com/appetiteclub/seating/internal/seating"
)

func TestQueueRepoOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewQueueRepo()

	for _, name := range []string{"Ana", "Bruno", "Carla"} {
		id, _ := repo.NextID(ctx)
		if err := repo.Create(ctx, &seating.QueueEntry{ID: id, Name: name, State: "waiting"}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if err := repo.Delete(ctx, 2); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	id, _ := repo.NextID(ctx)
	if id != 4 {
		t.Fatalf("NextID() = %d, want 4", id)
	}
	if err := repo.Create(ctx, &seating.QueueEntry{ID: id, Name: "Dora", State: "waiting"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	list, _ := repo.List(ctx)
	want := []string{"Ana", "Carla", "Dora"}
	if len(list) != len(want) {
		t.Fatalf("List() len = %d, want %d", len(list), len(want))
	}
	for i, e := range list {
		if e.Name != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, e.Name, want[i])
		}
	}

	if err := repo.Save(ctx, &seating.QueueEntry{ID: 2}); err == nil {
		t.Error("Save() of deleted entry should fail")
	}
	if err := repo.Create(ctx, nil); err == nil {
		t.Error("Create(nil) should fail")
	}
}

func TestSeedTracker(t *testing.T) {
	ctx := context.Background()
	tracker := NewSeedTracker()

	ran, err := tracker.HasRun(ctx, "tables")
	if err != nil || ran {
		t.Fatalf("HasRun() = %v, %v before MarkRun", ran, err)
	}
	if err := tracker.MarkRun(ctx, seed.Record{}); err == nil {
		t.Error("MarkRun() without ID should fail")
	}
	if err := tracker.MarkRun(ctx, seed.Record{ID: "tables"}); err != nil {
		t.Fatalf("MarkRun() error = %v", err)
	}
	if ran, _ := tracker.HasRun(ctx, "tables"); !ran {
		t.Error("HasRun() = false after MarkRun")
	}
}

// The engine running on the in-memory repositories covers the full
// walk-in flow end to end.
func TestEngineOnMemoryRepos(t *testing.T) {
	ctx := context.Background()
	engine, err := seating.NewEngine(seating.EngineDeps{Repos: seating.Repos{
		TableRepo:       NewTableRepo(),
		ReservationRepo: NewReservationRepo(),
		QueueRepo:       NewQueueRepo(),
	}})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	table, err := engine.Tables.Create(ctx, seating.TableCreateRequest{Number: "5", Capacity: 4})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := engine.Tables.SetState(ctx, table.ID, "occupied"); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}

	first, _ := engine.Queue.Join(ctx, seating.QueueJoinRequest{Name: "Ana", Phone: "5550101", PartySize: 6})
	second, _ := engine.Queue.Join(ctx, seating.QueueJoinRequest{Name: "Bruno", Phone: "5550102", PartySize: 4})
	if first == nil || second == nil {
		t.Fatal("Join() failed")
	}

	change, err := engine.Tables.SetState(ctx, table.ID, "available")
	if err != nil {
		t.Fatalf("SetState() error = %v", err)
	}
	if change.AssignedParty == nil || change.AssignedParty.ID != second.ID {
		t.Fatalf("assigned party = %+v, want %d", change.AssignedParty, second.ID)
	}

	entries, _ := engine.Queue.List(ctx)
	for _, e := range entries {
		if e.ID == first.ID && e.Position != 1 {
			t.Errorf("Ana position = %d, want 1", e.Position)
		}
		if e.ID == second.ID && e.State != "called" {
			t.Errorf("Bruno state = %q, want called", e.State)
		}
	}
}
