package seating

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"

	"github.com/appetiteclub/seating/pkg/enums/tablestate"
)

// ApplyDemoSeeds creates the standard tables, then puts the floor in a
// lived-in state: some tables busy, a few parties waiting and bookings for
// tonight.
func ApplyDemoSeeds(ctx context.Context, engine *Engine, tracker seed.Tracker, seedFS fs.ReadFileFS, logger apt.Logger) error {
	if engine == nil {
		return errors.New("engine is required")
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	if err := ApplyTableSeeds(ctx, engine.Tables, tracker, seedFS, logger); err != nil {
		return fmt.Errorf("apply standard table seeds: %w", err)
	}

	defs := buildDemoSeeds(engine, logger)
	logger.Info("Applying demo seeds")
	if err := seed.Apply(ctx, tracker, defs, seedApplication); err != nil {
		return err
	}
	logger.Info("Demo seeds applied successfully")
	return nil
}

func buildDemoSeeds(engine *Engine, logger apt.Logger) []seed.Seed {
	var defs []seed.Seed

	demoStates := []struct {
		number string
		state  string
	}{
		{"2", tablestate.States.Occupied.Name},
		{"3", tablestate.States.Occupied.Name},
		{"4", tablestate.States.Reserved.Name},
		{"6", tablestate.States.Maintenance.Name},
	}
	for _, ds := range demoStates {
		number, state := ds.number, ds.state
		defs = append(defs, seed.Seed{
			ID:          fmt.Sprintf("2025-01-15_demo_table_%s_%s", seedIdentifier(number), state),
			Description: fmt.Sprintf("Set table %s to %s for demo", number, state),
			Run: func(ctx context.Context) error {
				return setDemoTableState(ctx, engine.Tables, number, state, logger)
			},
		})
	}

	demoParties := []QueueJoinRequest{
		{Name: "Lucia Fernandez", Phone: "+54 11 5555-0101", PartySize: 4},
		{Name: "Martin Gomez", Phone: "+54 11 5555-0102", PartySize: 2},
		{Name: "Sofia Ruiz", Phone: "+54 11 5555-0103", PartySize: 6},
	}
	for _, p := range demoParties {
		party := p
		defs = append(defs, seed.Seed{
			ID:          fmt.Sprintf("2025-01-15_demo_queue_%s", seedIdentifier(NormalizePhone(party.Phone))),
			Description: fmt.Sprintf("Add %s to the demo queue", party.Name),
			Run: func(ctx context.Context) error {
				_, err := engine.Queue.Join(ctx, party)
				if IsKind(err, KindDuplicateEntry) {
					return nil
				}
				return err
			},
		})
	}

	defs = append(defs, seed.Seed{
		ID:          "2025-01-15_demo_reservations_tonight",
		Description: "Book demo reservations for tonight",
		Run: func(ctx context.Context) error {
			return bookDemoReservations(ctx, engine, logger)
		},
	})

	return defs
}

func setDemoTableState(ctx context.Context, registry *Registry, number, state string, logger apt.Logger) error {
	tables, err := registry.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	for _, t := range tables {
		if t.Number != number {
			continue
		}
		if _, err := registry.SetState(ctx, t.ID, state); err != nil {
			return fmt.Errorf("set table %s to %s: %w", number, state, err)
		}
		logger.Info("Demo table state set", "number", number, "state", state)
		return nil
	}

	logger.Info("Demo table not found, skipping", "number", number)
	return nil
}

func bookDemoReservations(ctx context.Context, engine *Engine, logger apt.Logger) error {
	tables, err := engine.Tables.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	if len(tables) == 0 {
		return nil
	}

	today := serviceDate(engine.Reservations.clock.Now())
	bookings := []struct {
		start string
		name  string
		size  int
	}{
		{"19:00", "Camila Torres", 2},
		{"20:30", "Diego Alvarez", 2},
		{"21:00", "Valentina Diaz", 3},
	}

	for i, b := range bookings {
		table := tables[i%len(tables)]
		size := min(b.size, table.Capacity)
		_, err := engine.Reservations.Create(ctx, ReservationCreateRequest{
			TableID:   table.ID,
			Date:      today,
			Start:     b.start,
			PartySize: size,
			Name:      b.name,
			Phone:     fmt.Sprintf("+54 11 5555-02%02d", i),
		})
		if IsKind(err, KindConflict) {
			logger.Info("Demo reservation slot taken, skipping", "table", table.Number, "start", b.start)
			continue
		}
		if err != nil {
			return fmt.Errorf("book demo reservation for %s: %w", b.name, err)
		}
	}
	return nil
}

// DemoSeedingFunc is the demo counterpart of SeedingFunc.
func DemoSeedingFunc(seedCtx context.Context, engine *Engine, tracker seed.Tracker, seedFS fs.ReadFileFS, logger apt.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		logger.Info("Starting demo seeding in background")
		go func() {
			if err := ApplyDemoSeeds(seedCtx, engine, tracker, seedFS, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Demo seeds failed: %v", err)
			} else if err == nil {
				logger.Info("Demo seeding completed successfully")
			}
		}()
		return nil
	}
}
