package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/seating/internal/seating"
)

type demoParty struct {
	name  string
	phone string
	size  int
}

type demoBooking struct {
	start string
	name  string
	phone string
	size  int
}

var demoParties = []demoParty{
	{"Lucia Fernandez", "+54 11 5555-1101", 2},
	{"Martin Gomez", "+54 11 5555-1102", 4},
	{"Sofia Romero", "+54 11 5555-1103", 6},
	{"Joaquin Ruiz", "+54 11 5555-1104", 3},
}

var demoBookings = []demoBooking{
	{"12:30", "Ana Molina", "+54 11 5555-1201", 2},
	{"13:00", "Pablo Sosa", "+54 11 5555-1202", 4},
	{"20:00", "Julieta Paz", "+54 11 5555-1203", 2},
	{"21:30", "Tomas Vega", "+54 11 5555-1204", 5},
}

// SeedDemo fills a running seating service with queue parties and tomorrow's
// bookings. Entries the service rejects as conflicting are skipped so the
// command can be run more than once.
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo seeding process...")

	client := newClient(config)

	resp, err := client.List(ctx, "tables")
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	tables, err := decodeData[[]seating.Table](resp)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		return fmt.Errorf("no tables found, start the service with its table seeds first")
	}

	joined := 0
	for _, p := range demoParties {
		_, err := client.Create(ctx, "queue", seating.QueueJoinRequest{
			Name:      p.name,
			Phone:     p.phone,
			PartySize: p.size,
		})
		if isConflict(err) {
			logger.Info("Party already waiting, skipping", "name", p.name)
			continue
		}
		if err != nil {
			return fmt.Errorf("join queue for %s: %w", p.name, err)
		}
		joined++
	}

	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	booked := 0
	for i, b := range demoBookings {
		table, ok := tableFor(tables, b.size, i)
		if !ok {
			logger.Info("No table seats the party, skipping", "name", b.name, "party_size", b.size)
			continue
		}
		_, err := client.Create(ctx, "reservations", seating.ReservationCreateRequest{
			TableID:   table.ID,
			Date:      date,
			Start:     b.start,
			PartySize: b.size,
			Name:      b.name,
			Phone:     b.phone,
			Occasion:  "demo",
		})
		if isConflict(err) {
			logger.Info("Slot already booked, skipping", "table", table.Number, "start", b.start)
			continue
		}
		if err != nil {
			return fmt.Errorf("book %s: %w", b.name, err)
		}
		booked++
	}

	logger.Info("Demo data created", "parties", joined, "reservations", booked, "date", date)
	return nil
}

// tableFor picks a table that seats size, rotating the starting point so the
// bookings spread across tables.
func tableFor(tables []seating.Table, size, offset int) (seating.Table, bool) {
	for i := range tables {
		t := tables[(i+offset)%len(tables)]
		if t.Capacity >= size {
			return t, true
		}
	}
	return seating.Table{}, false
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
