package seating

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/appetiteclub/seating/pkg"
)

const eventSource = "seating"

// Notifier receives every event emitted by the engine. Implementations must
// not block the caller and must not report failures back; a lost event never
// affects engine state.
type Notifier interface {
	Notify(ctx context.Context, event pkg.Event)
}

type NotifierFunc func(ctx context.Context, event pkg.Event)

func (f NotifierFunc) Notify(ctx context.Context, event pkg.Event) {
	f(ctx, event)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, pkg.Event) {}

type emitter struct {
	notifier Notifier
	clock    clockwork.Clock
}

func (e emitter) emit(ctx context.Context, channel, eventType string, payload map[string]any) {
	event := pkg.NewEvent(channel, eventType, payload)
	event.Source = eventSource
	event.OccurredAt = e.clock.Now().UTC()
	e.notifier.Notify(ctx, event)
}

func tablePayload(t *Table) map[string]any {
	return map[string]any{
		"table_id": t.ID,
		"number":   t.Number,
		"capacity": t.Capacity,
		"state":    t.State,
	}
}

func reservationPayload(r *Reservation) map[string]any {
	return map[string]any{
		"reservation_id": r.ID,
		"table_id":       r.TableID,
		"date":           r.Date,
		"start":          r.Start.String(),
		"end":            r.End.String(),
		"party_size":     r.PartySize,
		"name":           r.Name,
		"state":          r.State,
	}
}

func entryPayload(e *QueueEntry) map[string]any {
	return map[string]any{
		"entry_id":               e.ID,
		"name":                   e.Name,
		"phone":                  e.Phone,
		"party_size":             e.PartySize,
		"position":               e.Position,
		"estimated_wait_minutes": e.EstimatedWait,
		"state":                  e.State,
	}
}
