package seating

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/jonboulle/clockwork"

	"github.com/appetiteclub/seating/pkg"
	"github.com/appetiteclub/seating/pkg/enums/queuestatus"
)

// Queue is the virtual waitlist. Waiting entries are served in arrival
// order and always hold positions 1..N.
type Queue struct {
	mu     sync.Mutex
	repo   QueueRepo
	events emitter
	clock  clockwork.Clock
	logger apt.Logger
}

func newQueue(repo QueueRepo, events emitter, clock clockwork.Clock, logger apt.Logger) *Queue {
	return &Queue{
		repo:   repo,
		events: events,
		clock:  clock,
		logger: logger,
	}
}

// Join appends a party to the end of the waitlist. A phone may only be
// waiting once.
func (q *Queue) Join(ctx context.Context, req QueueJoinRequest) (*QueueEntry, error) {
	if err := ValidateQueueJoin(req); err != nil {
		return nil, err
	}

	phone := NormalizePhone(req.Phone)
	partySize := req.PartySize
	if partySize == 0 {
		partySize = DefaultPartySize
	}
	arrivedAt := q.clock.Now()
	if req.ArrivedAt != nil && !req.ArrivedAt.IsZero() {
		arrivedAt = *req.ArrivedAt
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}

	waiting := 0
	for _, e := range entries {
		if !e.IsWaiting() {
			continue
		}
		if e.Phone == phone {
			return nil, duplicate(fmt.Sprintf("phone %s is already waiting at position %d", phone, e.Position))
		}
		waiting++
	}

	id, err := q.repo.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("next queue entry id: %w", err)
	}

	entry := &QueueEntry{
		ID:        id,
		ClientID:  req.ClientID,
		Name:      strings.TrimSpace(req.Name),
		Phone:     phone,
		PartySize: partySize,
		ArrivedAt: arrivedAt.UTC(),
		State:     queuestatus.Statuses.Waiting.Name,
	}
	entry.place(waiting + 1)

	if err := q.repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create queue entry: %w", err)
	}
	if _, err := q.recompute(ctx); err != nil {
		return nil, err
	}

	q.events.emit(ctx, pkg.QueueChannel, pkg.EventPartyJoined, entryPayload(entry))
	return entry, nil
}

// NextEligible returns the earliest waiting party that fits in capacity
// seats, or nil when none does. It changes nothing.
func (q *Queue) NextEligible(ctx context.Context, capacity int) (*QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.nextEligible(ctx, capacity)
}

func (q *Queue) nextEligible(ctx context.Context, capacity int) (*QueueEntry, error) {
	entries, err := q.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}
	for _, e := range entries {
		if e.IsWaiting() && e.PartySize <= capacity {
			return e, nil
		}
	}
	return nil, nil
}

// claimNext finds the next eligible party and marks it called in one step.
// Event emission is left to the caller.
func (q *Queue) claimNext(ctx context.Context, capacity int) (*QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, err := q.nextEligible(ctx, capacity)
	if err != nil || entry == nil {
		return nil, err
	}
	if err := q.markCalled(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (q *Queue) Call(ctx context.Context, id int64) (*QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, err := q.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entry.IsWaiting() {
		return nil, invalidState(fmt.Sprintf("queue entry %d is %s; only waiting parties can be called", id, entry.State))
	}
	if err := q.markCalled(ctx, entry); err != nil {
		return nil, err
	}

	q.events.emit(ctx, pkg.QueueChannel, pkg.EventPartyCalled, entryPayload(entry))
	return entry, nil
}

// CallNext calls the party at the head of the queue regardless of size.
func (q *Queue) CallNext(ctx context.Context) (*QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}

	var head *QueueEntry
	for _, e := range entries {
		if e.IsWaiting() {
			head = e
			break
		}
	}
	if head == nil {
		return nil, &Error{Kind: KindNotFound, Message: "no parties are waiting"}
	}
	if err := q.markCalled(ctx, head); err != nil {
		return nil, err
	}

	q.events.emit(ctx, pkg.QueueChannel, pkg.EventPartyCalled, entryPayload(head))
	return head, nil
}

// Confirm seats a called party and removes it from the queue.
func (q *Queue) Confirm(ctx context.Context, id int64) (*QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, err := q.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entry.IsCalled() {
		return nil, invalidState(fmt.Sprintf("queue entry %d is %s; only called parties can be confirmed", id, entry.State))
	}
	if err := q.drop(ctx, entry, queuestatus.Statuses.Confirmed); err != nil {
		return nil, err
	}
	if _, err := q.recompute(ctx); err != nil {
		return nil, err
	}

	q.events.emit(ctx, pkg.QueueChannel, pkg.EventPartyConfirmed, entryPayload(entry))
	return entry, nil
}

// Remove takes a party out of the queue whatever its state.
func (q *Queue) Remove(ctx context.Context, id int64) (*QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, err := q.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := q.drop(ctx, entry, queuestatus.Statuses.Cancelled); err != nil {
		return nil, err
	}
	if _, err := q.recompute(ctx); err != nil {
		return nil, err
	}

	q.events.emit(ctx, pkg.QueueChannel, pkg.EventPartyRemoved, entryPayload(entry))
	return entry, nil
}

// ReapStale removes every called party that has not shown up within
// timeout. A non-positive timeout falls back to DefaultStaleCallTimeout.
func (q *Queue) ReapStale(ctx context.Context, timeout time.Duration) ([]*QueueEntry, error) {
	if timeout <= 0 {
		timeout = DefaultStaleCallTimeout
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}

	now := q.clock.Now()
	reaped := []*QueueEntry{}
	var sweepErr error
	for _, e := range entries {
		if !e.stale(now, timeout) {
			continue
		}
		if err := q.drop(ctx, e, queuestatus.Statuses.Cancelled); err != nil {
			sweepErr = err
			break
		}
		reaped = append(reaped, e)
	}
	if len(reaped) == 0 {
		return reaped, sweepErr
	}

	// Entries already dropped are gone for good, so the event and the
	// position update still happen when the sweep stops early.
	if _, err := q.recompute(ctx); err != nil && sweepErr == nil {
		sweepErr = err
	}

	names := make([]string, 0, len(reaped))
	ids := make([]int64, 0, len(reaped))
	for _, e := range reaped {
		names = append(names, e.Name)
		ids = append(ids, e.ID)
	}
	q.events.emit(ctx, pkg.QueueChannel, pkg.EventStaleRemoved, map[string]any{
		"removed":         names,
		"entry_ids":       ids,
		"count":           len(reaped),
		"timeout_minutes": int(timeout / time.Minute),
	})

	if sweepErr != nil {
		q.logger.Error("stale sweep interrupted", "error", sweepErr, "removed", len(reaped), "entry_ids", ids)
		return reaped, sweepErr
	}
	q.logger.Info("stale queue entries removed", "count", len(reaped))
	return reaped, nil
}

func (q *Queue) Get(ctx context.Context, id int64) (*QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.get(ctx, id)
}

// List returns waiting and called parties in arrival order.
func (q *Queue) List(ctx context.Context) ([]*QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}
	return entries, nil
}

func (q *Queue) Stats(ctx context.Context) (*QueueStats, error) {
	entries, err := q.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &QueueStats{}
	people := 0
	for _, e := range entries {
		switch {
		case e.IsWaiting():
			stats.Waiting++
			people += e.PartySize
			if e.EstimatedWait > stats.MaxWaitMinutes {
				stats.MaxWaitMinutes = e.EstimatedWait
			}
		case e.IsCalled():
			stats.Called++
		}
	}
	if stats.Waiting > 0 {
		stats.AveragePartySize = float64(people) / float64(stats.Waiting)
	}
	return stats, nil
}

func (q *Queue) get(ctx context.Context, id int64) (*QueueEntry, error) {
	entry, err := q.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get queue entry: %w", err)
	}
	if entry == nil {
		return nil, notFound("queue entry", id)
	}
	return entry, nil
}

func (q *Queue) markCalled(ctx context.Context, entry *QueueEntry) error {
	now := q.clock.Now().UTC()
	entry.State = queuestatus.Statuses.Called.Name
	entry.CalledAt = &now
	entry.place(0)

	if err := q.repo.Save(ctx, entry); err != nil {
		return fmt.Errorf("save queue entry: %w", err)
	}
	_, err := q.recompute(ctx)
	return err
}

// drop deletes the entry and stamps the terminal status on the returned
// value. Terminal entries are never stored.
func (q *Queue) drop(ctx context.Context, entry *QueueEntry, status queuestatus.Status) error {
	if err := q.repo.Delete(ctx, entry.ID); err != nil {
		return fmt.Errorf("delete queue entry: %w", err)
	}
	entry.State = status.Name
	entry.place(0)
	return nil
}

// recompute renumbers waiting entries 1..N in stored order and clears the
// position of everything else.
func (q *Queue) recompute(ctx context.Context) ([]*QueueEntry, error) {
	entries, err := q.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}

	position := 0
	for _, e := range entries {
		want := 0
		if e.IsWaiting() {
			position++
			want = position
		}
		if e.Position == want && e.EstimatedWait == want*MinutesPerPosition {
			continue
		}
		e.place(want)
		if err := q.repo.Save(ctx, e); err != nil {
			return nil, fmt.Errorf("save queue position: %w", err)
		}
	}
	return entries, nil
}
