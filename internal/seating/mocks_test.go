package seating

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/appetiteclub/apt/seed"
	"github.com/jonboulle/clockwork"

	"github.com/appetiteclub/seating/pkg"
)

var errMockStorage = errors.New("storage unavailable")

// MockTableRepo is an in-memory TableRepo. The Func fields override the
// default behavior when set.
type MockTableRepo struct {
	mu     sync.Mutex
	seq    int64
	tables map[int64]Table

	SaveFunc func(ctx context.Context, table *Table) error
}

func NewMockTableRepo() *MockTableRepo {
	return &MockTableRepo{tables: make(map[int64]Table)}
}

func (m *MockTableRepo) NextID(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

func (m *MockTableRepo) Create(ctx context.Context, table *Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table.ID] = *table
	return nil
}

func (m *MockTableRepo) Get(ctx context.Context, id int64) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *MockTableRepo) GetByNumber(ctx context.Context, number string) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tables {
		if t.Number == number {
			return &t, nil
		}
	}
	return nil, nil
}

func (m *MockTableRepo) List(ctx context.Context) ([]*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		result = append(result, &t)
	}
	slices.SortFunc(result, func(a, b *Table) int { return int(a.ID - b.ID) })
	return result, nil
}

func (m *MockTableRepo) Save(ctx context.Context, table *Table) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, table)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[table.ID]; !ok {
		return errors.New("table not found")
	}
	m.tables[table.ID] = *table
	return nil
}

func (m *MockTableRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[id]; !ok {
		return errors.New("table not found")
	}
	delete(m.tables, id)
	return nil
}

// MockReservationRepo is an in-memory ReservationRepo.
type MockReservationRepo struct {
	mu           sync.Mutex
	seq          int64
	reservations map[int64]Reservation

	ListByDateFunc func(ctx context.Context, date string) ([]*Reservation, error)
}

func NewMockReservationRepo() *MockReservationRepo {
	return &MockReservationRepo{reservations: make(map[int64]Reservation)}
}

func (m *MockReservationRepo) NextID(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

func (m *MockReservationRepo) Create(ctx context.Context, r *Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[r.ID] = *r
	return nil
}

func (m *MockReservationRepo) Get(ctx context.Context, id int64) (*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MockReservationRepo) list(keep func(Reservation) bool) []*Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*Reservation, 0, len(m.reservations))
	for _, r := range m.reservations {
		if keep(r) {
			result = append(result, &r)
		}
	}
	slices.SortFunc(result, func(a, b *Reservation) int { return int(a.ID - b.ID) })
	return result
}

func (m *MockReservationRepo) List(ctx context.Context) ([]*Reservation, error) {
	return m.list(func(Reservation) bool { return true }), nil
}

func (m *MockReservationRepo) ListByDate(ctx context.Context, date string) ([]*Reservation, error) {
	if m.ListByDateFunc != nil {
		return m.ListByDateFunc(ctx, date)
	}
	return m.list(func(r Reservation) bool { return r.Date == date }), nil
}

func (m *MockReservationRepo) ListByTable(ctx context.Context, tableID int64) ([]*Reservation, error) {
	return m.list(func(r Reservation) bool { return r.TableID == tableID }), nil
}

func (m *MockReservationRepo) Save(ctx context.Context, r *Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[r.ID]; !ok {
		return errors.New("reservation not found")
	}
	m.reservations[r.ID] = *r
	return nil
}

func (m *MockReservationRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[id]; !ok {
		return errors.New("reservation not found")
	}
	delete(m.reservations, id)
	return nil
}

// MockQueueRepo is an in-memory QueueRepo.
type MockQueueRepo struct {
	mu      sync.Mutex
	seq     int64
	entries map[int64]QueueEntry

	ListFunc   func(ctx context.Context) ([]*QueueEntry, error)
	DeleteFunc func(ctx context.Context, id int64) error
}

func NewMockQueueRepo() *MockQueueRepo {
	return &MockQueueRepo{entries: make(map[int64]QueueEntry)}
}

func (m *MockQueueRepo) NextID(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

func (m *MockQueueRepo) Create(ctx context.Context, e *QueueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = *e
	return nil
}

func (m *MockQueueRepo) Get(ctx context.Context, id int64) (*QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *MockQueueRepo) List(ctx context.Context) ([]*QueueEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*QueueEntry, 0, len(m.entries))
	for _, e := range m.entries {
		result = append(result, &e)
	}
	slices.SortFunc(result, func(a, b *QueueEntry) int { return int(a.ID - b.ID) })
	return result, nil
}

func (m *MockQueueRepo) Save(ctx context.Context, e *QueueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.ID]; !ok {
		return errors.New("queue entry not found")
	}
	m.entries[e.ID] = *e
	return nil
}

func (m *MockQueueRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		if err := m.DeleteFunc(ctx, id); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return errors.New("queue entry not found")
	}
	delete(m.entries, id)
	return nil
}

// MockNotifier records every event it receives.
type MockNotifier struct {
	mu     sync.Mutex
	events []pkg.Event
}

func (m *MockNotifier) Notify(ctx context.Context, event pkg.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockNotifier) Events() []pkg.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pkg.Event(nil), m.events...)
}

// Types returns the event types received so far, in order.
func (m *MockNotifier) Types() []string {
	var types []string
	for _, e := range m.Events() {
		types = append(types, e.Type)
	}
	return types
}

func (m *MockNotifier) Last(eventType string) (pkg.Event, bool) {
	events := m.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == eventType {
			return events[i], true
		}
	}
	return pkg.Event{}, false
}

func (m *MockNotifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

// MockSeedTracker remembers applied seeds in memory.
type MockSeedTracker struct {
	mu      sync.Mutex
	records map[string]seed.Record
}

func NewMockSeedTracker() *MockSeedTracker {
	return &MockSeedTracker{records: make(map[string]seed.Record)}
}

func (m *MockSeedTracker) HasRun(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[id]
	return ok, nil
}

func (m *MockSeedTracker) MarkRun(ctx context.Context, record seed.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = record
	return nil
}

func (m *MockSeedTracker) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type testEngine struct {
	*Engine
	tables       *MockTableRepo
	reservations *MockReservationRepo
	queue        *MockQueueRepo
	notifier     *MockNotifier
	clock        *clockwork.FakeClock
}

// testDate is the service day used throughout the tests.
const testDate = "2025-03-14"

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	te := &testEngine{
		tables:       NewMockTableRepo(),
		reservations: NewMockReservationRepo(),
		queue:        NewMockQueueRepo(),
		notifier:     &MockNotifier{},
		clock:        clockwork.NewFakeClockAt(time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)),
	}

	engine, err := NewEngine(EngineDeps{
		Repos: Repos{
			TableRepo:       te.tables,
			ReservationRepo: te.reservations,
			QueueRepo:       te.queue,
		},
		Notifier: te.notifier,
		Clock:    te.clock,
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	te.Engine = engine
	return te
}

func (te *testEngine) mustTable(t *testing.T, number string, capacity int) *Table {
	t.Helper()
	table, err := te.Tables.Create(context.Background(), TableCreateRequest{Number: number, Capacity: capacity})
	if err != nil {
		t.Fatalf("create table %s: %v", number, err)
	}
	return table
}

func (te *testEngine) mustBook(t *testing.T, tableID int64, start, end string) *Reservation {
	t.Helper()
	r, err := te.Reservations.Create(context.Background(), ReservationCreateRequest{
		TableID: tableID,
		Date:    testDate,
		Start:   start,
		End:     end,
		Name:    "Guest " + start,
		Phone:   "555-0100",
	})
	if err != nil {
		t.Fatalf("book %s-%s: %v", start, end, err)
	}
	return r
}

func (te *testEngine) mustJoin(t *testing.T, name, phone string, size int) *QueueEntry {
	t.Helper()
	e, err := te.Queue.Join(context.Background(), QueueJoinRequest{Name: name, Phone: phone, PartySize: size})
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return e
}
