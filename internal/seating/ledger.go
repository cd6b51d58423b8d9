package seating

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/jonboulle/clockwork"

	"github.com/appetiteclub/seating/pkg"
	"github.com/appetiteclub/seating/pkg/enums/reservationstatus"
)

// OpeningTime and LastSeating bound the start times offered by availability
// queries; starts are SlotStep minutes apart.
const (
	OpeningTime ClockTime = 11 * 60
	LastSeating ClockTime = 22 * 60
	SlotStep    ClockTime = 30
)

// Ledger owns reservations and guarantees that active reservations on the
// same table and date never overlap.
type Ledger struct {
	mu           sync.Mutex
	reservations ReservationRepo
	tables       TableRepo
	events       emitter
	clock        clockwork.Clock
	logger       apt.Logger
}

func newLedger(reservations ReservationRepo, tables TableRepo, events emitter, clock clockwork.Clock, logger apt.Logger) *Ledger {
	return &Ledger{
		reservations: reservations,
		tables:       tables,
		events:       events,
		clock:        clock,
		logger:       logger,
	}
}

func (l *Ledger) Create(ctx context.Context, req ReservationCreateRequest) (*Reservation, error) {
	reservation, err := ValidateReservationCreate(req)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkTable(ctx, reservation.TableID, reservation.PartySize); err != nil {
		return nil, err
	}

	clash, err := l.findConflict(ctx, reservation.TableID, reservation.Date, reservation.Start, reservation.End, 0)
	if err != nil {
		return nil, err
	}
	if clash != nil {
		return nil, conflictWith(clash)
	}

	id, err := l.reservations.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("next reservation id: %w", err)
	}
	reservation.ID = id
	reservation.BeforeCreate(l.clock.Now().UTC())

	if err := l.reservations.Create(ctx, reservation); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	l.events.emit(ctx, pkg.ReservationsChannel, pkg.EventReservationCreated, reservationPayload(reservation))
	return reservation, nil
}

// Update applies a partial change. The conflict scan runs again when the
// window moves or an inactive reservation becomes active.
func (l *Ledger) Update(ctx context.Context, id int64, req ReservationUpdateRequest) (*Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *current

	var fields []FieldError
	if req.TableID != nil {
		if *req.TableID == 0 {
			fields = append(fields, invalidField("table_id", "table_id is required"))
		}
		updated.TableID = *req.TableID
	}
	if req.Date != nil {
		if !validDate(*req.Date) {
			fields = append(fields, invalidField("date", "date must use the YYYY-MM-DD format"))
		}
		updated.Date = *req.Date
	}
	if req.Start != nil {
		start, err := ParseClockTime(*req.Start)
		if err != nil || start >= EndOfDay {
			fields = append(fields, invalidField("start", "start must use the HH:MM format"))
		}
		updated.Start = start
		if req.End == nil {
			updated.End = start.Add(DefaultReservationDuration)
		}
	}
	if req.End != nil {
		end, err := ParseClockTime(*req.End)
		if err != nil {
			fields = append(fields, invalidField("end", "end must use the HH:MM format"))
		}
		updated.End = end
	}
	if req.PartySize != nil {
		if *req.PartySize <= 0 {
			fields = append(fields, invalidField("party_size", "party_size must be greater than 0"))
		}
		updated.PartySize = *req.PartySize
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			fields = append(fields, invalidField("name", "name is required"))
		}
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		updated.Phone = NormalizePhone(*req.Phone)
	}
	if req.Email != nil {
		if *req.Email != "" && !strings.Contains(*req.Email, "@") {
			fields = append(fields, invalidField("email", "email is not valid"))
		}
		updated.Email = strings.TrimSpace(*req.Email)
	}
	if req.Occasion != nil {
		updated.Occasion = *req.Occasion
	}
	if req.Notes != nil {
		updated.Notes = *req.Notes
	}
	if len(fields) == 0 {
		fields = checkWindow(updated.Start, updated.End)
	}
	if len(fields) > 0 {
		return nil, invalid(fields...)
	}
	if req.State != nil {
		if err := validateReservationState(*req.State); err != nil {
			return nil, err
		}
		updated.State = *req.State
	}

	// A reactivated booking may point at a table deleted while it was
	// inactive.
	reactivated := !current.Active() && updated.Active()
	if reactivated || updated.TableID != current.TableID || updated.PartySize != current.PartySize {
		if err := l.checkTable(ctx, updated.TableID, updated.PartySize); err != nil {
			return nil, err
		}
	}

	moved := updated.TableID != current.TableID || updated.Date != current.Date ||
		updated.Start != current.Start || updated.End != current.End
	if updated.Active() && (moved || reactivated) {
		clash, err := l.findConflict(ctx, updated.TableID, updated.Date, updated.Start, updated.End, id)
		if err != nil {
			return nil, err
		}
		if clash != nil {
			return nil, conflictWith(clash)
		}
	}

	updated.BeforeUpdate(l.clock.Now().UTC())
	if err := l.reservations.Save(ctx, &updated); err != nil {
		return nil, fmt.Errorf("save reservation: %w", err)
	}

	l.events.emit(ctx, pkg.ReservationsChannel, pkg.EventReservationUpdated, reservationPayload(&updated))
	return &updated, nil
}

// ChangeState moves a reservation to any state of the enum. Reactivating a
// cancelled, completed or no-show reservation re-checks its table and window.
func (l *Ledger) ChangeState(ctx context.Context, id int64, state string) (*Reservation, error) {
	if err := validateReservationState(state); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	reservation, err := l.get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := reservation.State
	if !reservation.Active() && reservationstatus.IsActive(state) {
		if err := l.checkTable(ctx, reservation.TableID, reservation.PartySize); err != nil {
			return nil, err
		}
		clash, err := l.findConflict(ctx, reservation.TableID, reservation.Date, reservation.Start, reservation.End, id)
		if err != nil {
			return nil, err
		}
		if clash != nil {
			return nil, conflictWith(clash)
		}
	}

	reservation.State = state
	reservation.BeforeUpdate(l.clock.Now().UTC())
	if err := l.reservations.Save(ctx, reservation); err != nil {
		return nil, fmt.Errorf("save reservation: %w", err)
	}

	payload := reservationPayload(reservation)
	payload["previous_state"] = previous
	l.events.emit(ctx, pkg.ReservationsChannel, pkg.EventReservationStateChanged, payload)
	return reservation, nil
}

func (l *Ledger) Delete(ctx context.Context, id int64) (*Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	reservation, err := l.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.reservations.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete reservation: %w", err)
	}

	l.events.emit(ctx, pkg.ReservationsChannel, pkg.EventReservationDeleted, reservationPayload(reservation))
	return reservation, nil
}

func (l *Ledger) Get(ctx context.Context, id int64) (*Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.get(ctx, id)
}

func (l *Ledger) List(ctx context.Context, filter ReservationFilter) ([]*Reservation, error) {
	if filter.State != "" {
		if err := validateReservationState(filter.State); err != nil {
			return nil, err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var all []*Reservation
	var err error
	switch {
	case filter.Date != "":
		all, err = l.reservations.ListByDate(ctx, filter.Date)
	case filter.TableID != 0:
		all, err = l.reservations.ListByTable(ctx, filter.TableID)
	default:
		all, err = l.reservations.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	result := make([]*Reservation, 0, len(all))
	for _, r := range all {
		if filter.TableID != 0 && r.TableID != filter.TableID {
			continue
		}
		if filter.State != "" && r.State != filter.State {
			continue
		}
		result = append(result, r)
	}
	return result, nil
}

// Availability lists, per table that seats the party, every start time from
// opening until the last seating whose default-length window is free.
func (l *Ledger) Availability(ctx context.Context, query AvailabilityQuery) (*Availability, error) {
	if err := validateAvailabilityQuery(query); err != nil {
		return nil, err
	}
	partySize := query.PartySize
	if partySize == 0 {
		partySize = DefaultPartySize
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var candidates []*Table
	if query.TableID != 0 {
		table, err := l.tables.Get(ctx, query.TableID)
		if err != nil {
			return nil, fmt.Errorf("get table: %w", err)
		}
		if table == nil {
			return nil, notFound("table", query.TableID)
		}
		candidates = []*Table{table}
	} else {
		all, err := l.tables.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		candidates = all
	}

	booked, err := l.reservations.ListByDate(ctx, query.Date)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	result := &Availability{
		Date:      query.Date,
		PartySize: partySize,
		Tables:    []TableSlots{},
	}
	for _, table := range candidates {
		if !table.Seats(partySize) {
			continue
		}
		slots := TableSlots{
			TableID:   table.ID,
			Number:    table.Number,
			Capacity:  table.Capacity,
			FreeSlots: []ClockTime{},
		}
		for start := OpeningTime; start < LastSeating; start += SlotStep {
			end := start.Add(DefaultReservationDuration)
			if blockedBy(booked, table.ID, query.Date, start, end) == nil {
				slots.FreeSlots = append(slots.FreeSlots, start)
			}
		}
		if len(slots.FreeSlots) == 0 {
			continue
		}
		result.Tables = append(result.Tables, slots)
		result.TotalOptions += len(slots.FreeSlots)
	}
	return result, nil
}

// Check verifies a single slot with the same rules Create applies.
func (l *Ledger) Check(ctx context.Context, req CheckRequest) (*CheckResult, error) {
	var missing []string
	if req.TableID == 0 {
		missing = append(missing, "table_id")
	}
	if strings.TrimSpace(req.Date) == "" {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(req.Start) == "" {
		missing = append(missing, "start")
	}
	if len(missing) > 0 {
		return nil, missingFields(missing...)
	}
	if !validDate(req.Date) {
		return nil, invalid(invalidField("date", "date must use the YYYY-MM-DD format"))
	}
	start, end, fields := parseWindow(req.Start, req.End)
	if len(fields) > 0 {
		return nil, invalid(fields...)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	table, err := l.tables.Get(ctx, req.TableID)
	if err != nil {
		return nil, fmt.Errorf("get table: %w", err)
	}
	if table == nil {
		return nil, notFound("table", req.TableID)
	}

	result := &CheckResult{EstimatedEnd: end}
	if req.PartySize > 0 && !table.Seats(req.PartySize) {
		result.Message = fmt.Sprintf("table %s seats %d, party of %d does not fit", table.Number, table.Capacity, req.PartySize)
		return result, nil
	}

	clash, err := l.findConflict(ctx, req.TableID, req.Date, start, end, 0)
	if err != nil {
		return nil, err
	}
	if clash != nil {
		conflict := conflictWith(clash)
		result.Message = conflict.Message
		result.Conflict = conflict.Conflict
		return result, nil
	}

	result.Available = true
	result.Message = fmt.Sprintf("table %s is free from %s to %s", table.Number, start, end)
	return result, nil
}

// Stats counts the reservations of a day per state. An empty date means
// today in UTC.
func (l *Ledger) Stats(ctx context.Context, date string) (*ReservationStats, error) {
	if date == "" {
		date = serviceDate(l.clock.Now())
	}
	if !validDate(date) {
		return nil, invalid(invalidField("date", "date must use the YYYY-MM-DD format"))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	day, err := l.reservations.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	stats := &ReservationStats{
		Date:    date,
		ByState: make(map[string]int, len(reservationstatus.All)),
	}
	for _, s := range reservationstatus.All {
		stats.ByState[s.Name] = 0
	}
	for _, r := range day {
		stats.Total++
		stats.ByState[r.State]++
		if r.Active() {
			stats.Active++
		}
	}
	return stats, nil
}

// withoutActiveReservations runs fn while no reservation can be added, as
// long as the table has no active bookings.
func (l *Ledger) withoutActiveReservations(ctx context.Context, tableID int64, fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	booked, err := l.reservations.ListByTable(ctx, tableID)
	if err != nil {
		return fmt.Errorf("list reservations: %w", err)
	}
	for _, r := range booked {
		if r.Active() {
			return invalidState(fmt.Sprintf("table %d has active reservation %d on %s", tableID, r.ID, r.Date))
		}
	}
	return fn()
}

func (l *Ledger) get(ctx context.Context, id int64) (*Reservation, error) {
	reservation, err := l.reservations.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	if reservation == nil {
		return nil, notFound("reservation", id)
	}
	return reservation, nil
}

func (l *Ledger) checkTable(ctx context.Context, tableID int64, partySize int) error {
	table, err := l.tables.Get(ctx, tableID)
	if err != nil {
		return fmt.Errorf("get table: %w", err)
	}
	if table == nil {
		return notFound("table", tableID)
	}
	if !table.Seats(partySize) {
		return invalid(invalidField("party_size",
			fmt.Sprintf("table %s seats %d, party of %d does not fit", table.Number, table.Capacity, partySize)))
	}
	return nil
}

// findConflict returns the first active reservation on the table and date
// whose window overlaps [start,end), ignoring excludeID.
func (l *Ledger) findConflict(ctx context.Context, tableID int64, date string, start, end ClockTime, excludeID int64) (*Reservation, error) {
	day, err := l.reservations.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	candidates := day[:0:0]
	for _, r := range day {
		if r.ID != excludeID {
			candidates = append(candidates, r)
		}
	}
	return blockedBy(candidates, tableID, date, start, end), nil
}

func blockedBy(reservations []*Reservation, tableID int64, date string, start, end ClockTime) *Reservation {
	for _, r := range reservations {
		if r.Blocks(tableID, date, start, end) {
			return r
		}
	}
	return nil
}
