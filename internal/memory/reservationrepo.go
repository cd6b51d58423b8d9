package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/appetiteclub/seating/internal/seating"
)

type ReservationRepo struct {
	mu           sync.RWMutex
	seq          int64
	reservations map[int64]seating.Reservation
}

func NewReservationRepo() *ReservationRepo {
	return &ReservationRepo{reservations: make(map[int64]seating.Reservation)}
}

func (r *ReservationRepo) NextID(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	return r.seq, nil
}

func (r *ReservationRepo) Create(ctx context.Context, reservation *seating.Reservation) error {
	if reservation == nil {
		return fmt.Errorf("reservation is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reservations[reservation.ID]; ok {
		return fmt.Errorf("reservation %d already exists", reservation.ID)
	}
	r.reservations[reservation.ID] = *reservation
	return nil
}

func (r *ReservationRepo) Get(ctx context.Context, id int64) (*seating.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reservation, ok := r.reservations[id]
	if !ok {
		return nil, nil
	}
	return &reservation, nil
}

func (r *ReservationRepo) List(ctx context.Context) ([]*seating.Reservation, error) {
	return r.filter(func(*seating.Reservation) bool { return true }), nil
}

func (r *ReservationRepo) ListByDate(ctx context.Context, date string) ([]*seating.Reservation, error) {
	return r.filter(func(res *seating.Reservation) bool { return res.Date == date }), nil
}

func (r *ReservationRepo) ListByTable(ctx context.Context, tableID int64) ([]*seating.Reservation, error) {
	return r.filter(func(res *seating.Reservation) bool { return res.TableID == tableID }), nil
}

func (r *ReservationRepo) Save(ctx context.Context, reservation *seating.Reservation) error {
	if reservation == nil {
		return fmt.Errorf("reservation is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reservations[reservation.ID]; !ok {
		return fmt.Errorf("reservation not found")
	}
	r.reservations[reservation.ID] = *reservation
	return nil
}

func (r *ReservationRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reservations[id]; !ok {
		return fmt.Errorf("reservation not found")
	}
	delete(r.reservations, id)
	return nil
}

func (r *ReservationRepo) filter(keep func(*seating.Reservation) bool) []*seating.Reservation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*seating.Reservation, 0)
	for _, reservation := range r.reservations {
		if keep(&reservation) {
			result = append(result, &reservation)
		}
	}
	slices.SortFunc(result, func(a, b *seating.Reservation) int {
		return compareIDs(a.ID, b.ID)
	})
	return result
}
