package seating

import (
	"context"
)

// Repositories return (nil, nil) from Get lookups when the record does not
// exist. List results are ordered by id, which is also insertion order.
// NextID hands out monotonically increasing ids that are never reused.

type TableRepo interface {
	NextID(ctx context.Context) (int64, error)
	Create(ctx context.Context, table *Table) error
	Get(ctx context.Context, id int64) (*Table, error)
	GetByNumber(ctx context.Context, number string) (*Table, error)
	List(ctx context.Context) ([]*Table, error)
	Save(ctx context.Context, table *Table) error
	Delete(ctx context.Context, id int64) error
}

type ReservationRepo interface {
	NextID(ctx context.Context) (int64, error)
	Create(ctx context.Context, reservation *Reservation) error
	Get(ctx context.Context, id int64) (*Reservation, error)
	List(ctx context.Context) ([]*Reservation, error)
	ListByDate(ctx context.Context, date string) ([]*Reservation, error)
	ListByTable(ctx context.Context, tableID int64) ([]*Reservation, error)
	Save(ctx context.Context, reservation *Reservation) error
	Delete(ctx context.Context, id int64) error
}

type QueueRepo interface {
	NextID(ctx context.Context) (int64, error)
	Create(ctx context.Context, entry *QueueEntry) error
	Get(ctx context.Context, id int64) (*QueueEntry, error)
	List(ctx context.Context) ([]*QueueEntry, error)
	Save(ctx context.Context, entry *QueueEntry) error
	Delete(ctx context.Context, id int64) error
}

type Repos struct {
	TableRepo       TableRepo
	ReservationRepo ReservationRepo
	QueueRepo       QueueRepo
}
