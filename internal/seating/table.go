package seating

import (
	"time"

	"github.com/appetiteclub/seating/pkg/enums/tablestate"
)

type Table struct {
	ID        int64     `json:"id" bson:"_id"`
	Number    string    `json:"number" bson:"number"`
	Capacity  int       `json:"capacity" bson:"capacity"`
	State     string    `json:"state" bson:"state"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (t *Table) ResourceType() string {
	return "table"
}

func NewTable(number string, capacity int) *Table {
	return &Table{
		Number:   number,
		Capacity: capacity,
		State:    tablestate.States.Available.Name,
	}
}

func (t *Table) BeforeCreate(now time.Time) {
	t.CreatedAt = now
	t.UpdatedAt = now
}

func (t *Table) BeforeUpdate(now time.Time) {
	t.UpdatedAt = now
}

// Seats reports whether a party of the given size fits at the table.
func (t *Table) Seats(partySize int) bool {
	return partySize <= t.Capacity
}

func (t *Table) IsAvailable() bool {
	return t.State == tablestate.States.Available.Name
}

// StateChange is the outcome of a table state transition, including the
// party matched to the table when it became available.
type StateChange struct {
	Table         *Table      `json:"table"`
	PreviousState string      `json:"previous_state"`
	AssignedParty *QueueEntry `json:"assigned_party,omitempty"`
}

type TableStats struct {
	Total             int            `json:"total"`
	ByState           map[string]int `json:"by_state"`
	TotalCapacity     int            `json:"total_capacity"`
	AvailableCapacity int            `json:"available_capacity"`
}
