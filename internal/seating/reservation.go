package seating

import (
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/seating/pkg/enums/reservationstatus"
)

const (
	DefaultReservationDuration = 2 * time.Hour
	DefaultPartySize           = 2
)

type Reservation struct {
	ID        int64      `json:"id" bson:"_id"`
	TableID   int64      `json:"table_id" bson:"table_id"`
	Date      string     `json:"date" bson:"date"`
	Start     ClockTime  `json:"start" bson:"start"`
	End       ClockTime  `json:"end" bson:"end"`
	PartySize int        `json:"party_size" bson:"party_size"`
	Name      string     `json:"name" bson:"name"`
	Phone     string     `json:"phone,omitempty" bson:"phone,omitempty"`
	Email     string     `json:"email,omitempty" bson:"email,omitempty"`
	State     string     `json:"state" bson:"state"`
	Occasion  string     `json:"occasion,omitempty" bson:"occasion,omitempty"`
	Notes     string     `json:"notes,omitempty" bson:"notes,omitempty"`
	ClientID  *uuid.UUID `json:"client_id,omitempty" bson:"client_id,omitempty"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

func (r *Reservation) ResourceType() string {
	return "reservation"
}

func (r *Reservation) BeforeCreate(now time.Time) {
	r.CreatedAt = now
	r.UpdatedAt = now
}

func (r *Reservation) BeforeUpdate(now time.Time) {
	r.UpdatedAt = now
}

// Active reports whether the reservation holds its window. Only active
// reservations take part in conflict detection.
func (r *Reservation) Active() bool {
	return reservationstatus.IsActive(r.State)
}

// Blocks reports whether this reservation collides with the given window on
// the same table and date.
func (r *Reservation) Blocks(tableID int64, date string, start, end ClockTime) bool {
	return r.Active() && r.TableID == tableID && r.Date == date && Overlaps(r.Start, r.End, start, end)
}

// TableSlots lists the free start times of one table on a date.
type TableSlots struct {
	TableID   int64       `json:"table_id"`
	Number    string      `json:"number"`
	Capacity  int         `json:"capacity"`
	FreeSlots []ClockTime `json:"free_slots"`
}

type Availability struct {
	Date         string       `json:"date"`
	PartySize    int          `json:"party_size"`
	Tables       []TableSlots `json:"tables"`
	TotalOptions int          `json:"total_options"`
}

// CheckResult answers whether a single slot can be booked.
type CheckResult struct {
	Available    bool            `json:"available"`
	Message      string          `json:"message"`
	Conflict     *ConflictDetail `json:"conflict,omitempty"`
	EstimatedEnd ClockTime       `json:"estimated_end"`
}

type ReservationStats struct {
	Date    string         `json:"date"`
	Total   int            `json:"total"`
	Active  int            `json:"active"`
	ByState map[string]int `json:"by_state"`
}
