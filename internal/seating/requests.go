package seating

import (
	"time"

	"github.com/google/uuid"
)

type TableCreateRequest struct {
	Number   string `json:"number"`
	Capacity int    `json:"capacity"`
	State    string `json:"state,omitempty"`
}

type TableStateRequest struct {
	State string `json:"state"`
}

type ReservationCreateRequest struct {
	TableID   int64      `json:"table_id"`
	Date      string     `json:"date"`
	Start     string     `json:"start"`
	End       string     `json:"end,omitempty"`
	PartySize int        `json:"party_size,omitempty"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone,omitempty"`
	Email     string     `json:"email,omitempty"`
	Occasion  string     `json:"occasion,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	ClientID  *uuid.UUID `json:"client_id,omitempty"`
}

// ReservationUpdateRequest is a partial update; nil fields are left alone.
type ReservationUpdateRequest struct {
	TableID   *int64  `json:"table_id,omitempty"`
	Date      *string `json:"date,omitempty"`
	Start     *string `json:"start,omitempty"`
	End       *string `json:"end,omitempty"`
	PartySize *int    `json:"party_size,omitempty"`
	Name      *string `json:"name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
	Occasion  *string `json:"occasion,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	State     *string `json:"state,omitempty"`
}

type ReservationStateRequest struct {
	State string `json:"state"`
}

type ReservationFilter struct {
	Date    string
	TableID int64
	State   string
}

// AvailabilityQuery asks for free start times. A zero TableID covers every
// table that seats the party.
type AvailabilityQuery struct {
	TableID   int64  `json:"table_id,omitempty"`
	Date      string `json:"date"`
	PartySize int    `json:"party_size,omitempty"`
}

type CheckRequest struct {
	TableID   int64  `json:"table_id"`
	Date      string `json:"date"`
	Start     string `json:"start"`
	End       string `json:"end,omitempty"`
	PartySize int    `json:"party_size,omitempty"`
}

type QueueJoinRequest struct {
	ClientID  *uuid.UUID `json:"client_id,omitempty"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	PartySize int        `json:"party_size,omitempty"`
	ArrivedAt *time.Time `json:"arrived_at,omitempty"`
}
