package seating

import (
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/seating/pkg/enums/queuestatus"
)

const (
	MinutesPerPosition      = 15
	DefaultStaleCallTimeout = 15 * time.Minute
)

type QueueEntry struct {
	ID            int64      `json:"id" bson:"_id"`
	ClientID      *uuid.UUID `json:"client_id,omitempty" bson:"client_id,omitempty"`
	Name          string     `json:"name" bson:"name"`
	Phone         string     `json:"phone" bson:"phone"`
	PartySize     int        `json:"party_size" bson:"party_size"`
	ArrivedAt     time.Time  `json:"arrived_at" bson:"arrived_at"`
	Position      int        `json:"position" bson:"position"`
	EstimatedWait int        `json:"estimated_wait_minutes" bson:"estimated_wait_minutes"`
	State         string     `json:"state" bson:"state"`
	CalledAt      *time.Time `json:"called_at,omitempty" bson:"called_at,omitempty"`
}

func (e *QueueEntry) ResourceType() string {
	return "queue-entry"
}

func (e *QueueEntry) IsWaiting() bool {
	return e.State == queuestatus.Statuses.Waiting.Name
}

func (e *QueueEntry) IsCalled() bool {
	return e.State == queuestatus.Statuses.Called.Name
}

// place sets the derived position fields. A zero position clears them.
func (e *QueueEntry) place(position int) {
	e.Position = position
	e.EstimatedWait = position * MinutesPerPosition
}

// stale reports whether a called entry has waited longer than timeout.
func (e *QueueEntry) stale(now time.Time, timeout time.Duration) bool {
	return e.IsCalled() && e.CalledAt != nil && now.Sub(*e.CalledAt) > timeout
}

type QueueStats struct {
	Waiting          int     `json:"waiting"`
	Called           int     `json:"called"`
	MaxWaitMinutes   int     `json:"max_wait_minutes"`
	AveragePartySize float64 `json:"average_party_size"`
}
