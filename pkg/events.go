package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// TablesChannel carries table registry changes.
	TablesChannel = "tables"
	// ReservationsChannel carries reservation ledger changes.
	ReservationsChannel = "reservations"
	// QueueChannel carries virtual queue changes, including table assignments.
	QueueChannel = "queue"

	// TopicPrefix namespaces every channel on shared brokers.
	TopicPrefix = "seating."

	EventTableCreated      = "table.created"
	EventTableDeleted      = "table.deleted"
	EventTableStateChanged = "table.state_changed"

	EventReservationCreated      = "reservation.created"
	EventReservationUpdated      = "reservation.updated"
	EventReservationStateChanged = "reservation.state_changed"
	EventReservationDeleted      = "reservation.deleted"

	EventPartyJoined    = "queue.party_joined"
	EventPartyCalled    = "queue.party_called"
	EventPartyAssigned  = "queue.party_assigned"
	EventPartyConfirmed = "queue.party_confirmed"
	EventPartyRemoved   = "queue.party_removed"
	EventStaleRemoved   = "queue.stale_removed"
)

// Event is the envelope published for every state change of the seating
// engine. Payload is a flat key-value record; consumers must tolerate
// unknown keys.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Channel    string         `json:"channel"`
	Type       string         `json:"type"`
	Payload    map[string]any `json:"payload"`
	Source     string         `json:"source,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewEvent builds an event stamped with a fresh id and the current UTC time.
func NewEvent(channel, eventType string, payload map[string]any) Event {
	if payload == nil {
		payload = map[string]any{}
	}
	return Event{
		ID:         uuid.New(),
		Channel:    channel,
		Type:       eventType,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Topic returns the broker subject for the event's channel.
func (e Event) Topic() string {
	return ChannelTopic(e.Channel)
}

// ChannelTopic maps a channel name to its broker subject.
func ChannelTopic(channel string) string {
	return TopicPrefix + channel
}

// Channels lists every channel the engine publishes to.
func Channels() []string {
	return []string{TablesChannel, ReservationsChannel, QueueChannel}
}

// DecodeEvent parses an envelope as published by the engine.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("cannot decode event: %w", err)
	}
	if event.Channel == "" || event.Type == "" {
		return Event{}, errors.New("event has no channel or type")
	}
	return event, nil
}
