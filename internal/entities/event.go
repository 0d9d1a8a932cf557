package entities

import (
	"time"

	"bobbystable/internal/db"
)

type EventType string

const (
	EventCreated   EventType = "created"
	EventModified  EventType = "modified"
	EventCancelled EventType = "cancelled"
)

// ChangeEvent is published once per committed store mutation. Created and
// modified events carry the full record; cancelled events carry only the
// id and the new status.
type ChangeEvent struct {
	Type          EventType       `json:"type"`
	Sequence      uint64          `json:"sequence"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Reservation   *db.Reservation `json:"reservation,omitempty"`
	ReservationID string          `json:"reservation_id,omitempty"`
	Status        string          `json:"status,omitempty"`
}

// ID returns the affected reservation id whatever the event type.
func (e ChangeEvent) ID() string {
	if e.Reservation != nil {
		return e.Reservation.ID
	}
	return e.ReservationID
}
