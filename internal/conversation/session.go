package conversation

import (
	"time"

	"bobbystable/internal/db"
	"bobbystable/internal/entities"
)

// PendingBooking is the booking being assembled on the new-reservation
// path. It is never visible to the store until confirmation.
type PendingBooking struct {
	Name            string `json:"name,omitempty"`
	PartySize       int    `json:"party_size,omitempty"`
	Date            string `json:"date,omitempty"`
	Time            string `json:"time,omitempty"`
	Phone           string `json:"phone,omitempty"`
	SpecialRequests string `json:"special_requests,omitempty"`

	requestsCollected bool
}

func (p *PendingBooking) has(stage Stage) bool {
	switch stage {
	case StageCollectingName:
		return p.Name != ""
	case StageCollectingPartySize:
		return p.PartySize > 0
	case StageCollectingDate:
		return p.Date != ""
	case StageCollectingTime:
		return p.Time != ""
	case StageCollectingPhone:
		return p.Phone != ""
	case StageCollectingSpecialRequests:
		return p.requestsCollected
	}
	return false
}

func (p *PendingBooking) request() entities.ReservationRequest {
	return entities.ReservationRequest{
		Name:            p.Name,
		PartySize:       p.PartySize,
		Date:            p.Date,
		Time:            p.Time,
		Phone:           p.Phone,
		SpecialRequests: p.SpecialRequests,
	}
}

// manageState is the manage-path payload: candidate matches while looking
// up, then the chosen reservation and the changes gathered for it.
type manageState struct {
	matches []db.Reservation
	target  *db.Reservation
	changes entities.ReservationChanges
}

// preview applies the pending changes to a copy of the target.
func (m *manageState) preview() db.Reservation {
	res := *m.target
	if m.changes.Name != nil {
		res.Name = *m.changes.Name
	}
	if m.changes.PartySize != nil {
		res.PartySize = *m.changes.PartySize
	}
	if m.changes.Date != nil {
		res.Date = *m.changes.Date
	}
	if m.changes.Time != nil {
		res.Time = *m.changes.Time
	}
	if m.changes.Phone != nil {
		res.Phone = *m.changes.Phone
	}
	if m.changes.SpecialRequests != nil {
		res.SpecialRequests = *m.changes.SpecialRequests
	}
	return res
}

// Session is one caller's conversation. At most one of booking and manage
// is set, matching the path the caller is on.
type Session struct {
	CallID       string
	StartedAt    time.Time
	LastActivity time.Time

	stage   Stage
	booking *PendingBooking
	manage  *manageState

	// unavailable remembers slots that turned out full during this call,
	// keyed by date then time.
	unavailable map[string]map[string]bool
}

func newSession(callID string, now time.Time) *Session {
	return &Session{
		CallID:       callID,
		StartedAt:    now,
		LastActivity: now,
		stage:        StageGreeting,
		unavailable:  make(map[string]map[string]bool),
	}
}

func (s *Session) Stage() Stage {
	return s.stage
}

// Pending returns a copy of the booking in progress, if any.
func (s *Session) Pending() *PendingBooking {
	if s.booking == nil {
		return nil
	}
	p := *s.booking
	return &p
}

func (s *Session) markUnavailable(date, time string) {
	if s.unavailable[date] == nil {
		s.unavailable[date] = make(map[string]bool)
	}
	s.unavailable[date][time] = true
}

func (s *Session) isUnavailable(date, time string) bool {
	return s.unavailable[date][time]
}

func (s *Session) reset() {
	s.booking = nil
	s.manage = nil
}

// Reply is what the host says back after one action, plus the structured
// data behind it.
type Reply struct {
	CallID       string                         `json:"call_id"`
	Stage        Stage                          `json:"stage"`
	Path         []Stage                        `json:"path,omitempty"`
	Message      string                         `json:"message"`
	Reservation  *db.Reservation                `json:"reservation,omitempty"`
	Matches      []db.Reservation               `json:"matches,omitempty"`
	Availability *entities.AvailabilityResponse `json:"availability,omitempty"`
	Pending      *PendingBooking                `json:"pending,omitempty"`
	Err          error                          `json:"-"`
}
