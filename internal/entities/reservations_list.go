package entities

import "bobbystable/internal/db"

// DateGroup is one date's confirmed reservations, ordered by time.
type DateGroup struct {
	Date         string           `json:"date"`
	Reservations []db.Reservation `json:"reservations"`
}

type ReservationsList struct {
	Reservations map[string][]db.Reservation `json:"reservations"`
	TotalCount   int                         `json:"total_count"`
}

// NewReservationsList flattens ordered groups into the dashboard payload.
// encoding/json writes map keys sorted, which keeps ISO dates ascending.
func NewReservationsList(groups []DateGroup) ReservationsList {
	list := ReservationsList{Reservations: make(map[string][]db.Reservation, len(groups))}
	for _, group := range groups {
		list.Reservations[group.Date] = group.Reservations
		list.TotalCount += len(group.Reservations)
	}
	return list
}
