package db

import "time"

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

type Reservation struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	PartySize       int       `json:"party_size"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	Phone           string    `json:"phone"`
	SpecialRequests string    `json:"special_requests"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (r *Reservation) IsConfirmed() bool {
	return r.Status == StatusConfirmed
}

// SlotKey identifies the (date, time) pair the reservation occupies.
func (r *Reservation) SlotKey() string {
	return r.Date + " " + r.Time
}
