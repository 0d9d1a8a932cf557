package entities

type ReservationRequest struct {
	Name            string `json:"name"`
	PartySize       int    `json:"party_size"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Phone           string `json:"phone"`
	SpecialRequests string `json:"special_requests"`
}

// ReservationChanges carries only the fields a modification touches; nil
// means "leave as is".
type ReservationChanges struct {
	Name            *string `json:"name,omitempty"`
	PartySize       *int    `json:"party_size,omitempty"`
	Date            *string `json:"date,omitempty"`
	Time            *string `json:"time,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	SpecialRequests *string `json:"special_requests,omitempty"`
}

func (c ReservationChanges) IsEmpty() bool {
	return c.Name == nil && c.PartySize == nil && c.Date == nil &&
		c.Time == nil && c.Phone == nil && c.SpecialRequests == nil
}

func (c ReservationChanges) MovesSlot() bool {
	return c.Date != nil || c.Time != nil
}
