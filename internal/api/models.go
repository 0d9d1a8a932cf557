package api

import (
	"encoding/json"
	"fmt"
	"time"

	"bobbystable/internal/conversation"
	"bobbystable/internal/slots"
)

// flexString accepts either a JSON string or a JSON number, since voice
// platforms send party sizes and confirmation numbers both ways.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected a string or a number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

func (f *flexString) ptr() *string {
	if f == nil {
		return nil
	}
	s := string(*f)
	return &s
}

// Calls
type ActionArgs struct {
	Name            *string     `json:"name"`
	PartySize       *flexString `json:"party_size"`
	Date            *string     `json:"date"`
	Time            *string     `json:"time"`
	Phone           *string     `json:"phone"`
	SpecialRequests *string     `json:"special_requests"`
	ReservationID   *flexString `json:"reservation_id"`
	Choice          *flexString `json:"choice"`
	Stage           *string     `json:"stage"`
}

func (a ActionArgs) toArgs() conversation.Args {
	return conversation.Args{
		Name:            a.Name,
		PartySize:       a.PartySize.ptr(),
		Date:            a.Date,
		Time:            a.Time,
		Phone:           a.Phone,
		SpecialRequests: a.SpecialRequests,
		ReservationID:   a.ReservationID.ptr(),
		Choice:          a.Choice.ptr(),
		Stage:           a.Stage,
	}
}

type ActionRequest struct {
	Action string     `json:"action"`
	Args   ActionArgs `json:"args"`
}

// CallResponse is a conversation reply plus the error kind, if the turn
// was refused.
type CallResponse struct {
	conversation.Reply
	Error string `json:"error,omitempty"`
}

// Auth
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	CallAddress string    `json:"call_address,omitempty"`
}

// System
type ConfigResponse struct {
	RestaurantName string       `json:"restaurant_name"`
	PhoneNumber    string       `json:"phone_number,omitempty"`
	CallAddress    string       `json:"call_address,omitempty"`
	Slots          []slots.Slot `json:"slots"`
	MaxPartySize   int          `json:"max_party_size"`
}

type ReadyResponse struct {
	Status      string `json:"status"`
	ActiveCalls int    `json:"active_calls"`
	Observers   int    `json:"observers"`
}
