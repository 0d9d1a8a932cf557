package conversation

type Action string

const (
	ActionStartReservation  Action = "start_new_reservation"
	ActionSetName           Action = "set_reservation_name"
	ActionSetPartySize      Action = "set_party_size"
	ActionSetDate           Action = "set_reservation_date"
	ActionSetTime           Action = "set_reservation_time"
	ActionSetPhone          Action = "set_phone_number"
	ActionSetRequests       Action = "set_special_requests"
	ActionCheckAvailability Action = "check_availability"
	ActionConfirm           Action = "confirm_reservation"
	ActionGoBack            Action = "go_back"
	ActionLookup            Action = "lookup_reservation"
	ActionSelect            Action = "select_reservation"
	ActionModify            Action = "modify_reservation"
	ActionCancelExisting    Action = "cancel_existing_reservation"
	ActionCancelFlow        Action = "cancel_flow"
	ActionHangup            Action = "hangup"
)

var knownActions = map[Action]bool{
	ActionStartReservation:  true,
	ActionSetName:           true,
	ActionSetPartySize:      true,
	ActionSetDate:           true,
	ActionSetTime:           true,
	ActionSetPhone:          true,
	ActionSetRequests:       true,
	ActionCheckAvailability: true,
	ActionConfirm:           true,
	ActionGoBack:            true,
	ActionLookup:            true,
	ActionSelect:            true,
	ActionModify:            true,
	ActionCancelExisting:    true,
	ActionCancelFlow:        true,
	ActionHangup:            true,
}

func (a Action) Valid() bool {
	return knownActions[a]
}

// collectActions maps each field-setting action to the stage that owns
// the field.
var collectActions = map[Action]Stage{
	ActionSetName:      StageCollectingName,
	ActionSetPartySize: StageCollectingPartySize,
	ActionSetDate:      StageCollectingDate,
	ActionSetTime:      StageCollectingTime,
	ActionSetPhone:     StageCollectingPhone,
	ActionSetRequests:  StageCollectingSpecialRequests,
}

// Args are the named arguments of a structured call. A nil field was not
// supplied; an empty string was supplied empty.
type Args struct {
	Name            *string `json:"name,omitempty"`
	PartySize       *string `json:"party_size,omitempty"`
	Date            *string `json:"date,omitempty"`
	Time            *string `json:"time,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	SpecialRequests *string `json:"requests,omitempty"`
	ReservationID   *string `json:"reservation_id,omitempty"`
	Choice          *string `json:"choice,omitempty"`
	Stage           *string `json:"stage,omitempty"`
}

type Input struct {
	Action Action `json:"action"`
	Args   Args   `json:"args"`
}

// Arg is shorthand for building Args literals.
func Arg(s string) *string { return &s }

func value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
