package conversation

import "fmt"

type Stage int

const (
	StageGreeting Stage = iota
	StageCollectingName
	StageCollectingPartySize
	StageCollectingDate
	StageCollectingTime
	StageCollectingPhone
	StageCollectingSpecialRequests
	StageAwaitingConfirmation
	StageCommitted
	StageAbandoned
	StageLookup
	StageFound
	StageNotFound
	StageAwaitingManageChoice
	StageModifying
	StageConfirmingCancel
	StageCancelled
)

var stageNames = map[Stage]string{
	StageGreeting:                  "greeting",
	StageCollectingName:            "collecting_name",
	StageCollectingPartySize:       "collecting_party_size",
	StageCollectingDate:            "collecting_date",
	StageCollectingTime:            "collecting_time",
	StageCollectingPhone:           "collecting_phone",
	StageCollectingSpecialRequests: "collecting_special_requests",
	StageAwaitingConfirmation:      "awaiting_confirmation",
	StageCommitted:                 "committed",
	StageAbandoned:                 "abandoned",
	StageLookup:                    "lookup",
	StageFound:                     "found",
	StageNotFound:                  "not_found",
	StageAwaitingManageChoice:      "awaiting_manage_choice",
	StageModifying:                 "modifying",
	StageConfirmingCancel:          "confirming_cancel",
	StageCancelled:                 "cancelled",
}

// fieldStages lets "go back" name either a stage or the field it collects.
var fieldStages = map[string]Stage{
	"name":             StageCollectingName,
	"party_size":       StageCollectingPartySize,
	"date":             StageCollectingDate,
	"time":             StageCollectingTime,
	"phone":            StageCollectingPhone,
	"special_requests": StageCollectingSpecialRequests,
	"requests":         StageCollectingSpecialRequests,
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func ParseStage(name string) (Stage, bool) {
	if stage, ok := fieldStages[name]; ok {
		return stage, true
	}
	for stage, n := range stageNames {
		if n == name {
			return stage, true
		}
	}
	return 0, false
}

// IsCollecting is true for the ordered stages that each gather one field
// of a new booking.
func (s Stage) IsCollecting() bool {
	return s >= StageCollectingName && s <= StageCollectingSpecialRequests
}

func (s Stage) IsTerminal() bool {
	return s == StageCommitted || s == StageAbandoned || s == StageCancelled
}

// idle stages accept the start of a new flow.
func (s Stage) idle() bool {
	return s == StageGreeting || s == StageNotFound || s.IsTerminal()
}
