package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrNotFound         = errors.New("reservation not found")
	ErrInternal         = errors.New("internal error")
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindCapacityExceeded
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindCapacityExceeded:
		return "capacity_exceeded"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// KindOf classifies err. Anything that does not wrap one of the sentinels
// is an internal fault.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrCapacityExceeded):
		return KindCapacityExceeded
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// InvalidInput wraps ErrInvalidInput with a message fit to be read back
// to the caller.
func InvalidInput(format string, args ...any) error {
	return &spokenError{msg: fmt.Sprintf(format, args...), kind: ErrInvalidInput}
}

type spokenError struct {
	msg  string
	kind error
}

func (e *spokenError) Error() string { return e.kind.Error() + ": " + e.msg }
func (e *spokenError) Unwrap() error { return e.kind }

// SpokenMessage returns the sentence a host would say for err. Invalid
// input built with InvalidInput keeps its own wording; every other kind
// maps to a fixed message.
func SpokenMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *spokenError
	if errors.As(err, &se) {
		return se.msg
	}
	switch KindOf(err) {
	case KindInvalidInput:
		return "I'm sorry, I didn't quite get that. Could you say it again?"
	case KindCapacityExceeded:
		return "I'm sorry, that time slot was just taken. Let me check what else is available."
	case KindNotFound:
		return "I couldn't find a reservation with that information. Would you like to try different details or make a new reservation?"
	default:
		return "Something went wrong, please try again."
	}
}
