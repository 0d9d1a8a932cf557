package errors

import (
	"encoding/json"
	"net/http"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int    `json:"-"`
	Kind    string `json:"error"`
	Message string `json:"message"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Write sends the error as a JSON body with its status code.
func (e *HTTPError) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Code)
	json.NewEncoder(w).Encode(e)
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Kind:    http.StatusText(code),
		Message: message,
	}
}

// FromError maps a core error onto the status code and spoken message the
// HTTP layer returns. Internal detail never reaches the response body.
func FromError(err error) *HTTPError {
	kind := KindOf(err)
	code := http.StatusInternalServerError
	switch kind {
	case KindInvalidInput:
		code = http.StatusBadRequest
	case KindCapacityExceeded:
		code = http.StatusConflict
	case KindNotFound:
		code = http.StatusNotFound
	}
	return &HTTPError{
		Code:    code,
		Kind:    kind.String(),
		Message: SpokenMessage(err),
	}
}

// Helper for common errors
var (
	ErrUnauthorized = func(msg string) *HTTPError { return NewHTTPError(http.StatusUnauthorized, msg) }
	ErrBadRequest   = func(msg string) *HTTPError { return NewHTTPError(http.StatusBadRequest, msg) }
)
