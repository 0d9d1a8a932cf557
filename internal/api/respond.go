package api

import (
	"encoding/json"
	"log"
	"net/http"

	apperrors "bobbystable/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("WARNING: could not write response: %v", err)
	}
}

// writeError maps a core error to its status code and spoken message.
func writeError(w http.ResponseWriter, err error) {
	httpErr := apperrors.FromError(err)
	if httpErr.Code == http.StatusInternalServerError {
		log.Printf("ALERT: %v", err)
	}
	httpErr.Write(w)
}
