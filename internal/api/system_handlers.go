package api

import (
	"net/http"

	"github.com/google/uuid"

	"bobbystable/internal/auth"
	"bobbystable/internal/conversation"
	"bobbystable/internal/service"
	"bobbystable/internal/slots"
)

type SystemHandler struct {
	RestaurantName string
	PhoneNumber    string
	CallAddress    string
	Schedule       *slots.Schedule
	Calls          *conversation.Manager
	Notifier       *service.Notifier
	Tokens         *auth.TokenIssuer
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *SystemHandler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ReadyResponse{
		Status:      "ready",
		ActiveCalls: h.Calls.Count(),
		Observers:   h.Notifier.ObserverCount(),
	})
}

func (h *SystemHandler) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ConfigResponse{
		RestaurantName: h.RestaurantName,
		PhoneNumber:    h.PhoneNumber,
		CallAddress:    h.CallAddress,
		Slots:          h.Schedule.Slots(),
		MaxPartySize:   h.Schedule.MaxPartySize(),
	})
}

// GetToken issues the short-lived guest token a caller's client uses for
// the call API.
func (h *SystemHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	token, expires, err := h.Tokens.Issue("guest-"+uuid.NewString(), auth.RoleGuest, auth.GuestTokenTTL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: expires, CallAddress: h.CallAddress})
}
