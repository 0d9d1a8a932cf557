package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"bobbystable/internal/auth"
	apperrors "bobbystable/internal/errors"
	"bobbystable/internal/service"
)

type AdminAuthHandler struct {
	service  service.AdminAuthService
	sessions *auth.SessionManager
}

func NewAdminAuthHandler(svc service.AdminAuthService, sessions *auth.SessionManager) *AdminAuthHandler {
	return &AdminAuthHandler{service: svc, sessions: sessions}
}

// Login checks staff credentials, sets the session cookie and returns a
// bearer token for API clients.
func (h *AdminAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.ErrBadRequest("Invalid request body").Write(w)
		return
	}

	token, expires, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			log.Printf("ALERT: admin login failed: %v", err)
		}
		apperrors.ErrUnauthorized("Invalid credentials").Write(w)
		return
	}
	if err := h.sessions.SetUser(w, r, req.Username); err != nil {
		log.Printf("WARNING: could not set session cookie: %v", err)
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: expires})
}

func (h *AdminAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
