package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sse"
	"github.com/gorilla/mux"

	"bobbystable/internal/entities"
	apperrors "bobbystable/internal/errors"
	"bobbystable/internal/repository"
	"bobbystable/internal/service"
)

// AdminHandler serves the dashboard: live reads, the change stream and
// staff edits.
type AdminHandler struct {
	Service     *service.ReservationService
	Store       *repository.ReservationRepository
	Notifier    *service.Notifier
	EventBuffer int
}

func NewAdminHandler(svc *service.ReservationService, store *repository.ReservationRepository, notifier *service.Notifier, eventBuffer int) *AdminHandler {
	return &AdminHandler{Service: svc, Store: store, Notifier: notifier, EventBuffer: eventBuffer}
}

func (h *AdminHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.ListReservations())
}

func (h *AdminHandler) Availability(w http.ResponseWriter, r *http.Request) {
	avail, err := h.Service.Availability(mux.Vars(r)["date"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}

// Events streams change events as server-sent events until the client
// goes away. The event id is the notifier sequence number, so a client
// that sees a gap knows to reload.
func (h *AdminHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		apperrors.NewHTTPError(http.StatusInternalServerError, "Streaming unsupported").Write(w)
		return
	}

	sub := h.Notifier.Subscribe("sse "+r.RemoteAddr, h.EventBuffer)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		evt, err := sub.Next(r.Context())
		if err != nil {
			if dropped := sub.Dropped(); dropped > 0 {
				log.Printf("Notifier: %s disconnected after dropping %d events", sub.Name(), dropped)
			}
			return
		}
		if err := sse.Encode(w, sse.Event{
			Id:    strconv.FormatUint(evt.Sequence, 10),
			Event: string(evt.Type),
			Data:  evt,
		}); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (h *AdminHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.FindByID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AdminHandler) AdminUpdateReservation(w http.ResponseWriter, r *http.Request) {
	var changes entities.ReservationChanges
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		apperrors.ErrBadRequest("Invalid request").Write(w)
		return
	}
	if changes.IsEmpty() {
		apperrors.ErrBadRequest("No changes").Write(w)
		return
	}
	res, err := h.Store.Modify(mux.Vars(r)["id"], changes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AdminHandler) AdminCancelReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Store.Cancel(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
