package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"bobbystable/internal/conversation"
	apperrors "bobbystable/internal/errors"
)

// CallHandler exposes conversations to the voice platform: one session
// per call, one request per caller action.
type CallHandler struct {
	Calls *conversation.Manager
}

func NewCallHandler(calls *conversation.Manager) *CallHandler {
	return &CallHandler{Calls: calls}
}

func (h *CallHandler) StartCall(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, CallResponse{Reply: h.Calls.Begin("")})
}

func (h *CallHandler) BeginCall(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CallResponse{Reply: h.Calls.Begin(mux.Vars(r)["callID"])})
}

func (h *CallHandler) GetCall(w http.ResponseWriter, r *http.Request) {
	reply, err := h.Calls.Describe(mux.Vars(r)["callID"])
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CallResponse{Reply: reply})
}

// Action runs one turn. Refusals the caller can recover from still
// answer 200: the reply carries the spoken message and the error kind.
func (h *CallHandler) Action(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.ErrBadRequest("Invalid request").Write(w)
		return
	}
	action := conversation.Action(req.Action)
	if !action.Valid() {
		apperrors.ErrBadRequest("Unknown action").Write(w)
		return
	}

	reply, err := h.Calls.Handle(mux.Vars(r)["callID"], conversation.Input{Action: action, Args: req.Args.toArgs()})
	if err != nil {
		writeCallError(w, err)
		return
	}
	resp := CallResponse{Reply: reply}
	if reply.Err != nil {
		resp.Error = apperrors.KindOf(reply.Err).String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CallHandler) Hangup(w http.ResponseWriter, r *http.Request) {
	reply, err := h.Calls.End(mux.Vars(r)["callID"])
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CallResponse{Reply: reply})
}

func writeCallError(w http.ResponseWriter, err error) {
	if errors.Is(err, conversation.ErrUnknownCall) {
		apperrors.NewHTTPError(http.StatusNotFound, "Unknown call").Write(w)
		return
	}
	writeError(w, err)
}
