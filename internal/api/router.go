package api

import (
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"bobbystable/internal/auth"
)

type Router struct {
	System    *SystemHandler
	Calls     *CallHandler
	Admin     *AdminHandler
	AdminAuth *AdminAuthHandler
	Sessions  *auth.SessionManager
	Tokens    *auth.TokenIssuer
}

func (rt Router) Build() *mux.Router {
	r := mux.NewRouter()

	// System
	r.HandleFunc("/health", rt.System.Health).Methods("GET")
	r.HandleFunc("/ready", rt.System.Ready).Methods("GET")
	r.HandleFunc("/api/config", rt.System.Config).Methods("GET")
	r.HandleFunc("/get_token", rt.System.GetToken).Methods("GET")

	// Dashboard reads
	r.HandleFunc("/api/reservations", rt.Admin.ListReservations).Methods("GET")
	r.HandleFunc("/api/availability/{date}", rt.Admin.Availability).Methods("GET")
	r.HandleFunc("/api/events", rt.Admin.Events).Methods("GET")

	// Calls (guest token)
	guest := auth.GuestAuthMiddleware(rt.Tokens)
	r.Handle("/api/calls", guest(http.HandlerFunc(rt.Calls.StartCall))).Methods("POST")
	r.Handle("/api/calls/{callID}", guest(http.HandlerFunc(rt.Calls.BeginCall))).Methods("POST")
	r.Handle("/api/calls/{callID}", guest(http.HandlerFunc(rt.Calls.GetCall))).Methods("GET")
	r.Handle("/api/calls/{callID}", guest(http.HandlerFunc(rt.Calls.Hangup))).Methods("DELETE")
	r.Handle("/api/calls/{callID}/actions", guest(http.HandlerFunc(rt.Calls.Action))).Methods("POST")

	// Staff
	r.HandleFunc("/admin/login", rt.AdminAuth.Login).Methods("POST")
	r.HandleFunc("/admin/logout", rt.AdminAuth.Logout).Methods("POST")

	admin := r.PathPrefix("/admin/reservations").Subrouter()
	admin.Use(auth.AdminAuthMiddleware(rt.Sessions, rt.Tokens))
	admin.HandleFunc("/{id}", rt.Admin.GetReservation).Methods("GET")
	admin.HandleFunc("/{id}", rt.Admin.AdminUpdateReservation).Methods("PUT")
	admin.HandleFunc("/{id}", rt.Admin.AdminCancelReservation).Methods("DELETE")

	return r
}

// Wrap adds CORS, panic recovery and an access log around h.
func Wrap(h http.Handler, origins []string, accessLog io.Writer) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)
	return handlers.LoggingHandler(accessLog, handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(cors(h)))
}
