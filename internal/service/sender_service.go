package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"

	"bobbystable/internal/clock"
	"bobbystable/internal/db"
	"bobbystable/internal/entities"
)

//go:embed templates/reservation_email.html
var templateFS embed.FS

var reservationEmailTemplate = template.Must(template.ParseFS(templateFS, "templates/reservation_email.html"))

// SenderService turns change events into a text message for the guest and
// an email for the manager. Either channel is skipped when its sender is
// nil.
type SenderService struct {
	RestaurantName string
	ManagerEmail   string

	SMS   SMSSender
	Email EmailSender

	// Lookup resolves cancelled events, which carry only the id.
	Lookup func(id string) (db.Reservation, error)
	Clock  clock.Clock
}

func NewSenderService(restaurantName, managerEmail string, sms SMSSender, email EmailSender, lookup func(string) (db.Reservation, error), clk clock.Clock) *SenderService {
	return &SenderService{
		RestaurantName: restaurantName,
		ManagerEmail:   managerEmail,
		SMS:            sms,
		Email:          email,
		Lookup:         lookup,
		Clock:          clk,
	}
}

func (s *SenderService) Enabled() bool {
	return s.SMS != nil || (s.Email != nil && s.ManagerEmail != "")
}

// HandleEvent is a Notifier observer callback.
func (s *SenderService) HandleEvent(_ context.Context, evt entities.ChangeEvent) {
	reservation, ok := s.resolve(evt)
	if !ok {
		return
	}
	status := statusWord(evt.Type)
	s.SendReservationSMS(reservation, status)
	s.SendReservationEmail(reservation, status)
}

func (s *SenderService) resolve(evt entities.ChangeEvent) (db.Reservation, bool) {
	if evt.Reservation != nil {
		return *evt.Reservation, true
	}
	if s.Lookup == nil {
		return db.Reservation{}, false
	}
	reservation, err := s.Lookup(evt.ReservationID)
	if err != nil {
		log.Printf("ALERT: could not load reservation %s for %s notification: %v", evt.ReservationID, evt.Type, err)
		return db.Reservation{}, false
	}
	return reservation, true
}

func statusWord(t entities.EventType) string {
	switch t {
	case entities.EventCreated:
		return "confirmed"
	case entities.EventModified:
		return "updated"
	case entities.EventCancelled:
		return "cancelled"
	default:
		return string(t)
	}
}

func (s *SenderService) SendReservationSMS(reservation db.Reservation, status string) {
	if s.SMS == nil {
		return
	}

	var smsMessage string
	switch status {
	case "cancelled":
		smsMessage = fmt.Sprintf("%s: Reservation %s for %s at %s has been cancelled.",
			s.RestaurantName, reservation.ID, reservation.Date, reservation.Time)
	default:
		smsMessage = fmt.Sprintf("%s: Reservation %s is %s! %s, party of %d, on %s at %s.",
			s.RestaurantName, reservation.ID, status, reservation.Name, reservation.PartySize,
			reservation.Date, reservation.Time)
	}

	if err := s.SMS.SendSMS(reservation.Phone, smsMessage); err != nil {
		log.Printf("ALERT: reservation %s is %s, but the SMS to %s failed: %v", reservation.ID, status, reservation.Phone, err)
	}
}

func (s *SenderService) SendReservationEmail(reservation db.Reservation, status string) {
	if s.Email == nil || s.ManagerEmail == "" {
		return
	}

	emailData := entities.ReservationEmailData{
		RestaurantName:  s.RestaurantName,
		GuestName:       reservation.Name,
		ReservationCode: reservation.ID,
		PartySize:       reservation.PartySize,
		Date:            reservation.Date,
		Time:            reservation.Time,
		Phone:           reservation.Phone,
		SpecialRequests: reservation.SpecialRequests,
		Status:          status,
		CurrentYear:     s.Clock.Now().Year(),
	}

	emailSubject := fmt.Sprintf("[%s] Reservation %s %s", s.RestaurantName, reservation.ID, status)
	plainTextBody := fmt.Sprintf(
		"Reservation %s is %s.\n\n"+
			"Guest: %s\n"+
			"Party: %d\n"+
			"Date: %s\n"+
			"Time: %s\n"+
			"Phone: %s\n"+
			"Special requests: %s\n",
		emailData.ReservationCode, status, emailData.GuestName, emailData.PartySize,
		emailData.Date, emailData.Time, emailData.Phone, emailData.SpecialRequests,
	)

	var htmlBodyBuffer bytes.Buffer
	if err := reservationEmailTemplate.Execute(&htmlBodyBuffer, emailData); err != nil {
		log.Printf("ALERT: rendering the HTML email for reservation %s failed: %v", reservation.ID, err)
	}

	if err := s.Email.SendEmail(s.ManagerEmail, s.RestaurantName, emailSubject, plainTextBody, htmlBodyBuffer.String()); err != nil {
		log.Printf("ALERT: email for reservation %s (%s) failed: %v", reservation.ID, status, err)
	}
}
