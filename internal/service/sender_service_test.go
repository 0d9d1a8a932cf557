package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bobbystable/internal/clock"
	"bobbystable/internal/db"
	"bobbystable/internal/entities"
	apperrors "bobbystable/internal/errors"
)

type sentSMS struct{ to, body string }

type fakeSMS struct {
	sent []sentSMS
	err  error
}

func (f *fakeSMS) SendSMS(to, body string) error {
	f.sent = append(f.sent, sentSMS{to, body})
	return f.err
}

type sentEmail struct{ to, subject, plain, html string }

type fakeEmail struct {
	sent []sentEmail
}

func (f *fakeEmail) SendEmail(to, _, subject, plain, html string) error {
	f.sent = append(f.sent, sentEmail{to, subject, plain, html})
	return nil
}

var janeReservation = db.Reservation{
	ID:              "482913",
	Name:            "Jane Doe",
	PartySize:       4,
	Date:            "2025-01-15",
	Time:            "19:00",
	Phone:           "+15551234567",
	SpecialRequests: "Anniversary",
	Status:          db.StatusConfirmed,
}

func newSender(sms SMSSender, email EmailSender, lookup func(string) (db.Reservation, error)) *SenderService {
	return NewSenderService("Bobby's Table", "manager@bobbystable.test", sms, email, lookup,
		clock.Fake(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)))
}

func TestSenderCreatedEvent(t *testing.T) {
	sms := &fakeSMS{}
	email := &fakeEmail{}
	s := newSender(sms, email, nil)

	res := janeReservation
	s.HandleEvent(context.Background(), entities.ChangeEvent{Type: entities.EventCreated, Reservation: &res})

	require.Len(t, sms.sent, 1)
	assert.Equal(t, "+15551234567", sms.sent[0].to)
	assert.Equal(t, "Bobby's Table: Reservation 482913 is confirmed! Jane Doe, party of 4, on 2025-01-15 at 19:00.", sms.sent[0].body)

	require.Len(t, email.sent, 1)
	assert.Equal(t, "manager@bobbystable.test", email.sent[0].to)
	assert.Equal(t, "[Bobby's Table] Reservation 482913 confirmed", email.sent[0].subject)
	assert.Contains(t, email.sent[0].plain, "Special requests: Anniversary")
	assert.Contains(t, email.sent[0].html, "Anniversary")
	assert.Contains(t, email.sent[0].html, "2025")
}

func TestSenderCancelledEventLooksUpRecord(t *testing.T) {
	sms := &fakeSMS{}
	lookup := func(id string) (db.Reservation, error) {
		require.Equal(t, "482913", id)
		res := janeReservation
		res.Status = db.StatusCancelled
		return res, nil
	}
	s := newSender(sms, nil, lookup)

	s.HandleEvent(context.Background(), entities.ChangeEvent{
		Type:          entities.EventCancelled,
		ReservationID: "482913",
		Status:        db.StatusCancelled,
	})

	require.Len(t, sms.sent, 1)
	assert.Equal(t, "Bobby's Table: Reservation 482913 for 2025-01-15 at 19:00 has been cancelled.", sms.sent[0].body)
}

func TestSenderSkipsUnresolvableEvents(t *testing.T) {
	sms := &fakeSMS{}
	s := newSender(sms, nil, func(string) (db.Reservation, error) {
		return db.Reservation{}, apperrors.ErrNotFound
	})
	s.HandleEvent(context.Background(), entities.ChangeEvent{Type: entities.EventCancelled, ReservationID: "1"})
	assert.Empty(t, sms.sent)
}

func TestSenderSurvivesSendFailure(t *testing.T) {
	sms := &fakeSMS{err: errors.New("twilio down")}
	s := newSender(sms, nil, nil)
	res := janeReservation
	assert.NotPanics(t, func() {
		s.HandleEvent(context.Background(), entities.ChangeEvent{Type: entities.EventModified, Reservation: &res})
	})
	require.Len(t, sms.sent, 1)
	assert.Contains(t, sms.sent[0].body, "is updated!")
}

func TestSenderEnabled(t *testing.T) {
	assert.False(t, newSender(nil, nil, nil).Enabled())
	assert.True(t, newSender(&fakeSMS{}, nil, nil).Enabled())
	assert.True(t, newSender(nil, &fakeEmail{}, nil).Enabled())
}
