package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"bobbystable/internal/clock"
)

const (
	ReapSchedule  = "@every 1m"
	PurgeSchedule = "@hourly"
)

type CancelledPurger interface {
	PurgeCancelledBefore(cutoff time.Time) int
}

type SessionReaper interface {
	ReapIdle(maxIdle time.Duration) int
}

// JobService runs the periodic housekeeping: abandoning calls that went
// quiet and dropping old cancelled reservations.
type JobService struct {
	Purger      CancelledPurger
	Sessions    SessionReaper
	Clock       clock.Clock
	Retention   time.Duration
	IdleTimeout time.Duration

	cron *cron.Cron
}

func NewJobService(purger CancelledPurger, sessions SessionReaper, clk clock.Clock, retention, idleTimeout time.Duration) *JobService {
	return &JobService{
		Purger:      purger,
		Sessions:    sessions,
		Clock:       clk,
		Retention:   retention,
		IdleTimeout: idleTimeout,
	}
}

// PurgeCancelledReservations removes cancelled records older than the
// retention window. Their confirmation numbers stay reserved.
func (s *JobService) PurgeCancelledReservations() int {
	cutoff := s.Clock.Now().Add(-s.Retention)
	n := s.Purger.PurgeCancelledBefore(cutoff)
	if n > 0 {
		log.Printf("Cron Job: purged %d cancelled reservation(s) older than %s", n, cutoff.Format(time.RFC3339))
	}
	return n
}

func (s *JobService) ReapIdleSessions() int {
	return s.Sessions.ReapIdle(s.IdleTimeout)
}

func (s *JobService) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(ReapSchedule, func() { s.ReapIdleSessions() }); err != nil {
		return fmt.Errorf("cron job: schedule session reaping: %w", err)
	}
	if _, err := c.AddFunc(PurgeSchedule, func() { s.PurgeCancelledReservations() }); err != nil {
		return fmt.Errorf("cron job: schedule purge: %w", err)
	}
	c.Start()
	s.cron = c
	log.Println("Cron Job: housekeeping scheduled")
	return nil
}

// Stop halts the schedule; the returned context is done once running
// jobs finish.
func (s *JobService) Stop() context.Context {
	if s.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return s.cron.Stop()
}
