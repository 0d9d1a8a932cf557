package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bobbystable/internal/clock"
	"bobbystable/internal/entities"
	"bobbystable/internal/repository"
	"bobbystable/internal/slots"
)

type fakeReaper struct {
	maxIdle time.Duration
	reaped  int
}

func (f *fakeReaper) ReapIdle(maxIdle time.Duration) int {
	f.maxIdle = maxIdle
	return f.reaped
}

func TestPurgeCancelledReservations(t *testing.T) {
	clk := clock.Fake(time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))
	repo := repository.NewReservationRepository(slots.Default(), nil, clk)

	old, err := repo.Create(entities.ReservationRequest{Name: "Old", PartySize: 2, Date: "2025-01-20", Time: "18:00", Phone: "555-123-4567"})
	require.NoError(t, err)
	_, err = repo.Cancel(old.ID)
	require.NoError(t, err)

	clk.Advance(48 * time.Hour)
	recent, err := repo.Create(entities.ReservationRequest{Name: "Recent", PartySize: 2, Date: "2025-01-20", Time: "18:00", Phone: "555-123-4567"})
	require.NoError(t, err)
	_, err = repo.Cancel(recent.ID)
	require.NoError(t, err)

	jobs := NewJobService(repo, &fakeReaper{}, clk, 24*time.Hour, time.Minute)
	assert.Equal(t, 1, jobs.PurgeCancelledReservations())

	_, err = repo.FindByID(old.ID)
	assert.Error(t, err)
	_, err = repo.FindByID(recent.ID)
	assert.NoError(t, err)
}

func TestReapIdleSessionsUsesTimeout(t *testing.T) {
	reaper := &fakeReaper{reaped: 3}
	jobs := NewJobService(nil, reaper, clock.Real(), time.Hour, 30*time.Minute)

	assert.Equal(t, 3, jobs.ReapIdleSessions())
	assert.Equal(t, 30*time.Minute, reaper.maxIdle)
}

func TestJobServiceStartStop(t *testing.T) {
	jobs := NewJobService(nil, &fakeReaper{}, clock.Real(), time.Hour, time.Minute)
	<-jobs.Stop().Done()

	require.NoError(t, jobs.Start())
	<-jobs.Stop().Done()
}
