package repository

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"bobbystable/internal/clock"
	"bobbystable/internal/db"
	"bobbystable/internal/entities"
	apperrors "bobbystable/internal/errors"
	"bobbystable/internal/slots"
	"bobbystable/internal/utils"
)

const maxIDAttempts = 1000

// Publisher receives one event per committed mutation, called inside the
// store's critical section. Implementations must not block.
type Publisher interface {
	Publish(evt entities.ChangeEvent)
}

// ReservationRepository is the in-memory table of reservations. One
// RWMutex guards the records and the occupancy index together, so a
// capacity check and the write it admits are a single atomic step.
type ReservationRepository struct {
	mu        sync.RWMutex
	byID      map[string]*db.Reservation
	occupancy map[string]int
	issued    map[string]struct{}

	schedule  *slots.Schedule
	publisher Publisher
	clock     clock.Clock
	newID     func() string
}

type Option func(*ReservationRepository)

// WithIDGenerator replaces the random confirmation number source.
func WithIDGenerator(gen func() string) Option {
	return func(r *ReservationRepository) { r.newID = gen }
}

func NewReservationRepository(schedule *slots.Schedule, publisher Publisher, clk clock.Clock, opts ...Option) *ReservationRepository {
	r := &ReservationRepository{
		byID:      make(map[string]*db.Reservation),
		occupancy: make(map[string]int),
		issued:    make(map[string]struct{}),
		schedule:  schedule,
		publisher: publisher,
		clock:     clk,
		newID:     randomConfirmationNumber,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func randomConfirmationNumber() string {
	return strconv.Itoa(100000 + rand.Intn(900000))
}

func slotKey(date, time string) string {
	return date + " " + time
}

func (r *ReservationRepository) Schedule() *slots.Schedule {
	return r.schedule
}

func (r *ReservationRepository) Create(req entities.ReservationRequest) (db.Reservation, error) {
	res, err := r.validateRequest(req)
	if err != nil {
		return db.Reservation{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := slotKey(res.Date, res.Time)
	if !r.schedule.CanAdmit(res.Time, r.occupancy[key]) {
		return db.Reservation{}, fmt.Errorf("%s at %s is full: %w", res.Date, res.Time, apperrors.ErrCapacityExceeded)
	}

	id, err := r.allocateIDLocked()
	if err != nil {
		return db.Reservation{}, err
	}
	now := r.clock.Now().UTC()
	res.ID = id
	res.Status = db.StatusConfirmed
	res.CreatedAt = now
	res.UpdatedAt = now

	stored := res
	r.byID[id] = &stored
	r.occupancy[key]++

	r.publishLocked(entities.ChangeEvent{Type: entities.EventCreated, OccurredAt: now, Reservation: copyOf(&stored)})
	return stored, nil
}

func (r *ReservationRepository) allocateIDLocked() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := r.newID()
		if _, taken := r.issued[id]; taken {
			continue
		}
		r.issued[id] = struct{}{}
		return id, nil
	}
	return "", fmt.Errorf("no free confirmation number after %d attempts: %w", maxIDAttempts, apperrors.ErrInternal)
}

func (r *ReservationRepository) FindByID(id string) (db.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return db.Reservation{}, fmt.Errorf("reservation %q: %w", id, apperrors.ErrNotFound)
	}
	return *res, nil
}

// FindByPhone matches confirmed reservations whose phone digits contain
// the digits of phone. Newest first.
func (r *ReservationRepository) FindByPhone(phone string) []db.Reservation {
	needle := utils.DigitsOnly(phone)
	if needle == "" {
		return nil
	}
	return r.findConfirmed(func(res *db.Reservation) bool {
		return strings.Contains(utils.DigitsOnly(res.Phone), needle)
	})
}

// FindByName matches confirmed reservations whose name contains name,
// ignoring case and surrounding whitespace. Newest first.
func (r *ReservationRepository) FindByName(name string) []db.Reservation {
	needle := strings.ToLower(strings.Join(strings.Fields(name), " "))
	if needle == "" {
		return nil
	}
	return r.findConfirmed(func(res *db.Reservation) bool {
		return strings.Contains(strings.ToLower(res.Name), needle)
	})
}

func (r *ReservationRepository) findConfirmed(match func(*db.Reservation) bool) []db.Reservation {
	r.mu.RLock()
	var out []db.Reservation
	for _, res := range r.byID {
		if res.IsConfirmed() && match(res) {
			out = append(out, *res)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Modify applies changes to a confirmed reservation. Moving to another
// slot is checked against that slot's count with the record itself
// excluded from its former slot. Nothing is written unless every change
// is valid.
func (r *ReservationRepository) Modify(id string, changes entities.ReservationChanges) (db.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[strings.TrimSpace(id)]
	if !ok || !current.IsConfirmed() {
		return db.Reservation{}, fmt.Errorf("reservation %q: %w", id, apperrors.ErrNotFound)
	}

	updated, err := r.applyChanges(*current, changes)
	if err != nil {
		return db.Reservation{}, err
	}

	oldKey := current.SlotKey()
	newKey := updated.SlotKey()
	moved := changes.MovesSlot() && newKey != oldKey
	if moved {
		if !r.schedule.CanAdmit(updated.Time, r.occupancy[newKey]) {
			return db.Reservation{}, fmt.Errorf("%s at %s is full: %w", updated.Date, updated.Time, apperrors.ErrCapacityExceeded)
		}
	}

	updated.UpdatedAt = r.clock.Now().UTC()
	*current = updated
	if moved {
		r.releaseLocked(oldKey)
		r.occupancy[newKey]++
	}

	r.publishLocked(entities.ChangeEvent{Type: entities.EventModified, OccurredAt: updated.UpdatedAt, Reservation: copyOf(current)})
	return updated, nil
}

// Cancel moves a confirmed reservation to cancelled and frees its slot.
// It returns the record as it stood before cancellation. A second cancel
// of the same id is NotFound.
func (r *ReservationRepository) Cancel(id string) (db.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[strings.TrimSpace(id)]
	if !ok || !current.IsConfirmed() {
		return db.Reservation{}, fmt.Errorf("reservation %q: %w", id, apperrors.ErrNotFound)
	}
	prior := *current

	now := r.clock.Now().UTC()
	current.Status = db.StatusCancelled
	current.UpdatedAt = now
	r.releaseLocked(prior.SlotKey())

	r.publishLocked(entities.ChangeEvent{
		Type:          entities.EventCancelled,
		OccurredAt:    now,
		ReservationID: prior.ID,
		Status:        db.StatusCancelled,
	})
	return prior, nil
}

// ListGroupedByDate returns confirmed reservations grouped by date. Dates
// ascend; within a date reservations are ordered by time, then creation.
func (r *ReservationRepository) ListGroupedByDate() []entities.DateGroup {
	r.mu.RLock()
	byDate := make(map[string][]db.Reservation)
	for _, res := range r.byID {
		if res.IsConfirmed() {
			byDate[res.Date] = append(byDate[res.Date], *res)
		}
	}
	r.mu.RUnlock()

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	groups := make([]entities.DateGroup, 0, len(dates))
	for _, date := range dates {
		list := byDate[date]
		sort.Slice(list, func(i, j int) bool {
			if list[i].Time != list[j].Time {
				return list[i].Time < list[j].Time
			}
			if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
				return list[i].CreatedAt.Before(list[j].CreatedAt)
			}
			return list[i].ID < list[j].ID
		})
		groups = append(groups, entities.DateGroup{Date: date, Reservations: list})
	}
	return groups
}

// Availability reports every slot of date with its capacity and the
// number of confirmed reservations holding it.
func (r *ReservationRepository) Availability(date string) ([]entities.SlotAvailability, error) {
	normalized, err := slots.CheckDate(date)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schedule.Availability(func(time string) int {
		return r.occupancy[slotKey(normalized, time)]
	}), nil
}

// CanAdmit is true iff time is a slot and it has room on date. Date and
// time are normalised the same way Create normalises them.
func (r *ReservationRepository) CanAdmit(date, time string, partySize int) bool {
	normalized, err := slots.NormalizeDate(date)
	if err != nil {
		return false
	}
	slot, err := r.schedule.NormalizeSlot(time)
	if err != nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schedule.CanAdmit(slot, r.occupancy[slotKey(normalized, slot)])
}

// PurgeCancelledBefore forgets cancelled reservations last touched before
// cutoff. Their ids stay reserved.
func (r *ReservationRepository) PurgeCancelledBefore(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	purged := 0
	for id, res := range r.byID {
		if res.Status == db.StatusCancelled && res.UpdatedAt.Before(cutoff) {
			delete(r.byID, id)
			purged++
		}
	}
	return purged
}

func (r *ReservationRepository) Count() (confirmed, cancelled int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, res := range r.byID {
		if res.IsConfirmed() {
			confirmed++
		} else {
			cancelled++
		}
	}
	return confirmed, cancelled
}

func (r *ReservationRepository) releaseLocked(key string) {
	if r.occupancy[key] <= 1 {
		delete(r.occupancy, key)
		return
	}
	r.occupancy[key]--
}

func (r *ReservationRepository) publishLocked(evt entities.ChangeEvent) {
	if r.publisher != nil {
		r.publisher.Publish(evt)
	}
}

func (r *ReservationRepository) validateRequest(req entities.ReservationRequest) (db.Reservation, error) {
	var (
		res db.Reservation
		err error
	)
	if res.Name, err = utils.NormalizeName(req.Name); err != nil {
		return db.Reservation{}, err
	}
	if err = r.schedule.CheckPartySize(req.PartySize); err != nil {
		return db.Reservation{}, err
	}
	res.PartySize = req.PartySize
	if res.Date, err = slots.CheckDate(req.Date); err != nil {
		return db.Reservation{}, err
	}
	if res.Time, err = r.schedule.NormalizeSlot(req.Time); err != nil {
		return db.Reservation{}, err
	}
	if res.Phone, err = utils.NormalizePhone(req.Phone); err != nil {
		return db.Reservation{}, err
	}
	if res.SpecialRequests, err = utils.NormalizeRequests(req.SpecialRequests); err != nil {
		return db.Reservation{}, err
	}
	return res, nil
}

func (r *ReservationRepository) applyChanges(res db.Reservation, changes entities.ReservationChanges) (db.Reservation, error) {
	var err error
	if changes.Name != nil {
		if res.Name, err = utils.NormalizeName(*changes.Name); err != nil {
			return db.Reservation{}, err
		}
	}
	if changes.PartySize != nil {
		if err = r.schedule.CheckPartySize(*changes.PartySize); err != nil {
			return db.Reservation{}, err
		}
		res.PartySize = *changes.PartySize
	}
	if changes.Date != nil {
		if res.Date, err = slots.CheckDate(*changes.Date); err != nil {
			return db.Reservation{}, err
		}
	}
	if changes.Time != nil {
		if res.Time, err = r.schedule.NormalizeSlot(*changes.Time); err != nil {
			return db.Reservation{}, err
		}
	}
	if changes.Phone != nil {
		if res.Phone, err = utils.NormalizePhone(*changes.Phone); err != nil {
			return db.Reservation{}, err
		}
	}
	if changes.SpecialRequests != nil {
		if res.SpecialRequests, err = utils.NormalizeRequests(*changes.SpecialRequests); err != nil {
			return db.Reservation{}, err
		}
	}
	return res, nil
}

func copyOf(res *db.Reservation) *db.Reservation {
	c := *res
	return &c
}
