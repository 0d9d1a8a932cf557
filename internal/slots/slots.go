package slots

import (
	"fmt"
	"strings"

	"bobbystable/internal/entities"
	apperrors "bobbystable/internal/errors"
)

const (
	DefaultCapacity     = 5
	DefaultMaxPartySize = 20
	MinPartySize        = 1
)

var DefaultTimes = []string{"17:00", "18:00", "19:00", "20:00", "21:00"}

type Slot struct {
	Time     string `yaml:"time" json:"time"`
	Capacity int    `yaml:"capacity" json:"capacity"`
}

// Schedule is the fixed daily set of bookable slots and the party-size
// bound. It is built once at start-up and never changes afterwards.
type Schedule struct {
	slots        []Slot
	index        map[string]int
	maxPartySize int
}

func NewSchedule(slots []Slot, maxPartySize int) (*Schedule, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("schedule needs at least one slot")
	}
	if maxPartySize < MinPartySize {
		return nil, fmt.Errorf("max party size must be at least %d, got %d", MinPartySize, maxPartySize)
	}
	s := &Schedule{
		slots:        make([]Slot, 0, len(slots)),
		index:        make(map[string]int, len(slots)),
		maxPartySize: maxPartySize,
	}
	for _, slot := range slots {
		t, err := ParseTime(slot.Time)
		if err != nil {
			return nil, fmt.Errorf("slot %q: %w", slot.Time, err)
		}
		if slot.Capacity < 1 {
			return nil, fmt.Errorf("slot %s: capacity must be positive, got %d", t, slot.Capacity)
		}
		if _, dup := s.index[t]; dup {
			return nil, fmt.Errorf("slot %s listed twice", t)
		}
		s.index[t] = len(s.slots)
		s.slots = append(s.slots, Slot{Time: t, Capacity: slot.Capacity})
	}
	return s, nil
}

// UniformSlots gives every time the same capacity.
func UniformSlots(times []string, capacity int) []Slot {
	out := make([]Slot, 0, len(times))
	for _, t := range times {
		out = append(out, Slot{Time: t, Capacity: capacity})
	}
	return out
}

// Default is five one-hour evening slots, five reservations each, parties
// of one to twenty.
func Default() *Schedule {
	s, err := NewSchedule(UniformSlots(DefaultTimes, DefaultCapacity), DefaultMaxPartySize)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schedule) Slots() []Slot {
	return append([]Slot(nil), s.slots...)
}

func (s *Schedule) Times() []string {
	times := make([]string, len(s.slots))
	for i, slot := range s.slots {
		times[i] = slot.Time
	}
	return times
}

func (s *Schedule) IsSlot(time string) bool {
	_, ok := s.index[time]
	return ok
}

func (s *Schedule) Capacity(time string) (int, bool) {
	i, ok := s.index[time]
	if !ok {
		return 0, false
	}
	return s.slots[i].Capacity, true
}

func (s *Schedule) MaxPartySize() int {
	return s.maxPartySize
}

func (s *Schedule) ValidPartySize(n int) bool {
	return n >= MinPartySize && n <= s.maxPartySize
}

// CanAdmit reports whether one more reservation fits at time given used
// confirmed reservations already there. Capacity counts reservations, not
// covers, so party size plays no part.
func (s *Schedule) CanAdmit(time string, used int) bool {
	capacity, ok := s.Capacity(time)
	return ok && used < capacity
}

// Availability lists every slot in order with its capacity and the count
// reported by used.
func (s *Schedule) Availability(used func(time string) int) []entities.SlotAvailability {
	out := make([]entities.SlotAvailability, len(s.slots))
	for i, slot := range s.slots {
		out[i] = entities.SlotAvailability{
			Time:         slot.Time,
			CapacityMax:  slot.Capacity,
			CapacityUsed: used(slot.Time),
		}
	}
	return out
}

func (s *Schedule) String() string {
	return strings.Join(s.Times(), ", ")
}

// CheckPartySize returns a spoken InvalidInput error for sizes outside the
// configured bounds.
func (s *Schedule) CheckPartySize(n int) error {
	if n > s.maxPartySize {
		return apperrors.InvalidInput("I'm sorry, we can only accommodate parties up to %d. For larger groups, please call us directly.", s.maxPartySize)
	}
	if n < MinPartySize {
		return apperrors.InvalidInput("A party needs at least %d guest. How many guests will be joining us?", MinPartySize)
	}
	return nil
}

// NormalizeSlot parses t and checks it is one of the configured times.
func (s *Schedule) NormalizeSlot(t string) (string, error) {
	normalized, err := ParseTime(t)
	if err != nil || !s.IsSlot(normalized) {
		return "", apperrors.InvalidInput("I'm sorry, that's not a valid time slot. We have openings at: %s.", s)
	}
	return normalized, nil
}
