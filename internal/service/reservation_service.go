package service

import (
	"fmt"
	"strings"

	"bobbystable/internal/db"
	"bobbystable/internal/entities"
	"bobbystable/internal/repository"
	"bobbystable/internal/slots"
	"bobbystable/internal/utils"
)

// ReservationService is the read-only view over the store used by the
// dashboard and by conversations. Every call reads the live table.
type ReservationService struct {
	Repo *repository.ReservationRepository
}

func NewReservationService(repo *repository.ReservationRepository) *ReservationService {
	return &ReservationService{Repo: repo}
}

func (s *ReservationService) Schedule() *slots.Schedule {
	return s.Repo.Schedule()
}

func (s *ReservationService) ListReservations() entities.ReservationsList {
	return entities.NewReservationsList(s.Repo.ListGroupedByDate())
}

func (s *ReservationService) Availability(date string) (entities.AvailabilityResponse, error) {
	normalized, err := slots.CheckDate(date)
	if err != nil {
		return entities.AvailabilityResponse{}, err
	}
	slotList, err := s.Repo.Availability(normalized)
	if err != nil {
		return entities.AvailabilityResponse{}, err
	}
	return entities.AvailabilityResponse{Date: normalized, Slots: slotList}, nil
}

func (s *ReservationService) FindByPhone(phone string) []db.Reservation {
	return s.Repo.FindByPhone(phone)
}

func (s *ReservationService) FindByName(name string) []db.Reservation {
	return s.Repo.FindByName(name)
}

func (s *ReservationService) FindByID(id string) (db.Reservation, error) {
	return s.Repo.FindByID(id)
}

// CheckAvailability answers "is there room" for a date and, optionally,
// one time, as a sentence the host can read out.
func (s *ReservationService) CheckAvailability(date, time string) (string, entities.AvailabilityResponse, error) {
	avail, err := s.Availability(date)
	if err != nil {
		return "", entities.AvailabilityResponse{}, err
	}

	if strings.TrimSpace(time) != "" {
		normalized, err := s.Repo.Schedule().NormalizeSlot(time)
		if err != nil {
			return "", avail, err
		}
		slot, _ := avail.Slot(normalized)
		if slot.IsAvailable() {
			return fmt.Sprintf("Yes, %s on %s is available with %d %s remaining.",
				normalized, avail.Date, slot.Remaining(), plural(slot.Remaining(), "spot", "spots")), avail, nil
		}
		return fmt.Sprintf("I'm sorry, %s on %s is fully booked.", normalized, avail.Date), avail, nil
	}

	var open []string
	for _, slot := range avail.Slots {
		if slot.IsAvailable() {
			open = append(open, fmt.Sprintf("%s (%d %s)", slot.Time, slot.Remaining(), plural(slot.Remaining(), "spot", "spots")))
		}
	}
	if len(open) == 0 {
		return fmt.Sprintf("I'm sorry, we're fully booked on %s.", avail.Date), avail, nil
	}
	return fmt.Sprintf("On %s, we have availability at: %s.", avail.Date, utils.JoinList(open)), avail, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
