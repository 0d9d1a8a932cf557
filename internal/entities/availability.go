package entities

type SlotAvailability struct {
	Time         string `json:"time"`
	CapacityMax  int    `json:"capacity_max"`
	CapacityUsed int    `json:"capacity_used"`
}

func (s SlotAvailability) Remaining() int {
	if s.CapacityUsed >= s.CapacityMax {
		return 0
	}
	return s.CapacityMax - s.CapacityUsed
}

func (s SlotAvailability) IsAvailable() bool {
	return s.CapacityUsed < s.CapacityMax
}

type AvailabilityResponse struct {
	Date  string             `json:"date"`
	Slots []SlotAvailability `json:"slots"`
}

// OpenTimes returns the times that still have room, in slot order.
func (a AvailabilityResponse) OpenTimes() []string {
	var times []string
	for _, slot := range a.Slots {
		if slot.IsAvailable() {
			times = append(times, slot.Time)
		}
	}
	return times
}

func (a AvailabilityResponse) Slot(time string) (SlotAvailability, bool) {
	for _, slot := range a.Slots {
		if slot.Time == time {
			return slot, true
		}
	}
	return SlotAvailability{}, false
}
