package scheduling

import (
	"time"
)

// Clinic hours: slots run 09:00 inclusive to 17:00 exclusive in 30-minute
// increments, giving 16 bookable positions per day.
const (
	clinicOpenHour  = 9
	clinicCloseHour = 17
)

const slotInterval = 30 * time.Minute

// SlotsPerDay is the number of bookable positions in one clinic day.
const SlotsPerDay = (clinicCloseHour - clinicOpenHour) * 2

// daySlots returns every candidate instant for the calendar day of date in
// ascending chronological order. The time-of-day component of date is ignored.
func daySlots(date time.Time) []time.Time {
	slots := make([]time.Time, 0, SlotsPerDay)
	start := time.Date(date.Year(), date.Month(), date.Day(), clinicOpenHour, 0, 0, 0, date.Location())
	for i := 0; i < SlotsPerDay; i++ {
		slots = append(slots, start.Add(time.Duration(i)*slotInterval))
	}
	return slots
}

// nextFreeSlot scans candidate slots in chronological order and returns the
// first one not present in booked. ok is false when every slot is taken,
// which is a normal outcome, not an error.
func nextFreeSlot(date time.Time, booked []time.Time) (slot time.Time, ok bool) {
	taken := make(map[int64]struct{}, len(booked))
	for _, b := range booked {
		taken[b.Unix()] = struct{}{}
	}
	for _, candidate := range daySlots(date) {
		if _, occupied := taken[candidate.Unix()]; !occupied {
			return candidate, true
		}
	}
	return time.Time{}, false
}
