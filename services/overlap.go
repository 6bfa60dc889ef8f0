package services

import (
	"time"

	"spots-clone-server/models"
)

// IntervalsOverlap reports whether the closed date ranges [s1,e1] and
// [s2,e2] share at least one calendar date. Bounds are inclusive, so a
// range ending on the day another begins counts as an overlap.
func IntervalsOverlap(s1, e1, s2, e2 time.Time) bool {
	s1, e1 = models.DateOnly(s1), models.DateOnly(e1)
	s2, e2 = models.DateOnly(s2), models.DateOnly(e2)
	return !s1.After(e2) && !s2.After(e1)
}

// FindConflict scans the existing bookings of a single spot for one whose
// range overlaps [start,end]. excludeID skips the booking being updated;
// pass 0 for create checks. The scan is linear and has no side effects.
func FindConflict(start, end time.Time, existing []models.Booking, excludeID uint) (*models.Booking, bool) {
	for i := range existing {
		b := &existing[i]
		if b.ID == excludeID {
			continue
		}
		if IntervalsOverlap(start, end, b.StartDate, b.EndDate) {
			return b, true
		}
	}
	return nil, false
}
