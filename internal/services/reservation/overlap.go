package reservation

import (
	"time"

	"hoaban-restaurant/internal/models"
)

// Overlaps reports whether two half-open time windows [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back bookings where one window ends
// exactly when the other starts do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// SufficientSeats reports whether the combined seats of the assigned
// tables can hold the party.
func SufficientSeats(tables []models.Table, partySize int) bool {
	seats := 0
	for _, t := range tables {
		seats += t.Seats
	}
	return seats >= partySize
}
