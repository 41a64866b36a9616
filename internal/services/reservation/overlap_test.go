package reservation

import (
	"testing"
	"time"

	"hoaban-restaurant/internal/models"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd time.Time
		want                           bool
	}{
		{
			name:   "identical windows overlap",
			aStart: at(0, 0), aEnd: at(2, 0),
			bStart: at(0, 0), bEnd: at(2, 0),
			want: true,
		},
		{
			name:   "partial overlap",
			aStart: at(0, 0), aEnd: at(2, 0),
			bStart: at(1, 0), bEnd: at(3, 0),
			want: true,
		},
		{
			name:   "containment overlaps",
			aStart: at(0, 0), aEnd: at(3, 0),
			bStart: at(1, 0), bEnd: at(2, 0),
			want: true,
		},
		{
			name:   "back-to-back bookings do not overlap",
			aStart: at(0, 0), aEnd: at(2, 0),
			bStart: at(2, 0), bEnd: at(4, 0),
			want: false,
		},
		{
			name:   "back-to-back in the other direction",
			aStart: at(2, 0), aEnd: at(4, 0),
			bStart: at(0, 0), bEnd: at(2, 0),
			want: false,
		},
		{
			name:   "disjoint windows",
			aStart: at(0, 0), aEnd: at(1, 0),
			bStart: at(3, 0), bEnd: at(4, 0),
			want: false,
		},
		{
			name:   "one minute of overlap counts",
			aStart: at(0, 0), aEnd: at(2, 1),
			bStart: at(2, 0), bEnd: at(4, 0),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			// overlap is symmetric
			if got := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd); got != tt.want {
				t.Errorf("Overlaps() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSufficientSeats(t *testing.T) {
	tables := func(seats ...int) []models.Table {
		out := make([]models.Table, len(seats))
		for i, s := range seats {
			out[i].Seats = s
		}
		return out
	}

	tests := []struct {
		name      string
		tables    []models.Table
		partySize int
		want      bool
	}{
		{"single table fits exactly", tables(4), 4, true},
		{"single table too small", tables(4), 5, false},
		{"combined tables fit", tables(4, 2), 6, true},
		{"combined tables still short", tables(2, 2), 5, false},
		{"no tables never fit", nil, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SufficientSeats(tt.tables, tt.partySize); got != tt.want {
				t.Errorf("SufficientSeats() = %v, want %v", got, tt.want)
			}
		})
	}
}
