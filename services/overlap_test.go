package services

import (
	"testing"
	"time"

	"spots-clone-server/models"
)

func d(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestIntervalsOverlap(t *testing.T) {
	cases := []struct {
		name           string
		s1, e1, s2, e2 string
		want           bool
	}{
		{"disjoint before", "2025-06-01", "2025-06-05", "2025-06-10", "2025-06-15", false},
		{"disjoint after", "2025-06-10", "2025-06-15", "2025-06-01", "2025-06-05", false},
		{"identical", "2025-06-10", "2025-06-15", "2025-06-10", "2025-06-15", true},
		{"partial overlap", "2025-06-10", "2025-06-15", "2025-06-13", "2025-06-20", true},
		{"containment", "2025-06-10", "2025-06-20", "2025-06-12", "2025-06-14", true},
		{"touching end to start", "2025-06-10", "2025-06-15", "2025-06-15", "2025-06-20", true},
		{"touching start to end", "2025-06-15", "2025-06-20", "2025-06-10", "2025-06-15", true},
		{"adjacent with gap of one day", "2025-06-10", "2025-06-15", "2025-06-16", "2025-06-20", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := IntervalsOverlap(d(tc.s1), d(tc.e1), d(tc.s2), d(tc.e2))
			if got != tc.want {
				t.Errorf("IntervalsOverlap(%s..%s, %s..%s) = %v, want %v",
					tc.s1, tc.e1, tc.s2, tc.e2, got, tc.want)
			}
		})
	}
}

func TestIntervalsOverlapIgnoresTimeOfDay(t *testing.T) {
	s1 := time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)
	e2 := time.Date(2025, 6, 15, 0, 1, 0, 0, time.UTC)
	if !IntervalsOverlap(s1, d("2025-06-20"), d("2025-06-10"), e2) {
		t.Error("expected overlap on the shared calendar date regardless of time of day")
	}
}

func TestFindConflict(t *testing.T) {
	existing := []models.Booking{
		{SpotID: 1, StartDate: d("2025-06-10"), EndDate: d("2025-06-15")},
		{SpotID: 1, StartDate: d("2025-07-01"), EndDate: d("2025-07-05")},
	}
	existing[0].ID = 11
	existing[1].ID = 12

	if _, conflict := FindConflict(d("2025-06-16"), d("2025-06-20"), existing, 0); conflict {
		t.Error("free range reported as conflicting")
	}

	hit, conflict := FindConflict(d("2025-06-15"), d("2025-06-20"), existing, 0)
	if !conflict {
		t.Fatal("touching endpoint should conflict")
	}
	if hit.ID != 11 {
		t.Errorf("conflicting booking = %d, want 11", hit.ID)
	}

	// Excluding the conflicting booking's own ID frees the range, which is
	// what an update check relies on.
	if _, conflict := FindConflict(d("2025-06-12"), d("2025-06-14"), existing, 11); conflict {
		t.Error("range should be free when its own booking is excluded")
	}
	if _, conflict := FindConflict(d("2025-06-30"), d("2025-07-02"), existing, 11); !conflict {
		t.Error("excluding one booking must not hide conflicts with others")
	}
}
