package scoring

import (
	"math"
	"testing"
	"time"
)

func testClock() BusinessClock {
	return NewBusinessClock(9, 17, 8, time.UTC, nil)
}

// Monday 2024-01-08 in UTC.
func monday(hour, min int) time.Time {
	return time.Date(2024, 1, 8, hour, min, 0, 0, time.UTC)
}

func TestCountedHoursWithinOfficeWindow(t *testing.T) {
	clock := testClock()

	hours := clock.CountedHours(monday(10, 0), monday(14, 0))
	if hours != 4.0 {
		t.Errorf("Expected 4.0 counted hours, got %f", hours)
	}
}

func TestCountedHoursClampsToOfficeWindow(t *testing.T) {
	clock := testClock()

	// 6:00 to 20:00 only overlaps the window 9-17.
	hours := clock.CountedHours(monday(6, 0), monday(20, 0))
	if hours != 8.0 {
		t.Errorf("Expected 8.0 counted hours, got %f", hours)
	}
}

func TestCountedHoursZeroCases(t *testing.T) {
	clock := testClock()

	cases := []struct {
		name       string
		start, end time.Time
	}{
		{"empty interval", monday(10, 0), monday(10, 0)},
		{"inverted interval", monday(14, 0), monday(10, 0)},
		{"before office start", monday(6, 0), monday(8, 30)},
		{"after office end", monday(18, 0), monday(22, 0)},
		{
			"weekend only",
			time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC),  // Saturday
			time.Date(2024, 1, 7, 17, 0, 0, 0, time.UTC), // Sunday
		},
	}

	for _, tc := range cases {
		if hours := clock.CountedHours(tc.start, tc.end); hours != 0 {
			t.Errorf("%s: expected 0 counted hours, got %f", tc.name, hours)
		}
	}
}

func TestCountedHoursSkipsWeekendInSpan(t *testing.T) {
	clock := testClock()

	// Friday 2024-01-05 13:00 to Monday 2024-01-08 11:00:
	// Friday 13-17 = 4h, weekend = 0, Monday 9-11 = 2h.
	start := time.Date(2024, 1, 5, 13, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 8, 11, 0, 0, 0, time.UTC)

	if hours := clock.CountedHours(start, end); hours != 6.0 {
		t.Errorf("Expected 6.0 counted hours across the weekend, got %f", hours)
	}
}

func TestCountedHoursMultiDaySpan(t *testing.T) {
	clock := testClock()

	// Monday 9:00 through Friday 17:00 of the same week: 5 full days.
	start := monday(9, 0)
	end := time.Date(2024, 1, 12, 17, 0, 0, 0, time.UTC)

	if hours := clock.CountedHours(start, end); hours != 40.0 {
		t.Errorf("Expected 40.0 counted hours over a full week, got %f", hours)
	}
}

func TestCountedHoursAdditivityOverPartition(t *testing.T) {
	clock := testClock()

	start := time.Date(2024, 1, 4, 11, 30, 0, 0, time.UTC) // Thursday
	end := time.Date(2024, 1, 10, 15, 45, 0, 0, time.UTC)  // Wednesday next week

	whole := clock.CountedHours(start, end)

	// Partition at arbitrary cut points, including mid-office and weekend cuts.
	cuts := []time.Time{
		time.Date(2024, 1, 4, 16, 15, 0, 0, time.UTC),
		time.Date(2024, 1, 6, 3, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 9, 1, 0, 0, time.UTC),
		time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC),
	}

	sum := 0.0
	prev := start
	for _, cut := range cuts {
		sum += clock.CountedHours(prev, cut)
		prev = cut
	}
	sum += clock.CountedHours(prev, end)

	if math.Abs(whole-sum) > 1e-9 {
		t.Errorf("Partition sum %f does not equal whole interval %f", sum, whole)
	}
}

func TestCountedHoursDailyCap(t *testing.T) {
	// Office window 8-18 (10h) with a 8h cap: a full day counts 8.
	clock := NewBusinessClock(8, 18, 8, time.UTC, nil)

	hours := clock.CountedHours(monday(0, 0), monday(23, 59))
	if hours != 8.0 {
		t.Errorf("Expected daily cap of 8.0 hours, got %f", hours)
	}
}

func TestBusinessDaysBetween(t *testing.T) {
	clock := testClock()

	mon := monday(12, 0)
	cases := []struct {
		name     string
		a, b     time.Time
		expected int
	}{
		{"same day", mon, monday(16, 0), 0},
		{"one working day late", mon.AddDate(0, 0, 1), mon, 1},
		{"one working day early", mon, mon.AddDate(0, 0, 1), -1},
		{"across weekend", mon.AddDate(0, 0, 7), mon, 5},
		{"saturday after friday target", time.Date(2024, 1, 13, 10, 0, 0, 0, time.UTC), time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC), 0},
	}

	for _, tc := range cases {
		if got := clock.BusinessDaysBetween(tc.a, tc.b); got != tc.expected {
			t.Errorf("%s: expected %d business days, got %d", tc.name, tc.expected, got)
		}
	}
}

func TestCountedHoursTimezoneConversion(t *testing.T) {
	// Office hours evaluated in UTC-6: 15:00-23:00 UTC is 9:00-17:00 local.
	loc := time.FixedZone("UTC-6", -6*3600)
	clock := NewBusinessClock(9, 17, 8, loc, nil)

	start := time.Date(2024, 1, 8, 15, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 8, 19, 0, 0, 0, time.UTC)

	if hours := clock.CountedHours(start, end); hours != 4.0 {
		t.Errorf("Expected 4.0 counted hours in local office window, got %f", hours)
	}
}
