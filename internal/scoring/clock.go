package scoring

import "time"

// BusinessClock converts wall-clock intervals into counted office hours.
// The zero value counts nothing; use NewBusinessClock or fill every field.
type BusinessClock struct {
	// OfficeStartHour and OfficeEndHour bound the counted window [start, end)
	// in local hours of the configured location.
	OfficeStartHour int
	OfficeEndHour   int
	// MaxHoursPerDay caps the contribution of any single calendar day.
	MaxHoursPerDay float64
	Location       *time.Location
	WorkingDays    map[time.Weekday]bool
}

// DefaultWorkingDays returns the Monday-Friday working week.
func DefaultWorkingDays() map[time.Weekday]bool {
	return map[time.Weekday]bool{
		time.Monday:    true,
		time.Tuesday:   true,
		time.Wednesday: true,
		time.Thursday:  true,
		time.Friday:    true,
	}
}

// NewBusinessClock builds a clock with the given office window in the given
// location. A nil location falls back to UTC.
func NewBusinessClock(startHour, endHour int, maxPerDay float64, loc *time.Location, workingDays map[time.Weekday]bool) BusinessClock {
	if loc == nil {
		loc = time.UTC
	}
	if workingDays == nil {
		workingDays = DefaultWorkingDays()
	}
	return BusinessClock{
		OfficeStartHour: startHour,
		OfficeEndHour:   endHour,
		MaxHoursPerDay:  maxPerDay,
		Location:        loc,
		WorkingDays:     workingDays,
	}
}

// WindowHours is the length of the configured office window in hours.
func (c BusinessClock) WindowHours() float64 {
	return float64(c.OfficeEndHour - c.OfficeStartHour)
}

func (c BusinessClock) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// CountedHours returns the office hours contained in [start, end).
// The interval is split into calendar days in the clock's location; each
// working day contributes its intersection with the office window, capped at
// MaxHoursPerDay. Inverted or empty intervals count zero.
func (c BusinessClock) CountedHours(start, end time.Time) float64 {
	if !end.After(start) {
		return 0
	}

	loc := c.location()
	localStart := start.In(loc)
	localEnd := end.In(loc)

	total := 0.0
	day := midnight(localStart)
	lastDay := midnight(localEnd)

	for !day.After(lastDay) {
		if c.WorkingDays[day.Weekday()] {
			officeStart := time.Date(day.Year(), day.Month(), day.Day(), c.OfficeStartHour, 0, 0, 0, loc)
			officeEnd := time.Date(day.Year(), day.Month(), day.Day(), c.OfficeEndHour, 0, 0, 0, loc)

			segStart := maxTime(localStart, officeStart)
			segEnd := minTime(localEnd, officeEnd)

			if segEnd.After(segStart) {
				hours := segEnd.Sub(segStart).Hours()
				if c.MaxHoursPerDay > 0 && hours > c.MaxHoursPerDay {
					hours = c.MaxHoursPerDay
				}
				total += hours
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	return total
}

// BusinessDaysBetween returns the signed working-day distance from b to a:
// positive when a falls after b, negative when a falls before b, zero when
// both fall on the same calendar day. Non-working days are skipped.
func (c BusinessClock) BusinessDaysBetween(a, b time.Time) int {
	loc := c.location()
	da := midnight(a.In(loc))
	db := midnight(b.In(loc))

	if da.Equal(db) {
		return 0
	}

	sign := 1
	from, to := db, da
	if da.Before(db) {
		sign = -1
		from, to = da, db
	}

	days := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		if c.WorkingDays[d.Weekday()] {
			days++
		}
	}
	return sign * days
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
