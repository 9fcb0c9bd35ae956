package holiday

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyName    = errors.New("holiday name cannot be empty")
	ErrInvalidMonth = errors.New("holiday month must be between 1 and 12")
	ErrInvalidDay   = errors.New("holiday day is not valid for its month")
)

// Holiday is a public holiday that falls on the same month/day every year.
// Lunar-calendar holidays and substitute days are not represented.
type Holiday struct {
	Name  string
	Month time.Month
	Day   int
}

// Validate checks if the Holiday has valid data.
// PRE: Holiday struct is populated
// POST: Returns nil if valid, error otherwise
func (h *Holiday) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return ErrEmptyName
	}
	if h.Month < time.January || h.Month > time.December {
		return ErrInvalidMonth
	}
	// 2024 is a leap year so Feb 29 stays representable.
	if h.Day < 1 || time.Date(2024, h.Month, h.Day, 0, 0, 0, 0, time.UTC).Month() != h.Month {
		return ErrInvalidDay
	}
	return nil
}

// Matches returns true if the given date falls on this holiday.
// INVARIANT: Holiday fields are not mutated
func (h *Holiday) Matches(date time.Time) bool {
	return date.Month() == h.Month && date.Day() == h.Day
}

// Fixed is the static set of solar public holidays shown on the rehearsal calendar.
var Fixed = []Holiday{
	{Name: "New Year's Day", Month: time.January, Day: 1},
	{Name: "Independence Movement Day", Month: time.March, Day: 1},
	{Name: "Children's Day", Month: time.May, Day: 5},
	{Name: "Memorial Day", Month: time.June, Day: 6},
	{Name: "Liberation Day", Month: time.August, Day: 15},
	{Name: "National Foundation Day", Month: time.October, Day: 3},
	{Name: "Hangul Day", Month: time.October, Day: 9},
	{Name: "Christmas", Month: time.December, Day: 25},
}

// Lookup returns the fixed holiday on the given date, if any.
// PRE: none
// POST: ok is true and h is the matching holiday when date is a holiday
func Lookup(date time.Time) (h Holiday, ok bool) {
	for _, candidate := range Fixed {
		if candidate.Matches(date) {
			return candidate, true
		}
	}
	return Holiday{}, false
}
