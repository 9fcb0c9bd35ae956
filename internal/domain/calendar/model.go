package calendar

import (
	"errors"
	"fmt"
	"time"

	"orchestra/internal/domain/holiday"
)

// DateLayout is the ISO civil date format used for every persisted date.
const DateLayout = "2006-01-02"

// GridSize is the number of cells in a month grid (6 weeks x 7 days).
const GridSize = 42

// Domain errors
var (
	ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")
)

// weekdayLabels are the Korean single-character weekday names, Sunday first.
var weekdayLabels = [7]string{"일", "월", "화", "수", "목", "금", "토"}

// WeekdayLabel returns the short Korean label for a weekday.
func WeekdayLabel(d time.Weekday) string {
	return weekdayLabels[d]
}

// WeekdayFromLabel resolves a Korean weekday label back to a time.Weekday.
func WeekdayFromLabel(label string) (time.Weekday, bool) {
	for i, l := range weekdayLabels {
		if l == label {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// Civil truncates t to its calendar date at UTC midnight, keeping t's own year/month/day.
func Civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatISODate formats t as YYYY-MM-DD.
func FormatISODate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseISODate parses a YYYY-MM-DD string into a civil date.
// PRE: none
// POST: returns ErrInvalidDate for anything that is not a real calendar date
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// IsHoliday reports whether t falls on one of the fixed public holidays.
func IsHoliday(t time.Time) bool {
	_, ok := holiday.Lookup(t)
	return ok
}

// HolidayName returns the holiday name for t, or "" when t is not a holiday.
func HolidayName(t time.Time) string {
	h, ok := holiday.Lookup(t)
	if !ok {
		return ""
	}
	return h.Name
}

// WeekOf returns the Monday-first week containing t as seven civil dates.
// PRE: none
// POST: result[0] is a Monday and result[6] is the following Sunday
func WeekOf(t time.Time) [7]time.Time {
	d := Civil(t)
	offset := (int(d.Weekday()) + 6) % 7
	monday := d.AddDate(0, 0, -offset)
	var week [7]time.Time
	for i := range week {
		week[i] = monday.AddDate(0, 0, i)
	}
	return week
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	return WeekOf(t)[0]
}
