package schedule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"orchestra/internal/domain/calendar"
)

// Availability is the resolved representation of a schedule: either the
// legacy weekday list or the date-based set. Exactly one applies per record.
type Availability interface {
	Includes(date time.Time) bool
	isAvailability()
}

// Legacy is the weekday-based representation that predates per-date selection.
type Legacy struct {
	Days []time.Weekday
}

// DateBased is the canonical per-date representation.
type DateBased struct {
	Dates map[string]bool
}

func (Legacy) isAvailability()    {}
func (DateBased) isAvailability() {}

// Includes reports whether date falls on one of the legacy weekdays.
func (l Legacy) Includes(date time.Time) bool {
	for _, d := range l.Days {
		if date.Weekday() == d {
			return true
		}
	}
	return false
}

// Includes reports whether the ISO form of date is in the set.
func (d DateBased) Includes(date time.Time) bool {
	return d.Dates[calendar.FormatISODate(date)]
}

// Resolve picks the representation that governs s.
// Date data wins whenever AvailableDates is non-empty.
func Resolve(s Schedule) Availability {
	if len(s.AvailableDates) > 0 {
		set := make(map[string]bool, len(s.AvailableDates))
		for _, d := range s.AvailableDates {
			set[d] = true
		}
		return DateBased{Dates: set}
	}
	days := make([]time.Weekday, 0, len(s.AvailableDays))
	for _, label := range s.AvailableDays {
		if wd, ok := calendar.WeekdayFromLabel(label); ok {
			days = append(days, wd)
		}
	}
	return Legacy{Days: days}
}

// IsAvailable is the single answer to "is this member free on date".
func IsAvailable(s Schedule, date time.Time) bool {
	return Resolve(s).Includes(date)
}

var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// ExpandDates lists the ISO dates in [from, to] on which s is available.
// Legacy weekday schedules are expanded with a weekly recurrence rule.
// PRE: from <= to
// POST: result is sorted ascending
func ExpandDates(s Schedule, from, to time.Time) ([]string, error) {
	from, to = calendar.Civil(from), calendar.Civil(to)
	switch a := Resolve(s).(type) {
	case DateBased:
		var out []string
		for _, d := range s.Canonical().AvailableDates {
			t, err := calendar.ParseISODate(d)
			if err != nil {
				continue
			}
			if !t.Before(from) && !t.After(to) && a.Dates[d] {
				out = append(out, d)
			}
		}
		return out, nil
	case Legacy:
		if len(a.Days) == 0 {
			return nil, nil
		}
		byDay := make([]rrule.Weekday, 0, len(a.Days))
		for _, d := range a.Days {
			byDay = append(byDay, rruleWeekdays[d])
		}
		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Dtstart:   from,
			Byweekday: byDay,
		})
		if err != nil {
			return nil, fmt.Errorf("legacy recurrence for %s: %w", s.MemberID, err)
		}
		occurrences := rule.Between(from, to, true)
		out := make([]string, 0, len(occurrences))
		for _, t := range occurrences {
			out = append(out, calendar.FormatISODate(t))
		}
		return out, nil
	}
	return nil, nil
}
