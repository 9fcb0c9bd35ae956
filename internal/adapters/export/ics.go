// Package export renders stored data into files members and admins download.
package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"orchestra/internal/domain/calendar"
	"orchestra/internal/domain/schedule"
)

// ProductID identifies the generating application in exported calendars.
const ProductID = "-//orchestra//availability//KO"

// ScheduleCalendar renders one all-day event per available date of s within
// [from, to]. Memos become event descriptions. Legacy weekday schedules are
// expanded into concrete dates.
// PRE: from <= to
// POST: event UIDs are stable for the same member and date
func ScheduleCalendar(s schedule.Schedule, from, to, now time.Time) (string, error) {
	dates, err := schedule.ExpandDates(s, from, to)
	if err != nil {
		return "", err
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetName(fmt.Sprintf("%s availability", label(s)))

	for _, iso := range dates {
		day, err := calendar.ParseISODate(iso)
		if err != nil {
			continue
		}
		event := cal.AddEvent(fmt.Sprintf("%s-%s@orchestra", s.MemberID, iso))
		event.SetDtStampTime(now.UTC())
		if !s.UpdatedAt.IsZero() {
			event.SetModifiedAt(s.UpdatedAt.UTC())
		}
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
		event.SetSummary(fmt.Sprintf("%s available", label(s)))
		if note := s.Note(iso); note != "" {
			event.SetDescription(note)
		}
	}
	return cal.Serialize(), nil
}

func label(s schedule.Schedule) string {
	if s.MemberName != "" {
		return s.MemberName
	}
	return s.MemberID
}
