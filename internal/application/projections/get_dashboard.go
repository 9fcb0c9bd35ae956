package projections

import (
	"context"
	"fmt"
	"sort"
	"time"

	"orchestra/internal/adapters/storage/member"
	"orchestra/internal/domain/calendar"
	domainInstrument "orchestra/internal/domain/instrument"
	domainMember "orchestra/internal/domain/member"
)

// GetDashboardQuery carries query parameters.
type GetDashboardQuery struct {
	Now time.Time // any instant in the week to report on
}

// InstrumentStat is the member count for one instrument.
type InstrumentStat struct {
	Abbreviation string `json:"abbreviation"`
	Name         string `json:"name"`
	Count        int    `json:"count"`
}

// WeeklyStat is the availability count for one day of the current week.
type WeeklyStat struct {
	Day         string `json:"day"`
	Date        string `json:"date"`
	DateDisplay string `json:"dateDisplay"`
	Count       int    `json:"count"`
	Holiday     bool   `json:"holiday"`
	HolidayName string `json:"holidayName,omitempty"`
}

// GetDashboardResult carries the query result.
type GetDashboardResult struct {
	TotalMembers      int              `json:"totalMembers"`
	TotalInstruments  int              `json:"totalInstruments"`
	Instruments       []InstrumentStat `json:"instrumentStats"`
	Week              []WeeklyStat     `json:"weeklyStats"`
	WeeklyPractices   int              `json:"weeklyPractices"`
	AverageAttendance float64          `json:"averageAttendance"`
}

// GetDashboardDeps holds dependencies for GetDashboard.
type GetDashboardDeps struct {
	MemberStore     MemberStore
	ScheduleStore   ScheduleStore
	InstrumentStore InstrumentStore
}

// QueryGetDashboard computes the roster and current-week summary.
// PRE: Now is set
// POST: Week has seven entries, Monday first
// INVARIANT: AverageAttendance is the week's total count divided by 7
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps) (GetDashboardResult, error) {
	members, err := deps.MemberStore.List(ctx, member.ListFilter{IncludeArchived: true})
	if err != nil {
		return GetDashboardResult{}, err
	}
	schedules, err := deps.ScheduleStore.List(ctx)
	if err != nil {
		return GetDashboardResult{}, err
	}
	instruments, err := deps.InstrumentStore.List(ctx)
	if err != nil {
		return GetDashboardResult{}, err
	}

	active := activeMembers(members)
	result := GetDashboardResult{
		TotalMembers: len(active),
		Instruments:  instrumentStats(active, instruments),
	}
	result.TotalInstruments = len(result.Instruments)

	byID := indexMembers(members)
	total := 0
	for _, d := range calendar.WeekOf(query.Now) {
		stat := WeeklyStat{
			Day:         calendar.WeekdayLabel(d.Weekday()),
			Date:        calendar.FormatISODate(d),
			DateDisplay: fmt.Sprintf("%d/%d", int(d.Month()), d.Day()),
			Count:       len(attendeesOn(d, schedules, byID)),
			HolidayName: calendar.HolidayName(d),
		}
		stat.Holiday = stat.HolidayName != ""
		if stat.Count > 0 {
			result.WeeklyPractices++
		}
		total += stat.Count
		result.Week = append(result.Week, stat)
	}
	result.AverageAttendance = float64(total) / 7

	return result, nil
}

// instrumentStats counts members per instrument in the instrument list's
// order; abbreviations missing from the list follow, alphabetically.
func instrumentStats(members []domainMember.Member, instruments []domainInstrument.Instrument) []InstrumentStat {
	counts := make(map[string]int)
	for _, m := range members {
		if m.Instrument != "" {
			counts[m.Instrument]++
		}
	}

	stats := make([]InstrumentStat, 0, len(counts))
	seen := make(map[string]bool, len(counts))
	for _, inst := range instruments {
		if n := counts[inst.Abbreviation]; n > 0 && !seen[inst.Abbreviation] {
			seen[inst.Abbreviation] = true
			stats = append(stats, InstrumentStat{Abbreviation: inst.Abbreviation, Name: inst.Name, Count: n})
		}
	}
	var unknown []string
	for abbr := range counts {
		if !seen[abbr] {
			unknown = append(unknown, abbr)
		}
	}
	sort.Strings(unknown)
	for _, abbr := range unknown {
		stats = append(stats, InstrumentStat{Abbreviation: abbr, Name: abbr, Count: counts[abbr]})
	}
	return stats
}
