package projections

import (
	"context"
	"time"

	"orchestra/internal/adapters/storage/member"
	"orchestra/internal/domain/calendar"
)

// GetMonthAttendanceQuery carries query parameters.
type GetMonthAttendanceQuery struct {
	Year   int
	Month0 int       // zero-based month index
	Now    time.Time // marks today's cell; zero marks none
}

// AttendanceCell is one cell of the month view.
type AttendanceCell struct {
	Date        string     `json:"date"`
	Day         int        `json:"day"`
	Weekday     string     `json:"weekday"`
	InMonth     bool       `json:"inMonth"`
	IsToday     bool       `json:"isToday"`
	IsHoliday   bool       `json:"isHoliday"`
	HolidayName string     `json:"holidayName,omitempty"`
	Count       int        `json:"count"`
	Attendees   []Attendee `json:"attendees"`
}

// GetMonthAttendanceResult carries the query result.
type GetMonthAttendanceResult struct {
	Year  int              `json:"year"`
	Month int              `json:"month"` // 1-12
	Cells []AttendanceCell `json:"cells"`
}

// GetMonthAttendanceDeps holds dependencies for GetMonthAttendance.
type GetMonthAttendanceDeps struct {
	MemberStore   MemberStore
	ScheduleStore ScheduleStore
}

// QueryGetMonthAttendance builds the 42-cell month grid with available members per day.
// PRE: none
// POST: len(Cells) == calendar.GridSize; cells outside the month carry no attendees
func QueryGetMonthAttendance(ctx context.Context, query GetMonthAttendanceQuery, deps GetMonthAttendanceDeps) (GetMonthAttendanceResult, error) {
	members, err := deps.MemberStore.List(ctx, member.ListFilter{IncludeArchived: true})
	if err != nil {
		return GetMonthAttendanceResult{}, err
	}
	schedules, err := deps.ScheduleStore.List(ctx)
	if err != nil {
		return GetMonthAttendanceResult{}, err
	}

	grid := calendar.MonthGridAt(query.Year, query.Month0, query.Now)
	byID := indexMembers(members)

	result := GetMonthAttendanceResult{
		Year:  grid.Year,
		Month: int(grid.Month),
		Cells: make([]AttendanceCell, 0, len(grid.Days)),
	}
	for _, d := range grid.Days {
		cell := AttendanceCell{
			Date:        d.ISO,
			Day:         d.Date.Day(),
			Weekday:     calendar.WeekdayLabel(d.Weekday),
			InMonth:     d.InMonth,
			IsToday:     d.IsToday,
			IsHoliday:   d.IsHoliday,
			HolidayName: d.Holiday,
			Attendees:   []Attendee{},
		}
		if d.InMonth {
			if a := attendeesOn(d.Date, schedules, byID); a != nil {
				cell.Attendees = a
			}
			cell.Count = len(cell.Attendees)
		}
		result.Cells = append(result.Cells, cell)
	}
	return result, nil
}
