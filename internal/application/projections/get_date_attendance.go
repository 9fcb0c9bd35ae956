package projections

import (
	"context"

	"orchestra/internal/adapters/storage/member"
	"orchestra/internal/domain/calendar"
)

// GetDateAttendanceQuery carries query parameters.
type GetDateAttendanceQuery struct {
	Date string // YYYY-MM-DD
}

// GetDateAttendanceResult carries the query result.
type GetDateAttendanceResult struct {
	Date        string     `json:"date"`
	Weekday     string     `json:"weekday"`
	HolidayName string     `json:"holidayName,omitempty"`
	Members     []Attendee `json:"members"`
}

// GetDateAttendanceDeps holds dependencies for GetDateAttendance.
type GetDateAttendanceDeps struct {
	MemberStore   MemberStore
	ScheduleStore ScheduleStore
}

// QueryGetDateAttendance lists the members available on one date with their memos.
// PRE: Date is YYYY-MM-DD
// POST: returns calendar.ErrInvalidDate for malformed dates; Members is never nil
func QueryGetDateAttendance(ctx context.Context, query GetDateAttendanceQuery, deps GetDateAttendanceDeps) (GetDateAttendanceResult, error) {
	date, err := calendar.ParseISODate(query.Date)
	if err != nil {
		return GetDateAttendanceResult{}, err
	}
	members, err := deps.MemberStore.List(ctx, member.ListFilter{IncludeArchived: true})
	if err != nil {
		return GetDateAttendanceResult{}, err
	}
	schedules, err := deps.ScheduleStore.List(ctx)
	if err != nil {
		return GetDateAttendanceResult{}, err
	}

	result := GetDateAttendanceResult{
		Date:        query.Date,
		Weekday:     calendar.WeekdayLabel(date.Weekday()),
		HolidayName: calendar.HolidayName(date),
		Members:     attendeesOn(date, schedules, indexMembers(members)),
	}
	if result.Members == nil {
		result.Members = []Attendee{}
	}
	return result, nil
}
