package projections

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"orchestra/internal/adapters/storage"
	"orchestra/internal/adapters/storage/member"
	"orchestra/internal/domain/calendar"
	domainInstrument "orchestra/internal/domain/instrument"
	domainMember "orchestra/internal/domain/member"
	domainSchedule "orchestra/internal/domain/schedule"
)

type mockMemberStore struct {
	members []domainMember.Member
	err     error
}

// List returns all seeded members.
func (m *mockMemberStore) List(_ context.Context, _ member.ListFilter) ([]domainMember.Member, error) {
	return m.members, m.err
}

type mockScheduleStore struct {
	schedules []domainSchedule.Schedule
}

// GetByMemberID returns the seeded schedule for a member.
func (m *mockScheduleStore) GetByMemberID(_ context.Context, memberID string) (domainSchedule.Schedule, error) {
	for _, s := range m.schedules {
		if s.MemberID == memberID {
			return s, nil
		}
	}
	return domainSchedule.Schedule{}, fmt.Errorf("schedule %s: %w", memberID, storage.ErrNotFound)
}

// List returns all seeded schedules.
func (m *mockScheduleStore) List(_ context.Context) ([]domainSchedule.Schedule, error) {
	return m.schedules, nil
}

type mockInstrumentStore struct{}

// List returns the default instruments.
func (mockInstrumentStore) List(_ context.Context) ([]domainInstrument.Instrument, error) {
	return domainInstrument.Defaults, nil
}

// fixture: the week of Mon 2025-02-24 .. Sun 2025-03-02, with 3/1 a holiday.
func fixture() (*mockMemberStore, *mockScheduleStore) {
	members := &mockMemberStore{members: []domainMember.Member{
		{ID: "kim", Name: "Kim", Instrument: "Vc", Part: "1st"},
		{ID: "lee", Name: "Lee", Instrument: "Vc"},
		{ID: "choi", Name: "Choi", Instrument: "Fl"},
		{ID: "jung", Email: "jung@example.com", Instrument: "Zz"},
	}}
	schedules := &mockScheduleStore{schedules: []domainSchedule.Schedule{
		{MemberID: "kim", AvailableDates: []string{"2025-02-24", "2025-02-26"}, DateNotes: map[string]string{"2025-02-26": "late 30m"}},
		{MemberID: "lee", AvailableDays: []string{"수"}},
		{MemberID: "park", MemberName: "Park", AvailableDates: []string{"2025-02-26"}},
		{MemberID: "ghost", AvailableDates: []string{"2025-02-26"}},
	}}
	return members, schedules
}

var wednesday = time.Date(2025, 2, 26, 15, 0, 0, 0, time.UTC)

func TestQueryGetDashboard(t *testing.T) {
	members, schedules := fixture()
	result, err := QueryGetDashboard(context.Background(), GetDashboardQuery{Now: wednesday}, GetDashboardDeps{
		MemberStore:     members,
		ScheduleStore:   schedules,
		InstrumentStore: mockInstrumentStore{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalMembers != 4 {
		t.Errorf("expected 4 members, got %d", result.TotalMembers)
	}
	if result.TotalInstruments != 3 {
		t.Errorf("expected 3 instruments, got %d", result.TotalInstruments)
	}
	wantStats := []InstrumentStat{
		{Abbreviation: "Vc", Name: "첼로", Count: 2},
		{Abbreviation: "Fl", Name: "플루트", Count: 1},
		{Abbreviation: "Zz", Name: "Zz", Count: 1},
	}
	if fmt.Sprint(result.Instruments) != fmt.Sprint(wantStats) {
		t.Errorf("expected %v, got %v", wantStats, result.Instruments)
	}

	if len(result.Week) != 7 {
		t.Fatalf("expected 7 days, got %d", len(result.Week))
	}
	monday := result.Week[0]
	if monday.Day != "월" || monday.Date != "2025-02-24" || monday.DateDisplay != "2/24" || monday.Count != 1 {
		t.Errorf("unexpected Monday stat: %+v", monday)
	}
	if result.Week[2].Count != 4 {
		t.Errorf("expected 4 available on Wednesday, got %d", result.Week[2].Count)
	}
	if !result.Week[5].Holiday || result.Week[5].Date != "2025-03-01" {
		t.Errorf("expected Saturday 3/1 to be a holiday, got %+v", result.Week[5])
	}
	if result.Week[6].Day != "일" {
		t.Errorf("expected week to end on Sunday, got %s", result.Week[6].Day)
	}
	if result.WeeklyPractices != 2 {
		t.Errorf("expected 2 practice days, got %d", result.WeeklyPractices)
	}
	if want := 5.0 / 7; result.AverageAttendance != want {
		t.Errorf("expected average %v, got %v", want, result.AverageAttendance)
	}
}

func TestQueryGetDashboard_StoreError(t *testing.T) {
	_, schedules := fixture()
	_, err := QueryGetDashboard(context.Background(), GetDashboardQuery{Now: wednesday}, GetDashboardDeps{
		MemberStore:     &mockMemberStore{err: errors.New("locked")},
		ScheduleStore:   schedules,
		InstrumentStore: mockInstrumentStore{},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestQueryGetMonthAttendance(t *testing.T) {
	members, schedules := fixture()
	result, err := QueryGetMonthAttendance(context.Background(), GetMonthAttendanceQuery{Year: 2025, Month0: 1, Now: wednesday}, GetMonthAttendanceDeps{
		MemberStore:   members,
		ScheduleStore: schedules,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Year != 2025 || result.Month != 2 {
		t.Errorf("expected 2025-02, got %d-%d", result.Year, result.Month)
	}
	if len(result.Cells) != calendar.GridSize {
		t.Fatalf("expected %d cells, got %d", calendar.GridSize, len(result.Cells))
	}
	if result.Cells[0].Date != "2025-01-26" || result.Cells[0].InMonth {
		t.Errorf("expected grid to open on Sunday 2025-01-26, got %+v", result.Cells[0])
	}

	cells := make(map[string]AttendanceCell, len(result.Cells))
	for _, c := range result.Cells {
		cells[c.Date] = c
	}
	wed := cells["2025-02-26"]
	if !wed.IsToday || wed.Count != 4 {
		t.Errorf("unexpected cell for 2/26: %+v", wed)
	}
	names := []string{}
	for _, a := range wed.Attendees {
		names = append(names, a.MemberName)
	}
	if want := "[Kim Lee Park 알 수 없음]"; fmt.Sprint(names) != want {
		t.Errorf("expected attendees %s, got %v", want, names)
	}
	if wed.Attendees[0].Memo != "late 30m" || wed.Attendees[0].Instrument != "Vc" {
		t.Errorf("unexpected attendee detail: %+v", wed.Attendees[0])
	}

	march := cells["2025-03-05"]
	if march.InMonth || march.Count != 0 || len(march.Attendees) != 0 {
		t.Errorf("expected no attendance outside the month, got %+v", march)
	}
}

func TestQueryGetDateAttendance(t *testing.T) {
	members, schedules := fixture()
	deps := GetDateAttendanceDeps{MemberStore: members, ScheduleStore: schedules}

	result, err := QueryGetDateAttendance(context.Background(), GetDateAttendanceQuery{Date: "2025-02-24"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Weekday != "월" || len(result.Members) != 1 || result.Members[0].Part != "1st" {
		t.Errorf("unexpected result: %+v", result)
	}

	empty, err := QueryGetDateAttendance(context.Background(), GetDateAttendanceQuery{Date: "2025-02-25"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty.Members == nil || len(empty.Members) != 0 {
		t.Errorf("expected empty non-nil members, got %#v", empty.Members)
	}

	if _, err := QueryGetDateAttendance(context.Background(), GetDateAttendanceQuery{Date: "24/02/2025"}, deps); !errors.Is(err, calendar.ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

func TestQueryGetMySchedule(t *testing.T) {
	_, schedules := fixture()
	deps := GetMyScheduleDeps{ScheduleStore: schedules}

	mine, err := QueryGetMySchedule(context.Background(), GetMyScheduleQuery{MemberID: "kim", Now: wednesday}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine.AvailableDates) != 2 {
		t.Errorf("expected kim's dates, got %v", mine.AvailableDates)
	}

	fresh, err := QueryGetMySchedule(context.Background(), GetMyScheduleQuery{MemberID: "new", MemberName: "New", Now: wednesday}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.MemberID != "new" || fresh.MemberName != "New" || fresh.ID != "" {
		t.Errorf("unexpected default record: %+v", fresh)
	}
	if fresh.WeekStartDate != "2025-02-24" {
		t.Errorf("expected week start 2025-02-24, got %s", fresh.WeekStartDate)
	}
	if fresh.AvailableDates == nil || fresh.DateNotes == nil {
		t.Error("expected empty, non-nil collections")
	}

	if _, err := QueryGetMySchedule(context.Background(), GetMyScheduleQuery{}, deps); !errors.Is(err, domainSchedule.ErrEmptyMemberID) {
		t.Errorf("expected ErrEmptyMemberID, got %v", err)
	}
}

func TestArchivedMembersLeaveAttendance(t *testing.T) {
	members, schedules := fixture()
	archived := wednesday.Add(-time.Hour)
	members.members[1].ArchivedAt = &archived

	result, err := QueryGetDashboard(context.Background(), GetDashboardQuery{Now: wednesday}, GetDashboardDeps{
		MemberStore:     members,
		ScheduleStore:   schedules,
		InstrumentStore: mockInstrumentStore{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalMembers != 3 {
		t.Errorf("expected 3 active members, got %d", result.TotalMembers)
	}
	if result.Instruments[0].Count != 1 {
		t.Errorf("expected one cellist left, got %+v", result.Instruments[0])
	}
	if result.Week[2].Count != 3 {
		t.Errorf("expected 3 available on Wednesday, got %d", result.Week[2].Count)
	}

	day, err := QueryGetDateAttendance(context.Background(), GetDateAttendanceQuery{Date: "2025-02-26"}, GetDateAttendanceDeps{MemberStore: members, ScheduleStore: schedules})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, a := range day.Members {
		if a.MemberID == "lee" {
			t.Errorf("expected archived member left out, got %+v", day.Members)
		}
	}
}
