package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"orchestra/internal/domain/calendar"
)

// Domain errors
var (
	ErrEmptyMemberID = errors.New("member ID cannot be empty")
	ErrInvalidDate   = errors.New("available dates must be YYYY-MM-DD")
	ErrInvalidDay    = errors.New("available days must be weekday labels 월..일")
	ErrOrphanedMemo  = errors.New("date note refers to a date that is not available")
)

// Schedule is one member's availability record for the active cycle.
// At most one Schedule exists per MemberID.
// INVARIANT: when AvailableDates is non-empty, AvailableDays is ignored by every reader.
type Schedule struct {
	ID             string            `json:"id,omitempty"`
	MemberID       string            `json:"memberId"`
	MemberName     string            `json:"memberName"`
	AvailableDays  []string          `json:"availableDays"`  // legacy, weekday labels
	AvailableDates []string          `json:"availableDates"` // sorted ascending
	DateNotes      map[string]string `json:"dateNotes"`
	WeekStartDate  string            `json:"weekStartDate"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Empty returns the default record for a member that has never saved.
func Empty(memberID, memberName string, now time.Time) Schedule {
	return Schedule{
		MemberID:       memberID,
		MemberName:     memberName,
		AvailableDays:  []string{},
		AvailableDates: []string{},
		DateNotes:      map[string]string{},
		WeekStartDate:  calendar.FormatISODate(calendar.WeekStart(now)),
	}
}

// Validate checks if the Schedule has valid data.
// PRE: Schedule struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Schedule) Validate() error {
	if strings.TrimSpace(s.MemberID) == "" {
		return ErrEmptyMemberID
	}
	for _, d := range s.AvailableDates {
		if _, err := calendar.ParseISODate(d); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidDate, d)
		}
	}
	for _, day := range s.AvailableDays {
		if _, ok := calendar.WeekdayFromLabel(day); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidDay, day)
		}
	}
	if s.WeekStartDate != "" {
		if _, err := calendar.ParseISODate(s.WeekStartDate); err != nil {
			return fmt.Errorf("week start: %w", err)
		}
	}
	for date := range s.DateNotes {
		t, err := calendar.ParseISODate(date)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
		if !IsAvailable(*s, t) {
			return fmt.Errorf("%w: %s", ErrOrphanedMemo, date)
		}
	}
	return nil
}

// HasDateData reports whether the record uses the date-based representation.
func (s *Schedule) HasDateData() bool {
	return len(s.AvailableDates) > 0 || len(s.DateNotes) > 0
}

// Canonical returns the record in its persisted shape: dates deduplicated and
// sorted, blank memos removed, memos without an available date removed, and
// legacy days cleared once any date data exists. Nil collections become empty.
// PRE: none
// POST: result.Validate() only fails on malformed dates or member ID
// INVARIANT: s is not mutated
func (s Schedule) Canonical() Schedule {
	out := s

	seen := make(map[string]bool, len(s.AvailableDates))
	dates := make([]string, 0, len(s.AvailableDates))
	for _, d := range s.AvailableDates {
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)
	out.AvailableDates = dates

	days := make([]string, 0, len(s.AvailableDays))
	if len(dates) == 0 {
		days = append(days, s.AvailableDays...)
	}
	out.AvailableDays = days

	notes := make(map[string]string, len(s.DateNotes))
	for date, note := range s.DateNotes {
		note = strings.TrimSpace(note)
		if note == "" {
			continue
		}
		t, err := calendar.ParseISODate(date)
		if err != nil || !IsAvailable(out, t) {
			continue
		}
		notes[date] = note
	}
	out.DateNotes = notes
	return out
}

// Note returns the memo for an ISO date, or "".
func (s *Schedule) Note(iso string) string {
	if s.DateNotes == nil {
		return ""
	}
	return s.DateNotes[iso]
}
