// Package availability holds the in-memory working copy of one member's
// schedule while it is being edited.
package availability

import (
	"sort"
	"strings"
	"time"

	"orchestra/internal/domain/calendar"
	"orchestra/internal/domain/schedule"
)

// Snapshot is an immutable copy of the store's state.
type Snapshot struct {
	MemberID   string
	MemberName string
	Dates      []string          // sorted ascending; empty while LegacyDays governs
	Notes      map[string]string // keys are available dates
	LegacyDays []string
	Version    uint64
}

// Schedule converts the snapshot to its canonical persisted shape.
// weekStart is written as the record's WeekStartDate.
func (s Snapshot) Schedule(weekStart time.Time) schedule.Schedule {
	rec := schedule.Schedule{
		MemberID:       s.MemberID,
		MemberName:     s.MemberName,
		AvailableDays:  append([]string(nil), s.LegacyDays...),
		AvailableDates: append([]string(nil), s.Dates...),
		DateNotes:      make(map[string]string, len(s.Notes)),
		WeekStartDate:  calendar.FormatISODate(calendar.Civil(weekStart)),
	}
	for k, v := range s.Notes {
		rec.DateNotes[k] = v
	}
	return rec.Canonical()
}

// Store is the editable selection for a single member.
// Not safe for concurrent use: one writer edits one member's store.
// INVARIANT: every key of notes is a date IsSelected reports true for.
type Store struct {
	memberID   string
	memberName string
	selected   map[string]bool
	notes      map[string]string
	legacyDays []string
	version    uint64
}

// New creates an empty store for a member.
func New(memberID, memberName string) *Store {
	return &Store{
		memberID:   memberID,
		memberName: memberName,
		selected:   make(map[string]bool),
		notes:      make(map[string]string),
	}
}

// Load replaces the store's contents with a canonical record. Call it once
// per successful fetch; an empty record is a legitimate value and clears the store.
// The edit version is not reset.
// PRE: rec belongs to this store's member
// POST: state mirrors rec; a legacy record stays legacy, memos included
func (s *Store) Load(rec schedule.Schedule) {
	if rec.MemberID != "" {
		s.memberID = rec.MemberID
	}
	if rec.MemberName != "" {
		s.memberName = rec.MemberName
	}
	s.selected = make(map[string]bool, len(rec.AvailableDates))
	s.notes = make(map[string]string, len(rec.DateNotes))
	s.legacyDays = nil
	for _, d := range rec.AvailableDates {
		s.selected[d] = true
	}
	if len(rec.AvailableDates) == 0 {
		s.legacyDays = append([]string(nil), rec.AvailableDays...)
	}
	for date, note := range rec.DateNotes {
		note = strings.TrimSpace(note)
		if note == "" {
			continue
		}
		t, err := calendar.ParseISODate(date)
		if err != nil || !schedule.IsAvailable(rec, t) {
			continue
		}
		s.notes[date] = note
	}
}

// legacy reports whether the weekday list still governs the selection.
func (s *Store) legacy() bool {
	return len(s.selected) == 0 && len(s.legacyDays) > 0
}

// leaveLegacy switches a legacy store to explicit dates ahead of a date edit.
// Dates carrying a memo stay selected so no memo is orphaned.
func (s *Store) leaveLegacy() {
	if !s.legacy() {
		return
	}
	for d := range s.notes {
		s.selected[d] = true
	}
	s.legacyDays = nil
}

// Toggle removes date (and its memo) when selected, otherwise selects it.
// On a legacy store the first toggle replaces the weekday list with explicit dates.
func (s *Store) Toggle(date time.Time) Snapshot {
	key := calendar.FormatISODate(date)
	was := s.IsSelected(date)
	s.leaveLegacy()
	if was {
		delete(s.selected, key)
		delete(s.notes, key)
	} else {
		s.selected[key] = true
	}
	s.version++
	return s.Snapshot()
}

// MarkRange selects date if it is not already selected. It never deselects.
func (s *Store) MarkRange(date time.Time) Snapshot {
	if !s.IsSelected(date) {
		s.leaveLegacy()
		s.selected[calendar.FormatISODate(date)] = true
		s.version++
	}
	return s.Snapshot()
}

// SetMemo stores trimmed text for date, selecting date if needed. Blank text
// removes the memo but leaves the selection alone.
func (s *Store) SetMemo(date time.Time, text string) Snapshot {
	key := calendar.FormatISODate(date)
	text = strings.TrimSpace(text)
	if text == "" {
		if _, ok := s.notes[key]; ok {
			delete(s.notes, key)
			s.version++
		}
		return s.Snapshot()
	}
	if !s.IsSelected(date) {
		s.leaveLegacy()
		s.selected[key] = true
	} else if s.notes[key] == text {
		return s.Snapshot()
	}
	s.notes[key] = text
	s.version++
	return s.Snapshot()
}

// IsSelected reports whether date is available in the working copy. While
// the store is legacy this follows the weekday list.
func (s *Store) IsSelected(date time.Time) bool {
	if s.legacy() {
		return schedule.IsAvailable(schedule.Schedule{AvailableDays: s.legacyDays}, date)
	}
	return s.selected[calendar.FormatISODate(date)]
}

// Memo returns the memo for date, or "".
func (s *Store) Memo(date time.Time) string {
	return s.notes[calendar.FormatISODate(date)]
}

// CountInMonth returns how many dates of the given month are selected.
func (s *Store) CountInMonth(year, month0 int) int {
	n := 0
	for _, d := range calendar.MonthGrid(year, month0).InMonthDays() {
		if s.IsSelected(d.Date) {
			n++
		}
	}
	return n
}

// Version increases on every state-changing edit.
func (s *Store) Version() uint64 {
	return s.version
}

// MemberID returns the member whose schedule this store holds.
func (s *Store) MemberID() string {
	return s.memberID
}

// Snapshot returns an immutable copy of the current state.
func (s *Store) Snapshot() Snapshot {
	dates := make([]string, 0, len(s.selected))
	for d := range s.selected {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	notes := make(map[string]string, len(s.notes))
	for k, v := range s.notes {
		notes[k] = v
	}
	return Snapshot{
		MemberID:   s.memberID,
		MemberName: s.memberName,
		Dates:      dates,
		Notes:      notes,
		LegacyDays: append([]string(nil), s.legacyDays...),
		Version:    s.version,
	}
}
