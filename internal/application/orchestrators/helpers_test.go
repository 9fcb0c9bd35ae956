package orchestrators

import (
	"context"
	"fmt"
	"time"

	"orchestra/internal/adapters/storage"
	"orchestra/internal/domain/instrument"
	"orchestra/internal/domain/member"
	"orchestra/internal/domain/schedule"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

// sequentialIDs returns a generator yielding id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// mockScheduleStore implements ScheduleStoreForSync for testing.
type mockScheduleStore struct {
	byMember map[string]schedule.Schedule
	calls    int
	saveErr  error
	getErr   error
	onSave   func() // runs before a successful save is recorded
}

func newMockScheduleStore() *mockScheduleStore {
	return &mockScheduleStore{byMember: make(map[string]schedule.Schedule)}
}

// GetByMemberID implements ScheduleStoreForSync.
func (m *mockScheduleStore) GetByMemberID(_ context.Context, memberID string) (schedule.Schedule, error) {
	m.calls++
	if m.getErr != nil {
		return schedule.Schedule{}, m.getErr
	}
	s, ok := m.byMember[memberID]
	if !ok {
		return schedule.Schedule{}, fmt.Errorf("schedule %s: %w", memberID, storage.ErrNotFound)
	}
	return s, nil
}

// Save implements ScheduleStoreForSync.
func (m *mockScheduleStore) Save(_ context.Context, s schedule.Schedule) error {
	m.calls++
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.onSave != nil {
		m.onSave()
	}
	m.byMember[s.MemberID] = s
	return nil
}

// List implements ScheduleStoreForSync.
func (m *mockScheduleStore) List(_ context.Context) ([]schedule.Schedule, error) {
	var out []schedule.Schedule
	for _, s := range m.byMember {
		out = append(out, s)
	}
	return out, nil
}

// mockMemberStore implements MemberStoreForOrchestrator for testing.
type mockMemberStore struct {
	members map[string]member.Member
	saveErr error
}

func newMockMemberStore(members ...member.Member) *mockMemberStore {
	m := &mockMemberStore{members: make(map[string]member.Member)}
	for _, v := range members {
		m.members[v.ID] = v
	}
	return m
}

// GetByID implements MemberStoreForOrchestrator.
func (m *mockMemberStore) GetByID(_ context.Context, id string) (member.Member, error) {
	v, ok := m.members[id]
	if !ok {
		return member.Member{}, fmt.Errorf("member %s: %w", id, storage.ErrNotFound)
	}
	return v, nil
}

// Save implements MemberStoreForOrchestrator.
func (m *mockMemberStore) Save(_ context.Context, v member.Member) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.members[v.ID] = v
	return nil
}

// mockInstrumentStore implements InstrumentStoreForSeed for testing.
type mockInstrumentStore struct {
	byAbbr map[string]instrument.Instrument
}

// GetByAbbreviation implements InstrumentStoreForSeed.
func (m *mockInstrumentStore) GetByAbbreviation(_ context.Context, abbr string) (instrument.Instrument, error) {
	v, ok := m.byAbbr[abbr]
	if !ok {
		return instrument.Instrument{}, storage.ErrNotFound
	}
	return v, nil
}

// Save implements InstrumentStoreForSeed.
func (m *mockInstrumentStore) Save(_ context.Context, v instrument.Instrument) error {
	m.byAbbr[v.Abbreviation] = v
	return nil
}
