package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"orchestra/internal/adapters/storage"
	"orchestra/internal/domain/availability"
	"orchestra/internal/domain/calendar"
	"orchestra/internal/domain/schedule"
)

// ScheduleStoreForSync defines the store interface needed by schedule saves.
type ScheduleStoreForSync interface {
	GetByMemberID(ctx context.Context, memberID string) (schedule.Schedule, error)
	Save(ctx context.Context, s schedule.Schedule) error
	List(ctx context.Context) ([]schedule.Schedule, error)
}

// --- Save Schedule ---

// SaveScheduleInput carries input for the save schedule orchestrator.
type SaveScheduleInput struct {
	Snapshot  availability.Snapshot
	WeekStart time.Time // zero means the Monday of the current week
}

// SaveScheduleDeps holds dependencies for SaveSchedule.
type SaveScheduleDeps struct {
	ScheduleStore ScheduleStoreForSync
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteSaveSchedule serialises a snapshot into the canonical record and
// upserts it by member.
// PRE: Snapshot.MemberID is non-empty
// POST: exactly one record exists for the member; it mirrors the snapshot
// INVARIANT: replaying an unchanged snapshot only moves UpdatedAt
func ExecuteSaveSchedule(ctx context.Context, input SaveScheduleInput, deps SaveScheduleDeps) (schedule.Schedule, error) {
	weekStart := input.WeekStart
	if weekStart.IsZero() {
		weekStart = calendar.WeekStart(deps.Now())
	}
	return upsertSchedule(ctx, input.Snapshot.Schedule(weekStart), deps)
}

// --- Save Schedules (batch) ---

// SaveSchedulesInput carries input for the batch save orchestrator.
type SaveSchedulesInput struct {
	Records []schedule.Schedule
}

// SaveOutcome is the result of one record in a batch.
type SaveOutcome struct {
	MemberID string
	Record   schedule.Schedule
	Err      error
}

// ExecuteSaveSchedules upserts each record independently. The batch is not
// atomic: a failure on one record never rolls back another.
// PRE: none
// POST: len(outcomes) == len(input.Records); err joins every per-record error
func ExecuteSaveSchedules(ctx context.Context, input SaveSchedulesInput, deps SaveScheduleDeps) ([]SaveOutcome, error) {
	outcomes := make([]SaveOutcome, 0, len(input.Records))
	var errs []error
	for _, rec := range input.Records {
		saved, err := upsertSchedule(ctx, rec, deps)
		outcomes = append(outcomes, SaveOutcome{MemberID: rec.MemberID, Record: saved, Err: err})
		if err != nil {
			errs = append(errs, fmt.Errorf("member %q: %w", rec.MemberID, err))
		}
	}
	return outcomes, errors.Join(errs...)
}

func upsertSchedule(ctx context.Context, rec schedule.Schedule, deps SaveScheduleDeps) (schedule.Schedule, error) {
	rec = rec.Canonical()
	if rec.WeekStartDate == "" {
		rec.WeekStartDate = calendar.FormatISODate(calendar.WeekStart(deps.Now()))
	}
	if err := rec.Validate(); err != nil {
		return schedule.Schedule{}, err
	}

	existing, err := deps.ScheduleStore.GetByMemberID(ctx, rec.MemberID)
	switch {
	case err == nil:
		rec.ID = existing.ID
	case errors.Is(err, storage.ErrNotFound):
		rec.ID = deps.GenerateID()
	default:
		return schedule.Schedule{}, fmt.Errorf("find schedule: %w", err)
	}
	rec.UpdatedAt = deps.Now()

	if err := deps.ScheduleStore.Save(ctx, rec); err != nil {
		return schedule.Schedule{}, fmt.Errorf("save schedule: %w", err)
	}

	zap.L().Info("schedule_event",
		zap.String("event", "schedule_saved"),
		zap.String("schedule_id", rec.ID),
		zap.String("member_id", rec.MemberID),
		zap.Int("dates", len(rec.AvailableDates)),
		zap.Int("notes", len(rec.DateNotes)),
	)
	return rec, nil
}
