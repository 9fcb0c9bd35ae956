package projections

import (
	"context"
	"errors"
	"time"

	"orchestra/internal/adapters/storage"
	domainSchedule "orchestra/internal/domain/schedule"
)

// GetMyScheduleQuery carries query parameters.
type GetMyScheduleQuery struct {
	MemberID   string
	MemberName string
	Now        time.Time
}

// GetMyScheduleDeps holds dependencies for GetMySchedule.
type GetMyScheduleDeps struct {
	ScheduleStore ScheduleStore
}

// QueryGetMySchedule returns the member's schedule, or an empty default record
// when they have never saved one.
// PRE: MemberID is non-empty
// POST: result.MemberID == query.MemberID
func QueryGetMySchedule(ctx context.Context, query GetMyScheduleQuery, deps GetMyScheduleDeps) (domainSchedule.Schedule, error) {
	if query.MemberID == "" {
		return domainSchedule.Schedule{}, domainSchedule.ErrEmptyMemberID
	}
	s, err := deps.ScheduleStore.GetByMemberID(ctx, query.MemberID)
	if errors.Is(err, storage.ErrNotFound) {
		return domainSchedule.Empty(query.MemberID, query.MemberName, query.Now), nil
	}
	if err != nil {
		return domainSchedule.Schedule{}, err
	}
	return s.Canonical(), nil
}
