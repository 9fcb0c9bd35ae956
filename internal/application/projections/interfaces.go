package projections

import (
	"context"

	"orchestra/internal/adapters/storage/member"
	domainInstrument "orchestra/internal/domain/instrument"
	domainMember "orchestra/internal/domain/member"
	domainSchedule "orchestra/internal/domain/schedule"
)

// MemberStore interface for member queries.
type MemberStore interface {
	List(ctx context.Context, filter member.ListFilter) ([]domainMember.Member, error)
}

// ScheduleStore interface for schedule queries.
type ScheduleStore interface {
	GetByMemberID(ctx context.Context, memberID string) (domainSchedule.Schedule, error)
	List(ctx context.Context) ([]domainSchedule.Schedule, error)
}

// InstrumentStore interface for instrument queries.
type InstrumentStore interface {
	List(ctx context.Context) ([]domainInstrument.Instrument, error)
}
