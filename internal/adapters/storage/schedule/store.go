package schedule

import (
	"context"

	domain "orchestra/internal/domain/schedule"
)

// Store persists Schedule state. There is at most one schedule per member.
type Store interface {
	GetByMemberID(ctx context.Context, memberID string) (domain.Schedule, error)
	Save(ctx context.Context, value domain.Schedule) error
	List(ctx context.Context) ([]domain.Schedule, error)
}
