package member

import (
	"context"

	domain "orchestra/internal/domain/member"
)

// Store persists Member state. Members are never hard-deleted.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Member, error)
	Save(ctx context.Context, value domain.Member) error
	List(ctx context.Context, filter ListFilter) ([]domain.Member, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	GetByEmail(ctx context.Context, email string) (domain.Member, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit      int
	Offset     int
	Role       string
	Instrument string
	Search     string // case-insensitive substring of name, display name or email

	IncludeArchived bool // archived members are left out unless set
}
