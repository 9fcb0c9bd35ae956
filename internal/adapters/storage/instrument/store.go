package instrument

import (
	"context"

	domain "orchestra/internal/domain/instrument"
)

// Store persists Instrument state.
type Store interface {
	GetByAbbreviation(ctx context.Context, abbreviation string) (domain.Instrument, error)
	Save(ctx context.Context, value domain.Instrument) error
	List(ctx context.Context) ([]domain.Instrument, error)
}
