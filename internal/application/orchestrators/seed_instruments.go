package orchestrators

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"orchestra/internal/adapters/storage"
	"orchestra/internal/domain/instrument"
)

// InstrumentStoreForSeed defines the store interface needed by SeedInstruments.
type InstrumentStoreForSeed interface {
	GetByAbbreviation(ctx context.Context, abbreviation string) (instrument.Instrument, error)
	Save(ctx context.Context, i instrument.Instrument) error
}

// SeedInstrumentsDeps holds dependencies for SeedInstruments.
type SeedInstrumentsDeps struct {
	InstrumentStore InstrumentStoreForSeed
	GenerateID      func() string
}

// ExecuteSeedInstruments inserts every default instrument whose abbreviation is
// missing. Existing rows are left alone, so running it twice is a no-op.
// POST: returns the number of instruments inserted
func ExecuteSeedInstruments(ctx context.Context, deps SeedInstrumentsDeps) (int, error) {
	created := 0
	for _, def := range instrument.Defaults {
		_, err := deps.InstrumentStore.GetByAbbreviation(ctx, def.Abbreviation)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return created, err
		}
		def.ID = deps.GenerateID()
		if err := def.Validate(); err != nil {
			return created, err
		}
		if err := deps.InstrumentStore.Save(ctx, def); err != nil {
			return created, err
		}
		created++
	}

	if created > 0 {
		zap.L().Info("seed_event", zap.String("event", "instruments_seeded"), zap.Int("instruments", created))
	}
	return created, nil
}
