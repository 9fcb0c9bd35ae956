package instrument

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"orchestra/internal/adapters/storage"
	domain "orchestra/internal/domain/instrument"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new InstrumentStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByAbbreviation retrieves an Instrument by its abbreviation.
// PRE: abbreviation is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByAbbreviation(ctx context.Context, abbreviation string) (domain.Instrument, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, english, abbreviation FROM instrument WHERE abbreviation = ?", abbreviation)
	var entity domain.Instrument
	err := row.Scan(&entity.ID, &entity.Name, &entity.English, &entity.Abbreviation)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Instrument{}, fmt.Errorf("instrument %s: %w", abbreviation, storage.ErrNotFound)
	}
	return entity, err
}

// Save persists an Instrument to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Instrument) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO instrument (id, name, english, abbreviation) VALUES (?, ?, ?, ?) ON CONFLICT(id) DO UPDATE SET name=excluded.name, english=excluded.english, abbreviation=excluded.abbreviation",
		entity.ID, entity.Name, entity.English, entity.Abbreviation,
	)
	return err
}

// List retrieves all Instruments in insertion order.
// PRE: none
// POST: Returns all entities
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Instrument, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, english, abbreviation FROM instrument ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Instrument
	for rows.Next() {
		var entity domain.Instrument
		if err := rows.Scan(&entity.ID, &entity.Name, &entity.English, &entity.Abbreviation); err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}
