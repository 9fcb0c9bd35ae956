package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"orchestra/internal/adapters/storage"
	domain "orchestra/internal/domain/schedule"
)

const scheduleColumns = "id, member_id, member_name, available_days, available_dates, date_notes, week_start_date, updated_at"

// SQLiteStore implements Store using SQLite. Set-valued fields are stored as JSON text.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ScheduleStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row scanner) (domain.Schedule, error) {
	var entity domain.Schedule
	var days, dates, notes, updatedAt string
	if err := row.Scan(&entity.ID, &entity.MemberID, &entity.MemberName, &days, &dates, &notes, &entity.WeekStartDate, &updatedAt); err != nil {
		return domain.Schedule{}, err
	}
	if err := json.Unmarshal([]byte(days), &entity.AvailableDays); err != nil {
		return domain.Schedule{}, fmt.Errorf("schedule %s available_days: %w", entity.ID, err)
	}
	if err := json.Unmarshal([]byte(dates), &entity.AvailableDates); err != nil {
		return domain.Schedule{}, fmt.Errorf("schedule %s available_dates: %w", entity.ID, err)
	}
	if err := json.Unmarshal([]byte(notes), &entity.DateNotes); err != nil {
		return domain.Schedule{}, fmt.Errorf("schedule %s date_notes: %w", entity.ID, err)
	}
	if entity.AvailableDays == nil {
		entity.AvailableDays = []string{}
	}
	if entity.AvailableDates == nil {
		entity.AvailableDates = []string{}
	}
	if entity.DateNotes == nil {
		entity.DateNotes = map[string]string{}
	}
	entity.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return entity, nil
}

// GetByMemberID retrieves the Schedule belonging to a member.
// PRE: memberID is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByMemberID(ctx context.Context, memberID string) (domain.Schedule, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+scheduleColumns+" FROM schedule WHERE member_id = ?", memberID)
	entity, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Schedule{}, fmt.Errorf("schedule for member %s: %w", memberID, storage.ErrNotFound)
	}
	return entity, err
}

// Save upserts a Schedule keyed by member. An existing row keeps its id.
// PRE: entity has been validated and carries an ID
// POST: exactly one row exists for entity.MemberID
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Schedule) error {
	days, err := json.Marshal(nonNil(entity.AvailableDays))
	if err != nil {
		return err
	}
	dates, err := json.Marshal(nonNil(entity.AvailableDates))
	if err != nil {
		return err
	}
	notes := entity.DateNotes
	if notes == nil {
		notes = map[string]string{}
	}
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO schedule (`+scheduleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(member_id) DO UPDATE SET member_name=excluded.member_name,
			available_days=excluded.available_days, available_dates=excluded.available_dates,
			date_notes=excluded.date_notes, week_start_date=excluded.week_start_date,
			updated_at=excluded.updated_at`,
		entity.ID,
		entity.MemberID,
		entity.MemberName,
		string(days),
		string(dates),
		string(notesJSON),
		entity.WeekStartDate,
		entity.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// List retrieves all Schedules ordered by member name.
// PRE: none
// POST: Returns all entities
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+scheduleColumns+" FROM schedule ORDER BY member_name, member_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Schedule
	for rows.Next() {
		entity, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
