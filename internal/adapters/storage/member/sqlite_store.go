package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"orchestra/internal/adapters/storage"
	domain "orchestra/internal/domain/member"
)

const memberColumns = "id, email, display_name, name, role, instrument, part, remarks, created_at, updated_at, archived_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new MemberStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(row scanner) (domain.Member, error) {
	var entity domain.Member
	var createdAt, updatedAt, archivedAt string
	err := row.Scan(
		&entity.ID,
		&entity.Email,
		&entity.DisplayName,
		&entity.Name,
		&entity.Role,
		&entity.Instrument,
		&entity.Part,
		&entity.Remarks,
		&createdAt,
		&updatedAt,
		&archivedAt,
	)
	if err != nil {
		return domain.Member{}, err
	}
	entity.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	entity.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	if archivedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, archivedAt); err == nil {
			entity.ArchivedAt = &t
		}
	}
	return entity, nil
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM member WHERE id = ?", id)
	entity, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, fmt.Errorf("member %s: %w", id, storage.ErrNotFound)
	}
	return entity, err
}

// GetByEmail retrieves the first Member whose email matches, ignoring case.
// PRE: email is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM member WHERE lower(email) = lower(?) ORDER BY created_at, id LIMIT 1", email)
	entity, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, fmt.Errorf("member with email %s: %w", email, storage.ErrNotFound)
	}
	return entity, err
}

// Save persists a Member to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update); created_at is never overwritten
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Member) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO member (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email=excluded.email, display_name=excluded.display_name,
			name=excluded.name, role=excluded.role, instrument=excluded.instrument, part=excluded.part,
			remarks=excluded.remarks, updated_at=excluded.updated_at, archived_at=excluded.archived_at`,
		entity.ID,
		entity.Email,
		entity.DisplayName,
		entity.Name,
		entity.Role,
		entity.Instrument,
		entity.Part,
		entity.Remarks,
		entity.CreatedAt.UTC().Format(time.RFC3339Nano),
		entity.UpdatedAt.UTC().Format(time.RFC3339Nano),
		formatArchived(entity.ArchivedAt),
	)
	return err
}

func formatArchived(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func filterClause(filter ListFilter) (string, []any) {
	var conds []string
	var args []any
	if !filter.IncludeArchived {
		conds = append(conds, "archived_at = ''")
	}
	if filter.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, filter.Role)
	}
	if filter.Instrument != "" {
		conds = append(conds, "instrument = ?")
		args = append(args, filter.Instrument)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		conds = append(conds, "(name LIKE ? OR display_name LIKE ? OR email LIKE ?)")
		args = append(args, like, like, like)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List retrieves Members ordered by name.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Member, error) {
	where, args := filterClause(filter)
	query := "SELECT " + memberColumns + " FROM member" + where + " ORDER BY name, display_name, id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}
	return s.query(ctx, query, args...)
}

// Count returns the number of members matching filter.
// PRE: filter has valid parameters
// POST: Returns count >= 0
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := filterClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM member"+where, args...).Scan(&n)
	return n, err
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Member, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Member
	for rows.Next() {
		entity, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}
