package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"

	"orchestra/internal/adapters/http/perf"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Compile-time check that *sql.DB satisfies SQLDB.
var _ SQLDB = (*sql.DB)(nil)

// DefaultSlowQueryMs is the default threshold for slow query warnings.
const DefaultSlowQueryMs = 50

// TimedDB logs slow statements and records every statement's duration,
// labelled by verb and table, to a collector.
type TimedDB struct {
	db        *sql.DB
	collector *perf.Collector
	threshold float64
}

// Compile-time check that *TimedDB satisfies SQLDB.
var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps a *sql.DB with timing instrumentation.
// A non-positive slowMs falls back to DefaultSlowQueryMs.
// PRE: db is a valid database connection
// POST: Returns a TimedDB that logs slow queries and records to collector
func NewTimedDB(db *sql.DB, collector *perf.Collector, slowMs int) *TimedDB {
	if slowMs <= 0 {
		slowMs = DefaultSlowQueryMs
	}
	return &TimedDB{
		db:        db,
		collector: collector,
		threshold: float64(slowMs),
	}
}

// RawDB returns the underlying *sql.DB (needed for migrations and pool config).
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

// statementLabel reduces a query to its verb and first table, e.g.
// "SELECT member", so metric labels stay bounded no matter the arguments.
func statementLabel(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "unknown"
	}
	verb := strings.ToUpper(fields[0])
	var marker string
	switch verb {
	case "SELECT", "DELETE":
		marker = "FROM"
	case "INSERT":
		marker = "INTO"
	case "UPDATE":
		if len(fields) > 1 {
			return verb + " " + tableName(fields[1])
		}
		return verb
	default:
		return verb
	}
	for i := 1; i < len(fields)-1; i++ {
		if strings.EqualFold(fields[i], marker) {
			return verb + " " + tableName(fields[i+1])
		}
	}
	return verb
}

func tableName(field string) string {
	if i := strings.IndexAny(field, "( "); i >= 0 {
		field = field[:i]
	}
	return strings.ToLower(field)
}

func (t *TimedDB) logQuery(query string, start time.Time, err error) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	slow := durationMs >= t.threshold
	label := statementLabel(query)

	fields := []zap.Field{
		zap.String("statement", label),
		zap.Float64("duration_ms", durationMs),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	switch {
	case slow:
		zap.L().Warn("slow_query", fields...)
	case err != nil:
		zap.L().Debug("query_failed", fields...)
	default:
		zap.L().Debug("query", fields...)
	}

	t.collector.Record(perf.Entry{
		Kind:       perf.KindQuery,
		Path:       label,
		DurationMs: durationMs,
		Slow:       slow,
		Timestamp:  start,
	})
}

// ExecContext runs an exec statement and records its timing.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.db.ExecContext(ctx, query, args...)
	t.logQuery(query, start, err)
	return result, err
}

// QueryContext runs a query and records the time to the first row set.
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.logQuery(query, start, err)
	return rows, err
}

// QueryRowContext runs a single-row query. Errors surface on Scan, so none is logged here.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.logQuery(query, start, nil)
	return row
}

// BeginTx starts a transaction.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.logQuery("BEGIN", start, err)
	return tx, err
}

// Close closes the underlying database connection.
func (t *TimedDB) Close() error {
	return t.db.Close()
}

// Ping verifies the database connection.
func (t *TimedDB) Ping() error {
	return t.db.Ping()
}

// PingContext verifies the database connection; it backs the health check.
func (t *TimedDB) PingContext(ctx context.Context) error {
	return t.db.PingContext(ctx)
}
