// Package postgres stores reports in a PostgreSQL table using database/sql
// and the lib/pq driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/marine-pollution-reports/internal/domain"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq" // registers the "postgres" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS pollution_reports (
	id             BIGSERIAL PRIMARY KEY,
	latitude       DOUBLE PRECISION NOT NULL,
	longitude      DOUBLE PRECISION NOT NULL,
	pollution_type TEXT NOT NULL,
	severity       TEXT NOT NULL,
	description    TEXT NOT NULL,
	date_observed  TEXT NOT NULL,
	time_observed  TEXT,
	name           TEXT,
	email          TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const selectColumns = `id, latitude, longitude, pollution_type, severity, description,
	date_observed, time_observed, name, email, created_at`

// Store implements reports.Repository on a pollution_reports table.
type Store struct {
	db    *sql.DB
	clock clockwork.Clock
}

const (
	connectAttempts = 5
	initialBackoff  = 500 * time.Millisecond
	maxBackoff      = 5 * time.Second
)

// Open connects to dsn, waits for the database to accept connections, and
// creates the table if needed.
func Open(ctx context.Context, dsn string, clock clockwork.Clock) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db connection: %w", err)
	}

	if err := pingWithRetry(ctx, db.PingContext, connectAttempts, initialBackoff); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := New(db, clock)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize db schema: %w", err)
	}
	return s, nil
}

// pingWithRetry calls ping up to attempts times, doubling the wait between
// tries. It returns the last ping error, or ctx.Err() if ctx ends first.
func pingWithRetry(ctx context.Context, ping func(context.Context) error, attempts int, backoff time.Duration) error {
	var err error
	for i := range attempts {
		if err = ping(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		if !retry.SleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
	return err
}

// New wraps an existing connection pool. A nil clock uses real time.
func New(db *sql.DB, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{db: db, clock: clock}
}

// Migrate creates the reports table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Create(ctx context.Context, in domain.ReportInput) (domain.PollutionReport, error) {
	query := `
	INSERT INTO pollution_reports (
		latitude, longitude, pollution_type, severity, description,
		date_observed, time_observed, name, email, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING ` + selectColumns

	row := s.db.QueryRowContext(ctx, query,
		in.Latitude, in.Longitude, string(in.PollutionType), string(in.Severity), in.Description,
		in.DateObserved, nullString(in.TimeObserved), nullString(in.Name), nullString(in.Email),
		s.clock.Now().UTC(),
	)
	report, err := scanReport(row)
	if err != nil {
		return domain.PollutionReport{}, domain.NewStorageFault("create", err)
	}
	return report, nil
}

func (s *Store) Get(ctx context.Context, id int64) (domain.PollutionReport, error) {
	query := `SELECT ` + selectColumns + ` FROM pollution_reports WHERE id = $1`

	report, err := scanReport(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PollutionReport{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.PollutionReport{}, domain.NewStorageFault("get", err)
	}
	return report, nil
}

func (s *Store) List(ctx context.Context) ([]domain.PollutionReport, error) {
	query := `SELECT ` + selectColumns + ` FROM pollution_reports ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, domain.NewStorageFault("list", err)
	}
	defer rows.Close()

	reports := make([]domain.PollutionReport, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, domain.NewStorageFault("list", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageFault("list", err)
	}
	return reports, nil
}

// Update writes only the supplied columns. An empty patch returns the
// current row.
func (s *Store) Update(ctx context.Context, id int64, patch domain.ReportPatch) (domain.PollutionReport, error) {
	if patch.IsEmpty() {
		return s.Get(ctx, id)
	}

	query, args := buildUpdate(id, patch)
	report, err := scanReport(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PollutionReport{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.PollutionReport{}, domain.NewStorageFault("update", err)
	}
	return report, nil
}

func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pollution_reports WHERE id = $1`, id)
	if err != nil {
		return false, domain.NewStorageFault("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.NewStorageFault("delete", err)
	}
	return n > 0, nil
}

// buildUpdate renders an UPDATE for the supplied patch fields. Column names
// come from a fixed list, never from client input.
func buildUpdate(id int64, patch domain.ReportPatch) (string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}

	if patch.Latitude != nil {
		add("latitude", *patch.Latitude)
	}
	if patch.Longitude != nil {
		add("longitude", *patch.Longitude)
	}
	if patch.PollutionType != nil {
		add("pollution_type", string(*patch.PollutionType))
	}
	if patch.Severity != nil {
		add("severity", string(*patch.Severity))
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.DateObserved != nil {
		add("date_observed", *patch.DateObserved)
	}
	switch {
	case patch.ClearTimeObserved:
		add("time_observed", nil)
	case patch.TimeObserved != nil:
		add("time_observed", *patch.TimeObserved)
	}
	switch {
	case patch.ClearName:
		add("name", nil)
	case patch.Name != nil:
		add("name", *patch.Name)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE pollution_reports SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), selectColumns)
	return query, args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (domain.PollutionReport, error) {
	var (
		r                         domain.PollutionReport
		pollutionType, severity   string
		timeObserved, name, email sql.NullString
	)
	err := row.Scan(
		&r.ID, &r.Latitude, &r.Longitude, &pollutionType, &severity, &r.Description,
		&r.DateObserved, &timeObserved, &name, &email, &r.CreatedAt,
	)
	if err != nil {
		return domain.PollutionReport{}, err
	}

	r.PollutionType = domain.PollutionType(pollutionType)
	r.Severity = domain.Severity(severity)
	r.TimeObserved = stringPtr(timeObserved)
	r.Name = stringPtr(name)
	r.Email = stringPtr(email)
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
