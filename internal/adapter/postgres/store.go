// Package postgres stores time series documents as JSONB rows in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// DefaultTable is used when the definition does not name one.
const DefaultTable = "timeseries"

const pingTimeout = 5 * time.Second

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Store reads and writes one table keyed by storage key.
type Store struct {
	name  string
	table string
	db    *sql.DB
}

// New opens a connection pool for dsn, verifies it, and creates the table if absent.
func New(ctx context.Context, name, dsn, table string) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("postgres %s: invalid table name %q", name, table)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres %s: open: %w", name, err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres %s: ping: %w", name, err)
	}

	s := &Store{name: name, table: table, db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Name() string { return s.name }
func (s *Store) Type() string { return "Postgres" }

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, createTableSQL(s.table))
	if err != nil {
		return fmt.Errorf("postgres %s: create table %s: %w", s.name, s.table, err)
	}
	return nil
}

// WriteTimeSeries upserts every record in one transaction.
func (s *Store) WriteTimeSeries(ctx context.Context, series []*domain.TimeSeries) error {
	if len(series) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres %s: begin: %w", s.name, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertSQL(s.table))
	if err != nil {
		return fmt.Errorf("postgres %s: prepare: %w", s.name, err)
	}
	defer stmt.Close()

	for _, ts := range series {
		data, err := domain.MarshalTimeSeries(ts)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, domain.StorageKey(ts), ts.ID.String(), string(data)); err != nil {
			return fmt.Errorf("postgres %s: write %s: %w", s.name, ts.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres %s: commit: %w", s.name, err)
	}
	return nil
}

// ReadTimeSeries loads the table and filters in process. Identifier patterns support
// alias and quoted locations that do not translate to SQL LIKE.
func (s *Store) ReadTimeSeries(ctx context.Context, pattern string, period domain.Period) ([]*domain.TimeSeries, error) {
	rows, err := s.db.QueryContext(ctx, selectSQL(s.table))
	if err != nil {
		return nil, fmt.Errorf("postgres %s: query: %w", s.name, err)
	}
	defer rows.Close()

	var all []*domain.TimeSeries
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("postgres %s: scan: %w", s.name, err)
		}
		ts, err := domain.UnmarshalTimeSeries(doc)
		if err != nil {
			return nil, fmt.Errorf("postgres %s: %w", s.name, err)
		}
		all = append(all, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres %s: rows: %w", s.name, err)
	}
	return domain.FilterSeries(all, pattern, period), nil
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key        TEXT PRIMARY KEY,
	tsid       TEXT NOT NULL,
	doc        JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, table)
}

func upsertSQL(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (key, tsid, doc, updated_at) VALUES ($1, $2, $3::jsonb, now())
ON CONFLICT (key) DO UPDATE SET tsid = EXCLUDED.tsid, doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`, table)
}

func selectSQL(table string) string {
	return fmt.Sprintf(`SELECT doc FROM %s ORDER BY key`, table)
}
