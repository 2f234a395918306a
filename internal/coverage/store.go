package coverage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store persists coverage tables in SQLite. It implements Index; the
// context-free Index methods treat query failures as misses.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers anyway; a single connection also keeps
	// ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}

	// m is not closed: that would close the shared *sql.DB.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	log.Printf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

func (s *Store) Close() error {
	return s.db.Close()
}

const upsertCoverage = `
	INSERT INTO coverage (observed, cell_col, cell_row, percent) VALUES (?, ?, ?, ?)
	ON CONFLICT (observed, cell_col, cell_row) DO UPDATE SET percent = excluded.percent`

// Put stores one value, clamped to [0, 100].
func (s *Store) Put(ctx context.Context, date DateKey, key Key, pct float64) error {
	_, err := s.db.ExecContext(ctx, upsertCoverage, string(date), key.Col, key.Row, Clamp(pct))
	if err != nil {
		return fmt.Errorf("store coverage %s@%s: %w", key, date, err)
	}
	return nil
}

const upsertBaseline = `
	INSERT INTO baselines (observed, cell_col, cell_row, percent) VALUES (?, ?, ?, ?)
	ON CONFLICT (observed, cell_col, cell_row) DO UPDATE SET percent = excluded.percent`

// ImportFeed writes every observation of feed in one transaction, each with
// the baseline table it ships. A non-empty baseline stores the feed's
// BaselineTable as coverage under that date unless the feed already observes
// it. The count covers coverage values only.
func (s *Store) ImportFeed(ctx context.Context, feed Feed, baseline DateKey) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertCoverage)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	baseStmt, err := tx.PrepareContext(ctx, upsertBaseline)
	if err != nil {
		return 0, err
	}
	defer baseStmt.Close()

	n := 0
	putTable := func(date DateKey, t Table) error {
		for k, v := range t {
			if _, err := stmt.ExecContext(ctx, string(date), k.Col, k.Row, Clamp(v)); err != nil {
				return fmt.Errorf("store coverage %s@%s: %w", k, date, err)
			}
			n++
		}
		return nil
	}

	for _, date := range feed.Dates() {
		entry := feed[date]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO observations (observed, rgb_url, mask_url) VALUES (?, ?, ?)
			ON CONFLICT (observed) DO UPDATE SET rgb_url = excluded.rgb_url, mask_url = excluded.mask_url`,
			string(date), entry.RGB, entry.Mask)
		if err != nil {
			return 0, fmt.Errorf("store observation %s: %w", date, err)
		}
		if err := putTable(date, entry.Coverage); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM baselines WHERE observed = ?`, string(date)); err != nil {
			return 0, fmt.Errorf("clear baseline %s: %w", date, err)
		}
		for k, v := range entry.Baseline {
			if _, err := baseStmt.ExecContext(ctx, string(date), k.Col, k.Row, Clamp(v)); err != nil {
				return 0, fmt.Errorf("store baseline %s@%s: %w", k, date, err)
			}
		}
	}

	if baseline != "" {
		if _, observed := feed[baseline]; !observed {
			if err := putTable(baseline, feed.BaselineTable()); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// GetContext returns the stored value, whether it exists, and any query error.
func (s *Store) GetContext(ctx context.Context, key Key, date DateKey) (float64, bool, error) {
	var pct float64
	err := s.db.QueryRowContext(ctx,
		`SELECT percent FROM coverage WHERE observed = ? AND cell_col = ? AND cell_row = ?`,
		string(date), key.Col, key.Row,
	).Scan(&pct)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query coverage %s@%s: %w", key, date, err)
	}
	return pct, true, nil
}

func (s *Store) Get(key Key, date DateKey) (float64, bool) {
	v, ok, err := s.GetContext(context.Background(), key, date)
	if err != nil {
		return 0, false
	}
	return v, ok
}

func (s *Store) Lookup(key Key, date DateKey) float64 {
	return LookupOr(s, key, date, DefaultCoverage)
}

// BaselineContext reads key from the baseline table shipped with date.
func (s *Store) BaselineContext(ctx context.Context, key Key, date DateKey) (float64, bool, error) {
	var pct float64
	err := s.db.QueryRowContext(ctx,
		`SELECT percent FROM baselines WHERE observed = ? AND cell_col = ? AND cell_row = ?`,
		string(date), key.Col, key.Row,
	).Scan(&pct)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query baseline %s@%s: %w", key, date, err)
	}
	return pct, true, nil
}

func (s *Store) Baseline(key Key, date DateKey) (float64, bool) {
	v, ok, err := s.BaselineContext(context.Background(), key, date)
	if err != nil {
		return 0, false
	}
	return v, ok
}

func (s *Store) HasBaseline(date DateKey) bool {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM baselines WHERE observed = ?`, string(date)).Scan(&n)
	return err == nil && n > 0
}

// Table loads every cell observed at date.
func (s *Store) Table(ctx context.Context, date DateKey) (Table, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cell_col, cell_row, percent FROM coverage WHERE observed = ?`, string(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	t := make(Table)
	for rows.Next() {
		var k Key
		var pct float64
		if err := rows.Scan(&k.Col, &k.Row, &pct); err != nil {
			return nil, err
		}
		t[k] = pct
	}
	return t, rows.Err()
}

// Dates lists every date with at least one coverage value, ascending.
func (s *Store) Dates(ctx context.Context) ([]DateKey, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT observed FROM coverage ORDER BY observed`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []DateKey
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, DateKey(d))
	}
	return dates, rows.Err()
}

// Images returns the RGB and mask links recorded for an observation.
func (s *Store) Images(ctx context.Context, date DateKey) (rgb, mask string, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT rgb_url, mask_url FROM observations WHERE observed = ?`, string(date),
	).Scan(&rgb, &mask)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", fmt.Errorf("no observation %s", date)
	}
	return rgb, mask, err
}
