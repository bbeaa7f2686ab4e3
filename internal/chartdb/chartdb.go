// Package chartdb persists natal charts in a local SQLite database.
//
// Charts are stored with a ULID primary key, the birth instant and place,
// and the computed body and house positions serialized as JSON. The schema
// is versioned through PRAGMA user_version and migrated on open.
package chartdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// ErrNotFound reports a chart id with no stored chart.
var ErrNotFound = errors.New("chartdb: chart not found")

// BodyEntry is one computed body position stored with a chart.
type BodyEntry struct {
	Body int     `json:"body"`
	Name string  `json:"name"`
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
	Dist float64 `json:"dist"`
	Slon float64 `json:"slon"`
}

// Angles holds the chart axes.
type Angles struct {
	Asc  float64 `json:"asc"`
	MC   float64 `json:"mc"`
	ARMC float64 `json:"armc"`
	Vtx  float64 `json:"vertex"`
}

// Chart is a stored natal chart.
type Chart struct {
	ID        string
	Name      string
	BirthUTC  time.Time
	JDUT      float64
	Lat       float64
	Lon       float64
	AltM      float64
	HouseSys  string
	Zodiac    string
	Bodies    []BodyEntry
	Cusps     []float64
	Angles    Angles
	CreatedAt time.Time
}

// Store is a chart store backed by SQLite. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

const schemaVersion = 1

// Open opens (creating if necessary) the chart database at path and runs
// any pending migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open chart db: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("chart db opened", "path", path, "schema_version", schemaVersion)
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version >= schemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	if version < 1 {
		if _, err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS charts (
				id         TEXT PRIMARY KEY,
				name       TEXT NOT NULL,
				birth_utc  TEXT NOT NULL,
				jd_ut      REAL NOT NULL,
				lat        REAL NOT NULL,
				lon        REAL NOT NULL,
				alt_m      REAL NOT NULL DEFAULT 0,
				house_sys  TEXT NOT NULL,
				zodiac     TEXT NOT NULL,
				bodies     TEXT NOT NULL,
				cusps      TEXT NOT NULL,
				angles     TEXT NOT NULL,
				created_at TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_charts_created_at ON charts(created_at DESC);
		`); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return tx.Commit()
}

// Save stores a chart and returns its assigned ULID. The chart's ID and
// CreatedAt fields are set by the store.
func (s *Store) Save(ctx context.Context, ch *Chart) (string, error) {
	ch.ID = ulid.Make().String()
	ch.CreatedAt = time.Now().UTC()

	bodies, err := json.Marshal(ch.Bodies)
	if err != nil {
		return "", fmt.Errorf("marshal bodies: %w", err)
	}
	cusps, err := json.Marshal(ch.Cusps)
	if err != nil {
		return "", fmt.Errorf("marshal cusps: %w", err)
	}
	angles, err := json.Marshal(ch.Angles)
	if err != nil {
		return "", fmt.Errorf("marshal angles: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO charts (id, name, birth_utc, jd_ut, lat, lon, alt_m,
			house_sys, zodiac, bodies, cusps, angles, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ch.ID, ch.Name, ch.BirthUTC.UTC().Format(time.RFC3339Nano), ch.JDUT,
		ch.Lat, ch.Lon, ch.AltM, ch.HouseSys, ch.Zodiac,
		string(bodies), string(cusps), string(angles),
		ch.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert chart: %w", err)
	}

	s.logger.Info("chart saved", "chart_id", ch.ID, "name", ch.Name)
	return ch.ID, nil
}

// Get returns the chart with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Chart, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, birth_utc, jd_ut, lat, lon, alt_m,
			house_sys, zodiac, bodies, cusps, angles, created_at
		FROM charts WHERE id = ?`, id)

	ch, err := scanChart(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ch, err
}

// List returns up to limit charts ordered newest-first, skipping offset.
func (s *Store) List(ctx context.Context, limit, offset int) ([]*Chart, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, birth_utc, jd_ut, lat, lon, alt_m,
			house_sys, zodiac, bodies, cusps, angles, created_at
		FROM charts ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list charts: %w", err)
	}
	defer rows.Close()

	var charts []*Chart
	for rows.Next() {
		ch, err := scanChart(rows)
		if err != nil {
			return nil, err
		}
		charts = append(charts, ch)
	}
	return charts, rows.Err()
}

// Delete removes the chart with the given id. Deleting an absent chart
// returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM charts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete chart: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored charts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM charts").Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChart(row rowScanner) (*Chart, error) {
	var ch Chart
	var birth, created, bodies, cusps, angles string

	err := row.Scan(&ch.ID, &ch.Name, &birth, &ch.JDUT, &ch.Lat, &ch.Lon,
		&ch.AltM, &ch.HouseSys, &ch.Zodiac, &bodies, &cusps, &angles, &created)
	if err != nil {
		return nil, err
	}

	if ch.BirthUTC, err = time.Parse(time.RFC3339Nano, birth); err != nil {
		return nil, fmt.Errorf("parse birth_utc: %w", err)
	}
	if ch.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(bodies), &ch.Bodies); err != nil {
		return nil, fmt.Errorf("unmarshal bodies: %w", err)
	}
	if err := json.Unmarshal([]byte(cusps), &ch.Cusps); err != nil {
		return nil, fmt.Errorf("unmarshal cusps: %w", err)
	}
	if err := json.Unmarshal([]byte(angles), &ch.Angles); err != nil {
		return nil, fmt.Errorf("unmarshal angles: %w", err)
	}
	return &ch, nil
}
