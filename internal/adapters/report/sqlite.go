package report

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/seaward-labs/echoline/internal/domain"
)

// Store persists reported bins in SQLite. It doubles as the queue the uplink
// drains: rows are keyed by a monotonically increasing id, so "everything
// after the last delivered row" is a single query.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("report store: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS report_rows (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			time        TIMESTAMP,
			longitude   DOUBLE,
			latitude    DOUBLE,
			transect    INTEGER,
			miles       DOUBLE,
			seabed      DOUBLE,
			nasc        DOUBLE,
			pct_samples DOUBLE
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("report store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Emit inserts the window's bins in one transaction.
func (s *Store) Emit(ctx context.Context, win *domain.ProcessedWindow) error {
	rows := Rows(win)
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: report store: %v", domain.ErrDelivery, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO report_rows
			(time, longitude, latitude, transect, miles, seabed, nasc, pct_samples)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: report store: %v", domain.ErrDelivery, err)
	}
	defer stmt.Close()

	for _, r := range rows {
		// NaN (no seabed, undefined NASC) is stored as NULL.
		_, err := stmt.ExecContext(ctx,
			r.Time.UTC(), nullable(r.Longitude), nullable(r.Latitude), r.Transect,
			r.Miles, nullable(r.Seabed), nullable(r.NASC), r.PCT)
		if err != nil {
			return fmt.Errorf("%w: report store: %v", domain.ErrDelivery, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: report store: %v", domain.ErrDelivery, err)
	}
	return nil
}

// StoredRow is a Row with its storage id.
type StoredRow struct {
	ID int64
	Row
}

// RowsSince returns up to limit rows with id greater than lastID, oldest
// first.
func (s *Store) RowsSince(ctx context.Context, lastID int64, limit int) ([]StoredRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, time, longitude, latitude, transect, miles, seabed, nasc, pct_samples
		FROM report_rows WHERE id > ? ORDER BY id LIMIT ?`, lastID, limit)
	if err != nil {
		return nil, fmt.Errorf("report store: %w", err)
	}
	defer rows.Close()

	var out []StoredRow
	for rows.Next() {
		var r StoredRow
		var ts time.Time
		var lon, lat, seabed, nasc sql.NullFloat64
		if err := rows.Scan(&r.ID, &ts, &lon, &lat,
			&r.Transect, &r.Miles, &seabed, &nasc, &r.PCT); err != nil {
			return nil, fmt.Errorf("report store: %w", err)
		}
		r.Time = ts
		r.Longitude = fromNullable(lon)
		r.Latitude = fromNullable(lat)
		r.Seabed = fromNullable(seabed)
		r.NASC = fromNullable(nasc)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
