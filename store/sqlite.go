package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/rebalancer/market"
)

// ErrNotFound is returned when the store has no bars for an asset.
var ErrNotFound = errors.New("store: no bars for asset")

// SQLite keeps daily bars keyed by (asset, date).
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// Upsert writes bars for asset. A bar for a date already stored replaces
// the old one.
func (s *SQLite) Upsert(ctx context.Context, asset string, bars []market.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bars (asset, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(asset, date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx,
			asset, market.Day(b.Date).Format(market.DateFormat),
			b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			return fmt.Errorf("upsert %s %s: %w", asset, b.Date.Format(market.DateFormat), err)
		}
	}
	return tx.Commit()
}

// Series returns the stored bars of asset within [from, to], ascending.
// Zero bounds are open.
func (s *SQLite) Series(ctx context.Context, asset string, from, to time.Time) (market.Series, error) {
	lo, hi := "0000-01-01", "9999-12-31"
	if !from.IsZero() {
		lo = market.Day(from).Format(market.DateFormat)
	}
	if !to.IsZero() {
		hi = market.Day(to).Format(market.DateFormat)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, volume
		FROM bars
		WHERE asset = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`, asset, lo, hi)
	if err != nil {
		return market.Series{}, err
	}
	defer rows.Close()

	out := market.Series{Asset: asset}
	for rows.Next() {
		var (
			date string
			b    market.Bar
		)
		if err := rows.Scan(&date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return market.Series{}, err
		}
		if b.Date, err = market.ParseDay(date); err != nil {
			return market.Series{}, fmt.Errorf("bad date %q for %s: %w", date, asset, err)
		}
		out.Bars = append(out.Bars, b)
	}
	if err := rows.Err(); err != nil {
		return market.Series{}, err
	}
	return out, nil
}

// LastDate returns the most recent stored date for asset, or ErrNotFound.
func (s *SQLite) LastDate(ctx context.Context, asset string) (time.Time, error) {
	var last sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(date) FROM bars WHERE asset = ?`, asset).Scan(&last)
	if err != nil {
		return time.Time{}, err
	}
	if !last.Valid {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNotFound, asset)
	}
	return market.ParseDay(last.String)
}

// Assets lists the assets with at least one stored bar.
func (s *SQLite) Assets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT asset FROM bars ORDER BY asset`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
