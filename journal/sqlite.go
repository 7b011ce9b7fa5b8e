package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/rebalancer/backtest"
	"github.com/rustyeddy/rebalancer/market"
)

type SQLite struct {
	db *sql.DB
}

var _ Journal = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// RecordRun stores run and its value series in one transaction.
func (j *SQLite) RecordRun(ctx context.Context, run Run, values []backtest.ValuePoint) error {
	weights, err := json.Marshal(run.Weights)
	if err != nil {
		return fmt.Errorf("encode weights: %w", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, created, weights, frequency, start_date, end_date, initial_capital, final_value, return_pct, max_drawdown_pct, rebalances)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Created.UTC().Format(time.RFC3339Nano), string(weights), run.Frequency,
		run.Start.Format(market.DateFormat), run.End.Format(market.DateFormat),
		run.InitialCapital, run.FinalValue, run.ReturnPct, run.MaxDrawdownPct, run.Rebalances,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_values (run_id, date, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range values {
		if _, err := stmt.ExecContext(ctx, run.ID, v.Date.Format(market.DateFormat), v.Value); err != nil {
			return fmt.Errorf("insert value %s: %w", v.Date.Format(market.DateFormat), err)
		}
	}
	return tx.Commit()
}

const runColumns = `id, created, weights, frequency, start_date, end_date, initial_capital, final_value, return_pct, max_drawdown_pct, rebalances`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run                Run
		created, weights   string
		startDate, endDate string
	)
	err := s.Scan(
		&run.ID,
		&created,
		&weights,
		&run.Frequency,
		&startDate,
		&endDate,
		&run.InitialCapital,
		&run.FinalValue,
		&run.ReturnPct,
		&run.MaxDrawdownPct,
		&run.Rebalances,
	)
	if err != nil {
		return Run{}, err
	}

	if run.Created, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Run{}, fmt.Errorf("run %s created: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(weights), &run.Weights); err != nil {
		return Run{}, fmt.Errorf("run %s weights: %w", run.ID, err)
	}
	if run.Start, err = market.ParseDay(startDate); err != nil {
		return Run{}, fmt.Errorf("run %s start: %w", run.ID, err)
	}
	if run.End, err = market.ParseDay(endDate); err != nil {
		return Run{}, fmt.Errorf("run %s end: %w", run.ID, err)
	}
	return run, nil
}

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	return run, err
}

// ListRuns returns runs newest first. limit <= 0 returns all of them.
func (j *SQLite) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListValues returns the value series of a run in date order.
func (j *SQLite) ListValues(ctx context.Context, runID string) ([]backtest.ValuePoint, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT date, value
		FROM run_values
		WHERE run_id = ?
		ORDER BY date ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []backtest.ValuePoint
	for rows.Next() {
		var (
			date string
			v    backtest.ValuePoint
		)
		if err := rows.Scan(&date, &v.Value); err != nil {
			return nil, err
		}
		if v.Date, err = market.ParseDay(date); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
