// Package store persists captured summary snapshots to SQLite so the
// dashboard keeps history beyond the current minute.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps SQLite access for summary snapshots.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            direction TEXT NOT NULL,
            minute_key TEXT NOT NULL,
            code TEXT NOT NULL,
            business_name TEXT,
            count INTEGER NOT NULL,
            percentage REAL NOT NULL,
            file_mtime TIMESTAMP,
            captured_at TIMESTAMP NOT NULL
        );`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_snapshots_key ON snapshots(direction, minute_key, code);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_captured ON snapshots(captured_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot is one per-code row captured from a summary file.
type Snapshot struct {
	ID           int64     `json:"id"`
	Direction    string    `json:"direction"`
	MinuteKey    string    `json:"minute_key"`
	Code         string    `json:"code"`
	BusinessName string    `json:"business_name"`
	Count        int       `json:"count"`
	Percentage   float64   `json:"percentage"`
	FileMtime    time.Time `json:"file_mtime"`
	CapturedAt   time.Time `json:"captured_at"`
}

// CodeTotal is a per-code sum over stored history.
type CodeTotal struct {
	Code         string `json:"code"`
	BusinessName string `json:"business_name"`
	Count        int64  `json:"count"`
}

// InsertSnapshot upserts the rows of one captured summary file. Re-capturing
// the same minute overwrites the previous rows, so capture is idempotent.
func (s *Store) InsertSnapshot(ctx context.Context, rows []Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, r := range rows {
		_, err := tx.ExecContext(ctx, `INSERT INTO snapshots(direction, minute_key, code, business_name, count, percentage, file_mtime, captured_at)
            VALUES(?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(direction, minute_key, code) DO UPDATE SET
                business_name=excluded.business_name, count=excluded.count,
                percentage=excluded.percentage, file_mtime=excluded.file_mtime,
                captured_at=excluded.captured_at`,
			r.Direction, r.MinuteKey, r.Code, r.BusinessName, r.Count, r.Percentage, r.FileMtime, r.CapturedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSnapshots returns the most recently captured rows, newest first.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, direction, minute_key, code, business_name, count, percentage, file_mtime, captured_at
        FROM snapshots ORDER BY captured_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var name sql.NullString
		var mtime sql.NullTime
		if err := rows.Scan(&snap.ID, &snap.Direction, &snap.MinuteKey, &snap.Code, &name, &snap.Count, &snap.Percentage, &mtime, &snap.CapturedAt); err != nil {
			return nil, err
		}
		if name.Valid {
			snap.BusinessName = name.String
		}
		if mtime.Valid {
			snap.FileMtime = mtime.Time
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// CodeTotals sums stored counts per code for snapshots captured since the
// given time, busiest code first.
func (s *Store) CodeTotals(ctx context.Context, since time.Time) ([]CodeTotal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, MAX(business_name), SUM(count)
        FROM snapshots WHERE captured_at >= ? GROUP BY code ORDER BY SUM(count) DESC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CodeTotal
	for rows.Next() {
		var ct CodeTotal
		var name sql.NullString
		if err := rows.Scan(&ct.Code, &name, &ct.Count); err != nil {
			return nil, err
		}
		if name.Valid {
			ct.BusinessName = name.String
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// Health returns err if the DB is not reachable.
func (s *Store) Health(ctx context.Context) error {
	row := s.db.QueryRowContext(ctx, `SELECT 1`)
	var v int
	if err := row.Scan(&v); err != nil {
		return fmt.Errorf("db health: %w", err)
	}
	return nil
}
