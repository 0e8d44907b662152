// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists a record of every conversion in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/deck-converter/pkg/types"
)

// DefaultLimit is the number of records Recent returns when limit <= 0.
const DefaultLimit = 20

// recordTimeout bounds a history write made on behalf of an observer.
const recordTimeout = 10 * time.Second

// Fixed width so that started_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the conversion history database.
type Store struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// Open opens or creates the history database at path, creating the parent
// directory and schema if needed.
func Open(path string, log logrus.FieldLogger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, log: log.WithField("component", "history")}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id TEXT PRIMARY KEY,
			direction TEXT NOT NULL,
			status TEXT NOT NULL,
			source TEXT,
			filename TEXT,
			method TEXT,
			error TEXT,
			attempts TEXT,
			input_bytes INTEGER,
			output_bytes INTEGER,
			started_at TEXT NOT NULL,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_started_at ON conversions(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_status ON conversions(status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Observe records result, logging rather than returning storage errors.
// The row is written even when the request that produced it was cancelled.
func (s *Store) Observe(ctx context.Context, result types.ConversionResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := s.Record(ctx, result.Record()); err != nil {
		s.log.WithError(err).WithField("id", result.ID).Error("Failed to record conversion.")
	}
}

// Record inserts or replaces rec.
func (s *Store) Record(ctx context.Context, rec types.ConversionRecord) error {
	attempts, err := json.Marshal(rec.Attempts)
	if err != nil {
		return fmt.Errorf("encoding attempts: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO conversions
			(id, direction, status, source, filename, method, error, attempts,
			 input_bytes, output_bytes, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Direction), string(rec.Status), rec.Source, rec.Filename,
		rec.Method, rec.Error, string(attempts), rec.InputBytes, rec.OutputBytes,
		rec.StartedAt.UTC().Format(timeLayout), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("inserting conversion %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]types.ConversionRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, direction, status, source, filename, method, error, attempts,
			input_bytes, output_bytes, started_at, duration_ms
		FROM conversions ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying conversions: %w", err)
	}
	defer rows.Close()

	var records []types.ConversionRecord
	for rows.Next() {
		var (
			rec                        types.ConversionRecord
			direction, status, started string
			attempts                   sql.NullString
			source, filename           sql.NullString
			method, errMsg             sql.NullString
			durationMS                 int64
		)
		if err := rows.Scan(&rec.ID, &direction, &status, &source, &filename, &method, &errMsg,
			&attempts, &rec.InputBytes, &rec.OutputBytes, &started, &durationMS); err != nil {
			return nil, fmt.Errorf("scanning conversion: %w", err)
		}

		rec.Direction = types.Direction(direction)
		rec.Status = types.ConversionStatus(status)
		rec.Source = source.String
		rec.Filename = filename.String
		rec.Method = method.String
		rec.Error = errMsg.String
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if rec.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parsing started_at of %s: %w", rec.ID, err)
		}
		if attempts.Valid && attempts.String != "" && attempts.String != "null" {
			if err := json.Unmarshal([]byte(attempts.String), &rec.Attempts); err != nil {
				return nil, fmt.Errorf("decoding attempts of %s: %w", rec.ID, err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Counts returns the number of recorded conversions per direction and
// status.
func (s *Store) Counts(ctx context.Context) (map[types.Direction]map[types.ConversionStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT direction, status, count(*) FROM conversions GROUP BY direction, status`)
	if err != nil {
		return nil, fmt.Errorf("counting conversions: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.Direction]map[types.ConversionStatus]int)
	for rows.Next() {
		var direction, status string
		var n int
		if err := rows.Scan(&direction, &status, &n); err != nil {
			return nil, fmt.Errorf("scanning counts: %w", err)
		}
		d := types.Direction(direction)
		if counts[d] == nil {
			counts[d] = make(map[types.ConversionStatus]int)
		}
		counts[d][types.ConversionStatus(status)] = n
	}
	return counts, rows.Err()
}
