package batch

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/SyedDaiam9101/batch-score-service/internal/scorer"
)

// Sink persists scored results
type Sink interface {
	Write(ctx context.Context, runID string, results []scorer.ScoredResult) error
	Close() error
}

// FileSink appends one "<basename>: <prediction>" line per result to a text file
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileSink opens path for appending, creating it and its directory if needed
func NewFileSink(path string) (*FileSink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file %s: %w", path, err)
	}
	return &FileSink{file: f}, nil
}

func (s *FileSink) Write(_ context.Context, _ string, results []scorer.ScoredResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := bufio.NewWriter(s.file)
	for _, r := range results {
		if _, err := w.WriteString(r.String() + "\n"); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush results: %w", err)
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// SQLiteSink stores results in a predictions table
type SQLiteSink struct {
	db *sql.DB
}

const createPredictions = `
CREATE TABLE IF NOT EXISTS predictions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id VARCHAR(36) NOT NULL,
    identifier TEXT NOT NULL,
    prediction REAL,
    line TEXT NOT NULL,
    created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_run ON predictions(run_id);`

// NewSQLiteSink opens (or creates) the database at path
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	if _, err := db.Exec(createPredictions); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create predictions table: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Write(ctx context.Context, runID string, results []scorer.ScoredResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO predictions (run_id, identifier, prediction, line, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range results {
		if _, err := stmt.ExecContext(ctx, runID, r.ID, r.Prediction, r.String(), now); err != nil {
			return fmt.Errorf("failed to insert result for %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Lines returns the stored lines of a run in insertion order
func (s *SQLiteSink) Lines(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT line FROM predictions WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

var (
	_ Sink = (*FileSink)(nil)
	_ Sink = (*SQLiteSink)(nil)
)
