// Package history persists analysis runs and their per-directory statistics in
// a SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/idelchi/imgtree/internal/dirstat"
)

// Store persists analysis history inside a SQLite database.
type Store struct {
	db *sql.DB
}

// RunInfo describes one recorded analysis run.
type RunInfo struct {
	ID          int64     `json:"id"`
	Root        string    `json:"root"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"` // Zero when the run did not finish.
	Directories int       `json:"directories"`
	Files       int64     `json:"files"`
	Images      int64     `json:"images"`
	Extensions  []string  `json:"extensions"`
}

// Open initializes (or reuses) a SQLite database at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        root TEXT NOT NULL,
        started_at INTEGER NOT NULL,
        finished_at INTEGER NOT NULL DEFAULT 0,
        files INTEGER NOT NULL DEFAULT 0,
        images INTEGER NOT NULL DEFAULT 0,
        extensions TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS directory_stats (
        run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
        seq INTEGER NOT NULL,
        path TEXT NOT NULL,
        count INTEGER NOT NULL,
        images INTEGER NOT NULL,
        errors INTEGER NOT NULL,
        sum_size INTEGER NOT NULL,
        max_size INTEGER NOT NULL,
        avg_size REAL NOT NULL,
        sum_width INTEGER NOT NULL,
        max_width INTEGER NOT NULL,
        avg_width REAL NOT NULL,
        sum_height INTEGER NOT NULL,
        max_height INTEGER NOT NULL,
        avg_height REAL NOT NULL,
        PRIMARY KEY (run_id, seq)
);
`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// Run records the statistics of one analysis run. It implements
// dirstat.Recorder.
type Run struct {
	store *Store
	id    int64

	mu  sync.Mutex
	seq int
}

// BeginRun registers a new run for root.
func (s *Store) BeginRun(ctx context.Context, root string, startedAt time.Time) (*Run, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (root, started_at) VALUES (?, ?)`, root, startedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read run id: %w", err)
	}

	return &Run{store: s, id: id}, nil
}

// ID returns the run identifier.
func (r *Run) ID() int64 {
	return r.id
}

// Record stores one directory statistic in emission order.
func (r *Run) Record(ctx context.Context, stat dirstat.DirectoryStatistic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.store.db.ExecContext(ctx, `
INSERT INTO directory_stats (
        run_id, seq, path, count, images, errors,
        sum_size, max_size, avg_size,
        sum_width, max_width, avg_width,
        sum_height, max_height, avg_height
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.id, r.seq, stat.Path, stat.Count, stat.Images, stat.Errors,
		stat.SumSize, stat.MaxSize, stat.AvgSize,
		stat.SumWidth, stat.MaxWidth, stat.AvgWidth,
		stat.SumHeight, stat.MaxHeight, stat.AvgHeight,
	)
	if err != nil {
		return fmt.Errorf("insert directory statistic: %w", err)
	}

	r.seq++

	return nil
}

// Finish stores the run totals and marks it finished.
func (r *Run) Finish(ctx context.Context, report *dirstat.Report, finishedAt time.Time) error {
	_, err := r.store.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, files = ?, images = ?, extensions = ? WHERE id = ?`,
		finishedAt.UnixNano(), report.Files, report.Images, strings.Join(report.Extensions, ","), r.id)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	return nil
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT r.id, r.root, r.started_at, r.finished_at, r.files, r.images, r.extensions,
       (SELECT COUNT(*) FROM directory_stats d WHERE d.run_id = r.id)
FROM runs r
ORDER BY r.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var (
			info       RunInfo
			started    int64
			finished   int64
			extensions string
		)
		if scanErr := rows.Scan(&info.ID, &info.Root, &started, &finished,
			&info.Files, &info.Images, &extensions, &info.Directories); scanErr != nil {
			return nil, fmt.Errorf("scan run: %w", scanErr)
		}

		info.StartedAt = time.Unix(0, started)
		if finished != 0 {
			info.FinishedAt = time.Unix(0, finished)
		}
		if extensions != "" {
			info.Extensions = strings.Split(extensions, ",")
		}

		runs = append(runs, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// Directories returns the statistics of a run in emission order.
func (s *Store) Directories(ctx context.Context, runID int64) ([]dirstat.DirectoryStatistic, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT path, count, images, errors,
       sum_size, max_size, avg_size,
       sum_width, max_width, avg_width,
       sum_height, max_height, avg_height
FROM directory_stats
WHERE run_id = ?
ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query directory statistics: %w", err)
	}
	defer rows.Close()

	var stats []dirstat.DirectoryStatistic
	for rows.Next() {
		var st dirstat.DirectoryStatistic
		if scanErr := rows.Scan(&st.Path, &st.Count, &st.Images, &st.Errors,
			&st.SumSize, &st.MaxSize, &st.AvgSize,
			&st.SumWidth, &st.MaxWidth, &st.AvgWidth,
			&st.SumHeight, &st.MaxHeight, &st.AvgHeight); scanErr != nil {
			return nil, fmt.Errorf("scan directory statistic: %w", scanErr)
		}

		stats = append(stats, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate directory statistics: %w", err)
	}

	return stats, nil
}
