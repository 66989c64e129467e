package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// SQLiteStore implements Store using a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at dbPath. It auto-creates
// the parent directory (e.g. ~/.agent-sync/) and runs schema migrations
// to ensure the database is up to date.
func Open(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection for WAL mode simplicity.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// migrate runs schema migrations up to the current version.
func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}

	var ver int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&ver)
	if err == sql.ErrNoRows {
		ver = 0
	} else if err != nil {
		return fmt.Errorf("read version: %w", err)
	}

	if ver < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	return nil
}

func (s *SQLiteStore) migrateV1() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id        TEXT PRIMARY KEY,
			workspace TEXT NOT NULL,
			mode      TEXT NOT NULL,
			dry_run   INTEGER NOT NULL DEFAULT 0,
			tools     INTEGER NOT NULL DEFAULT 0,
			synced    INTEGER NOT NULL DEFAULT 0,
			missing   INTEGER NOT NULL DEFAULT 0,
			extra     INTEGER NOT NULL DEFAULT 0,
			mismatch  INTEGER NOT NULL DEFAULT 0,
			failed    INTEGER NOT NULL DEFAULT 0,
			applied   INTEGER NOT NULL DEFAULT 0,
			timestamp TEXT NOT NULL,
			duration  INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_runs_workspace ON sync_runs(workspace)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_runs_timestamp ON sync_runs(timestamp)`,
		`INSERT OR REPLACE INTO schema_version (version) VALUES (1)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate v1: %w", err)
		}
	}
	return nil
}

// RecordRun persists a single reconciliation run.
func (s *SQLiteStore) RecordRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, workspace, mode, dry_run, tools, synced, missing, extra, mismatch, failed, applied, timestamp, duration)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.Workspace,
		r.Mode,
		boolToInt(r.DryRun),
		r.Tools,
		r.Synced,
		r.Missing,
		r.Extra,
		r.Mismatch,
		r.Failed,
		r.Applied,
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		int64(r.Duration/time.Millisecond),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns runs matching the given filter options, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, opts ListOpts) ([]Run, error) {
	query := `SELECT id, workspace, mode, dry_run, tools, synced, missing, extra, mismatch, failed, applied, timestamp, duration
		FROM sync_runs WHERE 1=1`
	var args []any

	if !opts.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, opts.Since.UTC().Format(time.RFC3339Nano))
	}
	if opts.Workspace != "" {
		query += " AND workspace = ?"
		args = append(args, opts.Workspace)
	}
	if opts.Mode != "" {
		query += " AND mode = ?"
		args = append(args, opts.Mode)
	}
	query += " ORDER BY timestamp DESC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var dryRun int
		var ts string
		var durMS int64
		if err := rows.Scan(&r.ID, &r.Workspace, &r.Mode, &dryRun, &r.Tools, &r.Synced, &r.Missing, &r.Extra, &r.Mismatch, &r.Failed, &r.Applied, &ts, &durMS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.DryRun = dryRun != 0
		r.Duration = time.Duration(durMS) * time.Millisecond
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		r.Timestamp = t
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Stats returns summary statistics about recorded runs.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sync_runs").Scan(&st.TotalRuns); err != nil {
		return st, fmt.Errorf("count runs: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sync_runs WHERE missing + extra + mismatch > 0").Scan(&st.DriftedRuns); err != nil {
		return st, fmt.Errorf("count drifted runs: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sync_runs WHERE mode = 'fix'").Scan(&st.FixRuns); err != nil {
		return st, fmt.Errorf("count fix runs: %w", err)
	}

	if st.TotalRuns > 0 {
		var earliest, latest string
		if err := s.db.QueryRowContext(ctx,
			"SELECT MIN(timestamp), MAX(timestamp) FROM sync_runs").Scan(&earliest, &latest); err != nil {
			return st, fmt.Errorf("date range: %w", err)
		}
		st.Earliest, _ = time.Parse(time.RFC3339Nano, earliest)
		st.Latest, _ = time.Parse(time.RFC3339Nano, latest)
	}

	now := time.Now().UTC()
	for _, w := range []struct {
		dur time.Duration
		dst *int
	}{
		{7 * 24 * time.Hour, &st.Last7d},
		{30 * 24 * time.Hour, &st.Last30d},
	} {
		since := now.Add(-w.dur).Format(time.RFC3339Nano)
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sync_runs WHERE timestamp >= ?", since).Scan(w.dst); err != nil {
			return st, fmt.Errorf("count since %v: %w", w.dur, err)
		}
	}

	return st, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// boolToInt converts a bool to an integer for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
