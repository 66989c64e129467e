// Package history defines the storage interface for the run journal.
// The journal is an audit log only; reconciliation never reads it.
package history

import (
	"context"
	"time"
)

// Run is one recorded reconciliation run.
type Run struct {
	ID        string        `json:"id"`
	Workspace string        `json:"workspace"`
	Mode      string        `json:"mode"` // "check" or "fix"
	DryRun    bool          `json:"dry_run,omitempty"`
	Tools     int           `json:"tools"`
	Synced    int           `json:"synced"`
	Missing   int           `json:"missing"`
	Extra     int           `json:"extra"`
	Mismatch  int           `json:"mismatch"`
	Failed    int           `json:"failed"`
	Applied   int           `json:"applied"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// Drifted reports whether the run found any drift.
func (r Run) Drifted() bool {
	return r.Missing > 0 || r.Extra > 0 || r.Mismatch > 0
}

// Store is the persistence interface for the run journal.
type Store interface {
	// RecordRun persists a single reconciliation run.
	RecordRun(ctx context.Context, r Run) error

	// ListRuns returns runs matching the given filter options,
	// newest first.
	ListRuns(ctx context.Context, opts ListOpts) ([]Run, error)

	// Stats returns summary statistics about recorded runs.
	Stats(ctx context.Context) (Stats, error)

	// Close releases any resources held by the store.
	Close() error
}

// ListOpts controls filtering for ListRuns.
type ListOpts struct {
	Since     time.Time // Only runs after this time.
	Workspace string    // Filter by workspace path.
	Mode      string    // Filter by mode ("check" or "fix").
	Limit     int       // Maximum results; 0 means no limit.
}

// Stats holds summary statistics about recorded runs.
type Stats struct {
	TotalRuns   int       `json:"total_runs"`
	DriftedRuns int       `json:"drifted_runs"`
	FixRuns     int       `json:"fix_runs"`
	Earliest    time.Time `json:"earliest"`
	Latest      time.Time `json:"latest"`
	Last7d      int       `json:"last_7d"`
	Last30d     int       `json:"last_30d"`
}
