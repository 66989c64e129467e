package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/agentsync/agentsync/internal/console"
	"github.com/agentsync/agentsync/internal/history"
)

var (
	historySince string
	historyMode  string
	historyLimit int
	historyStats bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past reconciliation runs",
	Long: `History lists the run journal, newest first. Every check and fix
appends one entry with its drift counts and duration. The journal is an
audit log; reconciliation itself never reads from it.`,
	Example: `  agent-sync history
  agent-sync history --since 7d
  agent-sync history --mode fix --limit 20
  agent-sync history --stats`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.HistoryDB
		if path == "" {
			path = defaultHistoryPath()
		}
		store, err := history.Open(path)
		if err != nil {
			return fmt.Errorf("open run journal: %w", err)
		}
		defer store.Close()

		if historyStats {
			return showHistoryStats(cmd, store)
		}

		opts := history.ListOpts{Mode: historyMode, Limit: historyLimit}
		if historySince != "" {
			d, err := parseDuration(historySince)
			if err != nil {
				return fmt.Errorf("invalid --since value %q: %w", historySince, err)
			}
			opts.Since = time.Now().Add(-d)
		}

		runs, err := store.ListRuns(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		}
		return console.WriteRuns(os.Stdout, runs)
	},
}

func showHistoryStats(cmd *cobra.Command, store history.Store) error {
	st, err := store.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("journal stats: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	t := console.NewTable(os.Stdout)
	t.Row("Total runs", strconv.Itoa(st.TotalRuns))
	t.Row("Runs with drift", strconv.Itoa(st.DriftedRuns))
	t.Row("Fix runs", strconv.Itoa(st.FixRuns))
	t.Row("Last 7 days", strconv.Itoa(st.Last7d))
	t.Row("Last 30 days", strconv.Itoa(st.Last30d))
	if st.TotalRuns > 0 {
		t.Row("First run", humanize.Time(st.Earliest))
		t.Row("Latest run", humanize.Time(st.Latest))
	}
	return t.Flush()
}

func init() {
	historyCmd.Flags().StringVar(&historySince, "since", "", "show runs within this duration (e.g., 24h, 7d)")
	historyCmd.Flags().StringVar(&historyMode, "mode", "", `filter by mode ("check" or "fix")`)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "maximum number of results")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "show journal summary statistics")
	rootCmd.AddCommand(historyCmd)
}

// parseDuration parses a duration string that supports d (days) on top
// of the units time.ParseDuration knows.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if strings.HasSuffix(s, "d") {
		numStr := s[:len(s)-1]
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", numStr)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
