package cli

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentsync/agentsync/internal/console"
	"github.com/agentsync/agentsync/internal/model"
)

var (
	checkTypes []string
	checkQuiet bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report configuration drift across tools",
	Long: `Check scans the canonical .agents directory and every tool's own
configuration files, then reports per-tool drift: entries missing from a
tool, extra entries a tool has that canonical does not, and entries
whose values differ.

Check never modifies any file. It exits 0 when everything is in sync,
1 when drift or per-tool failures were found, and 2 on fatal errors
such as a missing .agents directory.`,
	Example: `  agent-sync check
  agent-sync check --tool claude
  agent-sync check --type server --type command
  agent-sync check --quiet
  agent-sync check --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		started := time.Now()
		report, err := eng.Check(cmd.Context())
		if err != nil {
			return err
		}
		recordRun("check", false, report, model.FixReport{}, started)

		// Exit status reflects the full report, not the filtered view.
		drifted := report.HasDrift() || report.HasErrors()

		if len(checkTypes) > 0 {
			report = filterByCategory(report, checkTypes)
		}
		if checkQuiet {
			report.Items = nil
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else if err := console.WriteSyncReport(os.Stdout, report); err != nil {
			return err
		}

		if drifted {
			return ErrDrift
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringSliceVar(&checkTypes, "type", nil, "restrict reported items to categories (server, skill, command, agent)")
	checkCmd.Flags().BoolVarP(&checkQuiet, "quiet", "q", false, "print only the per-tool summary table")
	rootCmd.AddCommand(checkCmd)
}

// filterByCategory narrows the item list to the given categories. The
// summaries keep full counts; filtering is a display concern.
func filterByCategory(report model.SyncReport, types []string) model.SyncReport {
	want := make(map[model.Category]bool, len(types))
	for _, t := range types {
		want[model.Category(t)] = true
	}
	var items []model.SyncItem
	for _, it := range report.Items {
		if want[it.Category] {
			items = append(items, it)
		}
	}
	report.Items = items
	return report
}
