package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentsync/agentsync/internal/console"
	"github.com/agentsync/agentsync/internal/sync"
)

var (
	fixDryRun bool
	fixBackup bool
)

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Converge drifted tools toward canonical state",
	Long: `Fix runs a full check and then rewrites the configuration of every
drifted tool so it matches canonical. Tool-specific settings outside the
managed sections are preserved; files are replaced atomically via a
staged temp file and rename.

With --dry-run the planned actions are printed and nothing is written.
With --backup every overwritten file keeps a .bak copy. A failure fixing
one tool never blocks the others.`,
	Example: `  agent-sync fix
  agent-sync fix --dry-run
  agent-sync fix --backup
  agent-sync fix --tool codex`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		opts := sync.FixOptions{DryRun: fixDryRun, Backup: fixBackup || cfg.Backup}

		started := time.Now()
		report, fixes, err := eng.Fix(cmd.Context(), opts)
		if err != nil {
			return err
		}
		recordRun("fix", opts.DryRun, report, fixes, started)

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Check any `json:"check"`
				Fix   any `json:"fix"`
			}{report, fixes})
		}

		if err := console.WriteSyncReport(os.Stdout, report); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout)
		if err := console.WriteFixReport(os.Stdout, fixes); err != nil {
			return err
		}

		if !fixes.Success() {
			return fmt.Errorf("some fixes failed")
		}
		return nil
	},
}

func init() {
	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "show planned actions without writing")
	fixCmd.Flags().BoolVar(&fixBackup, "backup", false, "keep .bak copies of overwritten files")
	rootCmd.AddCommand(fixCmd)
}
