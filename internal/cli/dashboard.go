package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentsync/agentsync/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive drift dashboard",
	Long: `Dashboard opens a full-screen terminal view of the sync report with
one tab per tool. From it you can rescan (r), apply fixes (f), or
preview fixes (d) without re-running the CLI.`,
	Example: `  agent-sync dashboard
  agent-sync dashboard -w ~/src/myproject`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		abs, err := filepath.Abs(workspace)
		if err != nil {
			return fmt.Errorf("resolve workspace: %w", err)
		}
		return dashboard.Run(abs)
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
