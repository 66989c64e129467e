package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentsync/agentsync/internal/console"
	"github.com/agentsync/agentsync/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Show the canonical state",
	Long: `Scan reads the workspace's .agents directory and prints what it
defines: MCP servers, skills, commands, and agents, with their tool
gating. Nothing is compared or written; this is a view of the source of
truth alone.`,
	Example: `  agent-sync scan
  agent-sync scan --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		abs, err := filepath.Abs(workspace)
		if err != nil {
			return fmt.Errorf("resolve workspace: %w", err)
		}
		res, err := scan.New().Scan(abs)
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res.State)
		}

		st := res.State
		t := console.NewTable(os.Stdout, "CATEGORY", "NAME", "DETAIL")
		for _, s := range st.Servers {
			detail := string(s.Type)
			if s.URL != "" {
				detail += "  " + s.URL
			} else if s.Command != "" {
				detail += "  " + s.Command
			}
			if len(s.EnabledFor) > 0 {
				detail += fmt.Sprintf("  (enabled for %v)", s.EnabledFor)
			}
			t.Row("server", s.Name, detail)
		}
		for _, s := range st.Skills {
			t.Row("skill", s.Name, s.Description)
		}
		for _, c := range st.Commands {
			detail := c.Description
			if len(c.SyncTo) > 0 {
				detail += fmt.Sprintf("  (sync to %v)", c.SyncTo)
			}
			t.Row("command", c.Key(), detail)
		}
		for _, a := range st.Agents {
			t.Row("agent", a.Name, a.Description)
		}
		if err := t.Flush(); err != nil {
			return err
		}

		for _, w := range res.Warnings {
			fmt.Printf("warning: %s: %s\n", w.Source, w.Message)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
