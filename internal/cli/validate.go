package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentsync/agentsync/internal/model"
	"github.com/agentsync/agentsync/internal/scan"
	"github.com/agentsync/agentsync/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Lint the canonical .agents directory",
	Long: `Validate scans the canonical source and reports authoring problems:
malformed names, missing descriptions, empty bodies, references to
unknown tools. Findings are warnings; validate only exits non-zero when
the canonical source itself cannot be read.`,
	Example: `  agent-sync validate
  agent-sync validate --json`,
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

		warnings := append([]model.Warning{}, res.Warnings...)
		warnings = append(warnings, validate.State(res.State)...)

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(warnings)
		}

		if len(warnings) == 0 {
			fmt.Println("Canonical source looks good.")
			return nil
		}
		for _, w := range warnings {
			fmt.Printf("warning: %s: %s\n", w.Source, w.Message)
		}
		fmt.Printf("\n%d finding(s).\n", len(warnings))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
