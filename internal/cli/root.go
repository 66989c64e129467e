// Package cli defines the cobra command tree for the agent-sync CLI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agentsync/agentsync/internal/config"
	"github.com/agentsync/agentsync/internal/history"
	"github.com/agentsync/agentsync/internal/model"
	"github.com/agentsync/agentsync/internal/sync"
	"github.com/agentsync/agentsync/internal/tool"
)

// ErrDrift is returned by check when drift or per-tool failures were
// found. main translates it into exit code 1 without printing it.
var ErrDrift = errors.New("configuration drift detected")

var (
	workspace  string
	jsonOutput bool
	onlyTools  []string

	cfg *config.Config
)

// configPath is the path to the config file, settable for testing.
var configPath = config.Path()

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "agent-sync.db"
	}
	return filepath.Join(home, ".agent-sync", "history.db")
}

// rootCmd is the top-level agent-sync command.
var rootCmd = &cobra.Command{
	Use:   "agent-sync",
	Short: "Keep AI tool configurations in sync from one canonical source",
	Long: `agent-sync reconciles the configuration of AI developer tools (Claude
Code, Codex, Copilot, Cursor) against a single canonical source of truth
in the workspace's .agents/ directory.

check reads the canonical state and every tool's files and reports what
is missing, extra, or different. fix converges each drifted tool toward
canonical while preserving tool-specific settings outside the managed
sections. Nothing is cached between runs; every run re-reads disk.`,
	Example: `  # Report drift across all tools
  agent-sync check

  # Preview then apply fixes
  agent-sync fix --dry-run
  agent-sync fix --backup

  # Restrict to specific tools
  agent-sync check --tool claude --tool codex

  # Live view
  agent-sync dashboard`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		c, err := config.LoadFrom(configPath)
		if err != nil {
			c = &config.Config{}
		}
		cfg = c
		if cfg.DefaultFormat == "json" && !cmd.Flags().Changed("json") {
			jsonOutput = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "workspace root containing the .agents directory")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringSliceVar(&onlyTools, "tool", nil, "restrict to specific tools (repeatable)")
}

// selectedAdapters resolves the adapter set from --tool flags and the
// enabled_tools config, in that precedence order.
func selectedAdapters() ([]tool.Adapter, error) {
	names := onlyTools
	if len(names) == 0 {
		names = cfg.EnabledTools
	}
	if len(names) == 0 {
		return tool.All(), nil
	}
	var out []tool.Adapter
	for _, name := range names {
		a := tool.Get(name)
		if a == nil {
			return nil, fmt.Errorf("unknown tool %q (available: %v)", name, tool.Names())
		}
		out = append(out, a)
	}
	return out, nil
}

// newEngine builds a configured engine for the current invocation.
func newEngine() (*sync.Engine, error) {
	adapters, err := selectedAdapters()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(workspace)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}
	eng := sync.New(abs, adapters)
	eng.IgnoreServers(cfg.IgnoreServers)
	return eng, nil
}

// recordRun appends a run to the journal. Journal failures are reported
// to stderr but never fail the command; the journal is an audit log.
func recordRun(mode string, dryRun bool, report model.SyncReport, fixes model.FixReport, started time.Time) {
	path := cfg.HistoryDB
	if path == "" {
		path = defaultHistoryPath()
	}
	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: run journal unavailable: %v\n", err)
		return
	}
	defer store.Close()

	run := history.Run{
		ID:        uuid.NewString(),
		Workspace: report.Workspace,
		Mode:      mode,
		DryRun:    dryRun,
		Tools:     len(report.Summaries),
		Applied:   fixes.AppliedCount(),
		Timestamp: started,
		Duration:  time.Since(started),
	}
	for _, s := range report.Summaries {
		run.Synced += s.Synced
		run.Missing += s.Missing
		run.Extra += s.Extra
		run.Mismatch += s.Mismatch
		if s.Failed {
			run.Failed++
		}
	}
	if err := store.RecordRun(context.Background(), run); err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording run: %v\n", err)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
