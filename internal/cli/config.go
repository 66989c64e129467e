package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentsync/agentsync/internal/config"
	"github.com/agentsync/agentsync/internal/console"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Show or modify configuration",
	Long: `View or change agent-sync configuration stored in ~/.agent-sync.toml.

With no arguments, shows all configuration settings.
With one argument, shows the value of that key.
With two arguments, sets the key to the given value.

Settings:
  enabled_tools   Comma-separated list of tools to sync (default: all)
  ignore_servers  Comma-separated MCP server names to leave untouched
  default_format  Default output format: "table" or "json"
  history_db      Path to the run journal SQLite database
  backup          Keep .bak copies when fix overwrites files`,
	Example: `  agent-sync config
  agent-sync config enabled_tools claude,codex
  agent-sync config ignore_servers internal-proxy
  agent-sync config default_format json
  agent-sync config backup true`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadFrom(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		switch len(args) {
		case 0:
			return showConfig(c)
		case 1:
			return getConfig(c, args[0])
		default:
			return setConfig(c, args[0], args[1])
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func showConfig(c *config.Config) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	}

	t := console.NewTable(os.Stdout, "KEY", "VALUE")
	for _, key := range config.ValidKeys() {
		val, _ := c.Get(key)
		if val == "" {
			val = "(not set)"
		}
		t.Row(key, val)
	}
	return t.Flush()
}

func getConfig(c *config.Config, key string) error {
	val, err := c.Get(key)
	if err != nil {
		return err
	}
	if val == "" {
		return nil
	}
	fmt.Println(val)
	return nil
}

func setConfig(c *config.Config, key, value string) error {
	if err := c.Set(key, value); err != nil {
		return err
	}
	if err := c.SaveTo(configPath); err != nil {
		return err
	}
	fmt.Printf("%s = %s\n", key, value)
	return nil
}
