package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grimoire-labs/grimoire/internal/config"
)

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write grimoire settings",
	Long: `Read and write settings stored in ` + config.FilePath() + `.

Keys:
  log_level     Log verbosity (debug, info, warn, error)
  git_timeout   Per-git-command timeout (e.g. 2m)
  sync_max_age  Mirror freshness window before re-syncing (e.g. 168h)
  catalog_repo  URL of the official bundle source`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		value := config.Get(args[0])
		if value == "" {
			return fmt.Errorf("key %q is not set", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		if err := config.Set(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
		return nil
	},
}
