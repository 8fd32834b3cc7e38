package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grimoire-labs/grimoire/internal/executor"
	"github.com/grimoire-labs/grimoire/internal/state"
)

var (
	syncKind    string
	syncTargets []string
	syncScope   string
	syncProject string
	syncCopy    bool
	syncRefresh bool
	syncYes     bool
	syncJSON    bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [bundle]...",
	Short: "Make targets match a selection exactly",
	Long: `Install the named bundles and remove every other managed bundle, so
the target ends up with exactly the given selection. Bundles already
present are left alone. An empty selection removes everything grimoire
manages in the target.

Example:
  grimoire sync code-review commit-messages
  grimoire sync acme/reviewer --target cursor --copy`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncKind, "kind", "skill", "Bundle kind (skill, hook)")
	syncCmd.Flags().StringSliceVar(&syncTargets, "target", []string{"claude-code"}, "Agent targets to sync")
	syncCmd.Flags().StringVar(&syncScope, "scope", "user", "Install scope (user, project)")
	syncCmd.Flags().StringVar(&syncProject, "project", "", "Project directory for project scope (defaults to the working directory)")
	syncCmd.Flags().BoolVar(&syncCopy, "copy", false, "Copy bundles instead of symlinking")
	syncCmd.Flags().BoolVar(&syncRefresh, "refresh", false, "Force a source sync even when mirrors are fresh")
	syncCmd.Flags().BoolVarP(&syncYes, "yes", "y", false, "Skip confirmation prompt")
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "Output reports as JSON")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	eng, err := newEngine(syncKind)
	if err != nil {
		return err
	}

	targets, err := parseTargets(syncTargets)
	if err != nil {
		return err
	}
	scope, project, err := resolveScope(syncScope, syncProject)
	if err != nil {
		return err
	}
	selection, err := executor.ParseSelections(args)
	if err != nil {
		return err
	}

	if len(selection) == 0 && !syncYes {
		question := fmt.Sprintf("Sync with an empty selection removes every managed %s from %d target(s). Proceed?", eng.kind, len(targets))
		if !confirm(cmd.OutOrStdout(), question) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	mode := state.ModeSymlink
	if syncCopy {
		mode = state.ModeCopy
	}

	reports, err := eng.exec.Execute(cmd.Context(), executor.Request{
		Operation:   executor.OpSync,
		Targets:     targets,
		Scope:       scope,
		ProjectPath: project,
		Mode:        mode,
		Selection:   selection,
		Refresh:     syncRefresh,
	})
	if err != nil {
		return err
	}
	return printReports(cmd.OutOrStdout(), reports, syncJSON)
}
