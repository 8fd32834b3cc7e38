package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grimoire-labs/grimoire/internal/executor"
)

var (
	uninstallKind    string
	uninstallTargets []string
	uninstallScope   string
	uninstallProject string
	uninstallForce   bool
	uninstallYes     bool
	uninstallJSON    bool
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall [bundle]...",
	Short: "Remove installed bundles",
	Long: `Remove managed bundles from agent target directories.

Without arguments every managed bundle is removed; files grimoire did
not install stay untouched. --force instead deletes the whole install
directory, including anything foreign in it.

Example:
  grimoire uninstall code-review
  grimoire uninstall --target cursor
  grimoire uninstall --force`,
	RunE: runUninstall,
}

func init() {
	uninstallCmd.Flags().StringVar(&uninstallKind, "kind", "skill", "Bundle kind (skill, hook)")
	uninstallCmd.Flags().StringSliceVar(&uninstallTargets, "target", []string{"claude-code"}, "Agent targets to remove from")
	uninstallCmd.Flags().StringVar(&uninstallScope, "scope", "user", "Install scope (user, project)")
	uninstallCmd.Flags().StringVar(&uninstallProject, "project", "", "Project directory for project scope (defaults to the working directory)")
	uninstallCmd.Flags().BoolVar(&uninstallForce, "force", false, "Delete the entire install directory")
	uninstallCmd.Flags().BoolVarP(&uninstallYes, "yes", "y", false, "Skip confirmation prompt")
	uninstallCmd.Flags().BoolVar(&uninstallJSON, "json", false, "Output reports as JSON")
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	eng, err := newEngine(uninstallKind)
	if err != nil {
		return err
	}

	targets, err := parseTargets(uninstallTargets)
	if err != nil {
		return err
	}
	scope, project, err := resolveScope(uninstallScope, uninstallProject)
	if err != nil {
		return err
	}
	selection, err := executor.ParseSelections(args)
	if err != nil {
		return err
	}

	if len(selection) == 0 && !uninstallYes {
		var question string
		if uninstallForce {
			question = fmt.Sprintf("Delete the entire %s install directory on %d target(s)?", eng.kind, len(targets))
		} else {
			question = fmt.Sprintf("Remove every managed %s from %d target(s)?", eng.kind, len(targets))
		}
		if !confirm(cmd.OutOrStdout(), question) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	reports, err := eng.exec.Execute(cmd.Context(), executor.Request{
		Operation:   executor.OpUninstall,
		Targets:     targets,
		Scope:       scope,
		ProjectPath: project,
		Selection:   selection,
		Force:       uninstallForce,
	})
	if err != nil {
		return err
	}
	return printReports(cmd.OutOrStdout(), reports, uninstallJSON)
}
