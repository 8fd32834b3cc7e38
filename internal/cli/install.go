package cli

import (
	"github.com/spf13/cobra"

	"github.com/grimoire-labs/grimoire/internal/executor"
	"github.com/grimoire-labs/grimoire/internal/state"
)

var (
	installKind    string
	installTargets []string
	installScope   string
	installProject string
	installCopy    bool
	installRefresh bool
	installJSON    bool
)

var installCmd = &cobra.Command{
	Use:   "install <bundle>...",
	Short: "Install bundles into agent targets",
	Long: `Install one or more bundles into agent target directories.

Bundles are named either bare ("code-review") or source-qualified
("acme/code-review"). A bare name must match exactly one catalog entry,
except that the official source wins a tie it is part of.

Installs are symlinks into the local mirror by default, so a catalog
update refreshes them in place. Use --copy for self-contained copies.

Example:
  grimoire install code-review
  grimoire install acme/reviewer --target cursor --copy
  grimoire install format-on-edit --kind hook`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installKind, "kind", "skill", "Bundle kind (skill, hook)")
	installCmd.Flags().StringSliceVar(&installTargets, "target", []string{"claude-code"}, "Agent targets to install into")
	installCmd.Flags().StringVar(&installScope, "scope", "user", "Install scope (user, project)")
	installCmd.Flags().StringVar(&installProject, "project", "", "Project directory for project scope (defaults to the working directory)")
	installCmd.Flags().BoolVar(&installCopy, "copy", false, "Copy bundles instead of symlinking")
	installCmd.Flags().BoolVar(&installRefresh, "refresh", false, "Force a source sync even when mirrors are fresh")
	installCmd.Flags().BoolVar(&installJSON, "json", false, "Output reports as JSON")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	eng, err := newEngine(installKind)
	if err != nil {
		return err
	}

	targets, err := parseTargets(installTargets)
	if err != nil {
		return err
	}
	scope, project, err := resolveScope(installScope, installProject)
	if err != nil {
		return err
	}
	selection, err := executor.ParseSelections(args)
	if err != nil {
		return err
	}

	mode := state.ModeSymlink
	if installCopy {
		mode = state.ModeCopy
	}

	reports, err := eng.exec.Execute(cmd.Context(), executor.Request{
		Operation:   executor.OpInstall,
		Targets:     targets,
		Scope:       scope,
		ProjectPath: project,
		Mode:        mode,
		Selection:   selection,
		Refresh:     installRefresh,
	})
	if err != nil {
		return err
	}
	return printReports(cmd.OutOrStdout(), reports, installJSON)
}
