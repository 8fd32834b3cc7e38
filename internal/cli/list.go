package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/grimoire-labs/grimoire/internal/state"
	"github.com/grimoire-labs/grimoire/internal/target"
)

var (
	listKind    string
	listTargets []string
	listScope   string
	listProject string
	listJSON    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed bundles",
	Long:  `List the bundles grimoire manages in each agent target directory.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listKind, "kind", "skill", "Bundle kind (skill, hook)")
	listCmd.Flags().StringSliceVar(&listTargets, "target", []string{"claude-code"}, "Agent targets to inspect")
	listCmd.Flags().StringVar(&listScope, "scope", "user", "Install scope (user, project)")
	listCmd.Flags().StringVar(&listProject, "project", "", "Project directory for project scope (defaults to the working directory)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry is one managed bundle for display.
type listEntry struct {
	Target   string `json:"target"`
	ID       string `json:"id"`
	Mode     string `json:"mode"`
	Revision string `json:"revision,omitempty"`
	Status   string `json:"status"`
}

func runList(cmd *cobra.Command, args []string) error {
	eng, err := newEngine(listKind)
	if err != nil {
		return err
	}

	targets, err := parseTargets(listTargets)
	if err != nil {
		return err
	}
	scope, project, err := resolveScope(listScope, listProject)
	if err != nil {
		return err
	}

	entries := make([]listEntry, 0)
	for _, name := range targets {
		tgt, _ := target.Resolve(string(name))
		root, err := tgt.Root(scope, eng.home, project, eng.kind)
		if err != nil {
			return err
		}

		doc, err := state.NewStore(root, buildVersion, eng.log).Load()
		if err != nil {
			return fmt.Errorf("reading install state for %s: %w", name, err)
		}

		for _, ent := range doc.ManagedEntities {
			status := "ok"
			if ent.Orphaned {
				status = "orphaned"
			}
			entries = append(entries, listEntry{
				Target:   string(name),
				ID:       ent.CompositeID,
				Mode:     string(ent.EffectiveMode),
				Revision: shortRevision(ent.SourceRevision),
				Status:   status,
			})
		}
	}

	if listJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No %ss installed.\n", eng.kind)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TARGET\tID\tMODE\tREVISION\tSTATUS")
	for _, e := range entries {
		revision := e.Revision
		if revision == "" {
			revision = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Target, e.ID, e.Mode, revision, e.Status)
	}
	return w.Flush()
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
