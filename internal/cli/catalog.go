package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	catalogKind       string
	catalogListSource string
	catalogListJSON   bool
)

func init() {
	catalogCmd.PersistentFlags().StringVar(&catalogKind, "kind", "skill", "Bundle kind (skill, hook)")
	catalogListCmd.Flags().StringVar(&catalogListSource, "source", "", "Only show bundles from this source")
	catalogListCmd.Flags().BoolVar(&catalogListJSON, "json", false, "Output the full catalog as JSON")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogUpdateCmd)
	catalogCmd.AddCommand(catalogStatusCmd)
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse and refresh the bundle catalog",
	Long: `Browse the catalog of bundles offered by the registered sources.

The catalog is rebuilt from local mirrors; sources are only contacted
when their mirror is older than the freshness window or on an explicit
update. When no source is reachable the last good catalog is served
from cache, or from the built-in snapshot as a last resort.`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available bundles",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(catalogKind)
		if err != nil {
			return err
		}

		cat := eng.builder.Build(cmd.Context(), false)
		if cat.Stale {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  catalog served from %s: %s\n", cat.Origin, cat.StaleReason)
		}

		if catalogListJSON {
			data, err := json.MarshalIndent(cat, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		if len(cat.Entries) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No %ss available.\n", eng.kind)
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tVERSION\tCATEGORY\tDESCRIPTION")
		for _, e := range cat.Entries {
			if catalogListSource != "" && e.SourceID != catalogListSource {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.CompositeID, orDash(e.Version), orDash(e.Category), truncate(e.Description, 60))
		}
		return w.Flush()
	},
}

var catalogUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Sync all sources and rebuild the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(catalogKind)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Syncing sources...")
		cat := eng.builder.Build(cmd.Context(), true)

		for _, src := range cat.Sources {
			if src.Synced {
				fmt.Fprintf(cmd.OutOrStdout(), "  ✓ %s (%s)\n", src.ID, shortRevision(src.Revision))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "  ✗ %s: %s\n", src.ID, src.Error)
			}
			for _, d := range src.Diagnostics {
				fmt.Fprintf(cmd.OutOrStdout(), "    ⚠️  %s\n", d)
			}
		}

		if cat.Stale {
			return fmt.Errorf("catalog update failed: %s", cat.StaleReason)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Catalog updated: %d %ss from %d sources.\n", len(cat.Entries), eng.kind, len(cat.Sources))
		return nil
	},
}

var catalogStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show source sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(catalogKind)
		if err != nil {
			return err
		}

		sources, err := eng.registry.Load()
		if err != nil {
			return fmt.Errorf("loading sources: %w", err)
		}

		if len(sources) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sources registered.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tLAST SYNC\tREVISION\tERROR")
		for _, s := range sources {
			lastSync := "never"
			if s.LastSyncAt != nil {
				lastSync = fmt.Sprintf("%s ago", time.Since(*s.LastSyncAt).Truncate(time.Minute))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, lastSync, orDash(shortRevision(s.Revision)), orDash(s.LastError))
		}
		return w.Flush()
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
