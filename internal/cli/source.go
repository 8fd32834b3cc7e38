package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/grimoire-labs/grimoire/internal/branding"
	"github.com/grimoire-labs/grimoire/internal/source"
)

var (
	sourceKind     string
	sourceAddRoot  string
	sourceListJSON bool
)

func init() {
	sourceCmd.PersistentFlags().StringVar(&sourceKind, "kind", "skill", "Bundle kind (skill, hook)")
	sourceAddCmd.Flags().StringVar(&sourceAddRoot, "root", "/", "Repository subtree holding the bundles")
	sourceListCmd.Flags().BoolVar(&sourceListJSON, "json", false, "Output in JSON format")

	sourceCmd.AddCommand(sourceAddCmd)
	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceRemoveCmd)
	sourceCmd.AddCommand(sourceSetTokenCmd)
	rootCmd.AddCommand(sourceCmd)
}

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage bundle sources",
	Long: `Manage the git repositories grimoire pulls bundles from.

Each kind (skill, hook) keeps its own source registry. The official
source is registered automatically on first use.`,
}

var sourceAddCmd = &cobra.Command{
	Use:   "add <name> <git-url>",
	Short: "Register a bundle source",
	Long: `Register a git repository as a bundle source.

The repository is not contacted until the next sync or catalog build.
Use --root when the bundles live in a subdirectory rather than the
repository root.

Example:
  grimoire source add acme https://github.com/acme/agent-skills.git
  grimoire source add internal git@git.corp.example:ai/skills.git --root /skills`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(sourceKind)
		if err != nil {
			return err
		}

		added, err := eng.registry.Add(source.Source{
			Name:      args[0],
			RepoURL:   args[1],
			RootPath:  sourceAddRoot,
			Enabled:   true,
			Removable: true,
		})
		if err != nil {
			return fmt.Errorf("adding source: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Source %q added (id: %s).\n", added.Name, added.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Run '%s catalog update --kind %s' to fetch it.\n", branding.CLIName(), eng.kind)
		return nil
	},
}

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(sourceKind)
		if err != nil {
			return err
		}

		sources, err := eng.registry.Load()
		if err != nil {
			return fmt.Errorf("loading sources: %w", err)
		}

		if sourceListJSON {
			data, err := json.MarshalIndent(sources, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		if len(sources) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sources registered.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tROOT\tENABLED\tLAST SYNC")
		for _, s := range sources {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", s.ID, s.RepoURL, s.RootPath, s.Enabled, formatSyncTime(s))
		}
		return w.Flush()
	},
}

var sourceRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a registered source",
	Long: `Remove a source from the registry.

Bundles already installed from the source stay on disk; the next
install or sync flags them as orphaned. Any stored access token for the
source is dropped as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(sourceKind)
		if err != nil {
			return err
		}

		id := source.Slugify(args[0])
		if err := eng.registry.Remove(id); err != nil {
			if errors.Is(err, source.ErrNotRemovable) {
				return fmt.Errorf("source %q is not removable", id)
			}
			return fmt.Errorf("removing source: %w", err)
		}

		// Best effort: a token without its source is just clutter.
		_ = eng.creds.Delete(id)

		fmt.Fprintf(cmd.OutOrStdout(), "Source %q removed.\n", id)
		return nil
	},
}

var sourceSetTokenCmd = &cobra.Command{
	Use:   "set-token <id>",
	Short: "Store an access token for a source",
	Long: `Store an access token used when syncing a private source.

The token is read from stdin and never written to the registry or any
log. It lands in the platform keychain when one is available, otherwise
in the encrypted file vault.

Example:
  echo "$GITHUB_TOKEN" | grimoire source set-token acme`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(sourceKind)
		if err != nil {
			return err
		}

		id := source.Slugify(args[0])
		if _, err := eng.registry.Get(id); err != nil {
			return fmt.Errorf("looking up source %q: %w", id, err)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Token for %s: ", id)
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading token: %w", err)
			}
			return fmt.Errorf("no token provided")
		}
		token := strings.TrimSpace(scanner.Text())
		if token == "" {
			return fmt.Errorf("empty token")
		}

		if err := eng.creds.Store(id, token); err != nil {
			return fmt.Errorf("storing token: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Token stored for source %q.\n", id)
		return nil
	},
}

func formatSyncTime(s source.Source) string {
	if s.LastSyncAt == nil {
		return "never"
	}
	age := time.Since(*s.LastSyncAt).Truncate(time.Minute)
	if s.LastError != "" {
		return fmt.Sprintf("%s ago (failed)", age)
	}
	return fmt.Sprintf("%s ago", age)
}
