package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grimoire-labs/grimoire/internal/branding"
	"github.com/grimoire-labs/grimoire/internal/target"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` manages skills and hooks for AI coding agents. It syncs git
sources that publish bundles, builds a catalog of what they offer, and
installs selections into agent directories (Claude Code, OpenCode, Cursor).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}

// parseTargets validates target names up front so a typo fails before
// any engine work starts.
func parseTargets(names []string) ([]target.Name, error) {
	out := make([]target.Name, 0, len(names))
	for _, n := range names {
		if _, ok := target.Resolve(n); !ok {
			return nil, fmt.Errorf("unknown target %q (supported: %s)", n, supportedTargets())
		}
		out = append(out, target.Name(n))
	}
	return out, nil
}

func supportedTargets() string {
	all := target.All()
	names := make([]string, 0, len(all))
	for _, n := range all {
		names = append(names, string(n))
	}
	return strings.Join(names, ", ")
}
