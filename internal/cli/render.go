package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/grimoire-labs/grimoire/internal/executor"
)

// printReports renders per-target outcomes and returns an error when any
// target failed, so the process exits non-zero.
func printReports(w io.Writer, reports []executor.Report, asJSON bool) error {
	failed := 0
	for i := range reports {
		if reports[i].Failed() {
			failed++
		}
	}

	if asJSON {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling reports: %w", err)
		}
		fmt.Fprintln(w, string(data))
	} else {
		for _, rep := range reports {
			if rep.Root != "" {
				fmt.Fprintf(w, "%s (%s)\n", rep.Target, rep.Root)
			} else {
				fmt.Fprintf(w, "%s\n", rep.Target)
			}
			for _, id := range rep.Applied {
				fmt.Fprintf(w, "  ✓ installed %s\n", id)
			}
			for _, id := range rep.Removed {
				fmt.Fprintf(w, "  ✓ removed %s\n", id)
			}
			for _, id := range rep.Skipped {
				fmt.Fprintf(w, "  - skipped %s\n", id)
			}
			for _, warn := range rep.Warnings {
				fmt.Fprintf(w, "  ⚠️  %s\n", warn)
			}
			for _, msg := range rep.Errors {
				fmt.Fprintf(w, "  ✗ %s\n", msg)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d targets failed", failed, len(reports))
	}
	return nil
}

// confirm asks a yes/no question on stdin. The default on empty input
// is no.
func confirm(w io.Writer, question string) bool {
	fmt.Fprintf(w, "? %s (y/N) ", question)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return answer == "y" || answer == "yes"
}
