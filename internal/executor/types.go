package executor

import (
	"fmt"

	"github.com/grimoire-labs/grimoire/internal/redact"
	"github.com/grimoire-labs/grimoire/internal/state"
	"github.com/grimoire-labs/grimoire/internal/target"
)

// Operation selects what an Execute call does.
type Operation string

const (
	OpInstall   Operation = "install"
	OpUninstall Operation = "uninstall"
	OpSync      Operation = "sync"
)

// Request describes one engine run across targets.
type Request struct {
	Operation   Operation
	Targets     []target.Name
	Scope       target.Scope
	ProjectPath string
	// Mode is the requested install mode. Defaults to symlink.
	Mode      state.Mode
	Selection []Selection
	// RemoveUnselected also removes managed bundles missing from the
	// selection. Sync implies it.
	RemoveUnselected bool
	// Force makes uninstall delete the entire install root.
	Force bool
	// Refresh forces a catalog rebuild even over fresh mirrors.
	Refresh bool
}

// Report is the outcome for one target. Entity-level problems land in
// Warnings or Errors; they never abort the other entities or targets.
type Report struct {
	Target   target.Name `json:"target"`
	Root     string      `json:"root,omitempty"`
	Applied  []string    `json:"appliedIds"`
	Removed  []string    `json:"removedIds"`
	Skipped  []string    `json:"skippedIds"`
	Warnings []string    `json:"warnings"`
	Errors   []string    `json:"errors"`
}

func newReport(name target.Name) Report {
	return Report{
		Target:   name,
		Applied:  []string{},
		Removed:  []string{},
		Skipped:  []string{},
		Warnings: []string{},
		Errors:   []string{},
	}
}

// Failed reports whether anything went wrong for this target.
func (r *Report) Failed() bool { return len(r.Errors) > 0 }

// All report text is user-visible, so it goes through redaction.

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, redact.String(fmt.Sprintf(format, args...)))
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, redact.String(fmt.Sprintf(format, args...)))
}
