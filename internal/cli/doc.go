// Package cli defines the Cobra command tree for the grimoire CLI. Each
// file in this package registers one top-level command (install, sync,
// source, etc.) with the root command. Command implementations delegate to
// the engine packages and only handle flag parsing, I/O formatting, and
// user interaction.
package cli
