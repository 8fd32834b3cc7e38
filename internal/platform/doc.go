// Package platform isolates the OS-specific filesystem behaviors the
// installer depends on: symlink creation, symlink capability probing, and
// permission bits. Unix systems get native symlinks and chmod; on Windows
// chmod is a no-op and symlinks depend on developer mode, so callers keep
// a copy fallback.
package platform
