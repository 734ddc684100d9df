// Package workspace is the execution surface for actions: file reads and
// writes inside a root directory, diff previews, user confirmation, and
// project command execution. Paths crossing this boundary are already
// normalized workspace-relative paths.
package workspace

import (
	"context"
	"errors"
	"os"
)

// Workspace is the host surface the executor drives. Implementations
// besides the local filesystem include the gateway's session-bound
// workspace and test stubs.
type Workspace interface {
	// ReadFile returns the file content. Missing files satisfy IsNotFound.
	ReadFile(path string) (string, error)
	// WriteFile creates or replaces the file, creating parent directories.
	WriteFile(path, content string) error
	// Exists reports whether the path refers to an existing file.
	Exists(path string) bool
	// ShowDiff presents a before/after preview for an edit and reports
	// whether the user accepted it.
	ShowDiff(path, before, after string) (bool, error)
	// OpenDocument surfaces the file to the user after a write.
	OpenDocument(path string) error
	// Confirm asks the user to approve an action. False means denied.
	Confirm(prompt string) (bool, error)
	// RunCommand executes a project command in the workspace root and
	// returns its combined output.
	RunCommand(ctx context.Context, command string) (string, error)
}

// IsNotFound reports whether an error from ReadFile means the file does
// not exist, as opposed to an I/O failure.
func IsNotFound(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
