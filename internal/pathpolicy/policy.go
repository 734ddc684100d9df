// Package pathpolicy is the single authority for action path safety.
// Every path an action carries passes through Normalize before any
// collaborator sees it; no other component may bypass this check.
package pathpolicy

import (
	"path/filepath"
	"strings"

	"chatpilot/internal/model"
)

// Normalize resolves rawPath against workspaceRoot and returns the cleaned
// workspace-relative path with forward-slash separators. It rejects
// absolute paths and any path whose resolved form is not a descendant of
// the root (blocks "../" escapes).
func Normalize(rawPath, workspaceRoot string) (string, error) {
	if strings.TrimSpace(rawPath) == "" {
		return "", &model.UnsafePathError{Path: rawPath, Reason: "empty path"}
	}
	if workspaceRoot == "" {
		return "", &model.UnsafePathError{Path: rawPath, Reason: "workspace root not set"}
	}
	if strings.ContainsRune(rawPath, '\x00') {
		return "", &model.UnsafePathError{Path: rawPath, Reason: "path contains NUL byte"}
	}

	// Absolute paths never override the workspace root.
	if filepath.IsAbs(rawPath) || strings.HasPrefix(rawPath, "/") || strings.HasPrefix(rawPath, "\\") {
		return "", &model.UnsafePathError{Path: rawPath, Reason: "absolute path outside workspace"}
	}

	absRoot, err := filepath.Abs(workspaceRoot)
	if err != nil {
		return "", &model.UnsafePathError{Path: rawPath, Reason: "cannot resolve workspace root"}
	}

	// Normalize incoming separators before resolving so "a\..\..\b" cannot
	// sneak past on Unix hosts.
	cleaned := filepath.Clean(filepath.FromSlash(strings.ReplaceAll(rawPath, "\\", "/")))
	resolved := filepath.Join(absRoot, cleaned)

	rel, err := filepath.Rel(absRoot, resolved)
	if err != nil {
		return "", &model.UnsafePathError{Path: rawPath, Reason: "cannot resolve against workspace root"}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &model.UnsafePathError{Path: rawPath, Reason: "escapes workspace root"}
	}
	if rel == "." {
		return "", &model.UnsafePathError{Path: rawPath, Reason: "resolves to workspace root itself"}
	}

	return filepath.ToSlash(rel), nil
}

// Join returns the absolute filesystem location of a normalized path.
// Callers must only pass paths that came out of Normalize.
func Join(workspaceRoot, normalized string) string {
	return filepath.Join(workspaceRoot, filepath.FromSlash(normalized))
}
