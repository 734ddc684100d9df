package workspace

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"chatpilot/internal/model"
	"chatpilot/internal/pathpolicy"
)

const maxCommandOutput = 64 * 1024

// Local is a Workspace rooted at a directory, with confirmation and
// previews going through a terminal-style reader/writer pair.
type Local struct {
	root string
	in   *bufio.Reader
	out  io.Writer
}

// NewLocal creates a workspace rooted at dir. in and out carry the
// confirmation dialogue; nil defaults to stdin/stdout.
func NewLocal(dir string, in io.Reader, out io.Writer) *Local {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Local{
		root: dir,
		in:   bufio.NewReader(in),
		out:  out,
	}
}

// Root returns the workspace root directory.
func (w *Local) Root() string { return w.root }

func (w *Local) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(pathpolicy.Join(w.root, path))
	if err != nil {
		return "", &model.IOError{Op: "read", Path: path, Err: err}
	}
	return string(data), nil
}

func (w *Local) Exists(path string) bool {
	info, err := os.Stat(pathpolicy.Join(w.root, path))
	return err == nil && !info.IsDir()
}

// WriteFile writes atomically: content lands in a temp file in the target
// directory, then renames over the destination.
func (w *Local) WriteFile(path, content string) error {
	full := pathpolicy.Join(w.root, path)

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &model.IOError{Op: "write", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".chatpilot-*")
	if err != nil {
		return &model.IOError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &model.IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &model.IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return &model.IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		return &model.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func (w *Local) ShowDiff(path, before, after string) (bool, error) {
	if _, err := io.WriteString(w.out, RenderDiff(path, before, after)); err != nil {
		return false, err
	}
	return w.Confirm(fmt.Sprintf("Apply these changes to %s?", path))
}

func (w *Local) OpenDocument(path string) error {
	_, err := fmt.Fprintf(w.out, "Opened %s\n", path)
	return err
}

// Confirm prompts on out and reads one line from in. Only an explicit
// yes answer approves; EOF counts as a denial.
func (w *Local) Confirm(prompt string) (bool, error) {
	if _, err := fmt.Fprintf(w.out, "%s [y/N]: ", prompt); err != nil {
		return false, err
	}
	line, err := w.in.ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// RunCommand executes a shell command in the workspace root with a
// trimmed environment. Output is truncated at 64KB.
func (w *Local) RunCommand(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = w.root
	cmd.Env = safeEnvironment(w.root)

	out, err := cmd.CombinedOutput()
	if len(out) > maxCommandOutput {
		out = append(out[:maxCommandOutput], []byte("\n[output truncated]")...)
	}
	if err != nil {
		return string(out), fmt.Errorf("command failed: %w", err)
	}
	return string(out), nil
}

// safeEnvironment is a whitelist environment for project commands. The
// caller's shell environment is not inherited.
func safeEnvironment(workDir string) []string {
	vars := map[string]string{
		"PATH":   "/usr/local/bin:/usr/bin:/bin",
		"HOME":   workDir,
		"PWD":    workDir,
		"TERM":   "xterm",
		"LANG":   "en_US.UTF-8",
		"GOPATH": os.Getenv("GOPATH"),
		"GOROOT": os.Getenv("GOROOT"),
	}
	env := make([]string, 0, len(vars))
	for k, v := range vars {
		if v != "" {
			env = append(env, k+"="+v)
		}
	}
	return env
}
