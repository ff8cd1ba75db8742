package demo

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// executeCommand runs its parameter through `sh -c`, the exact pattern
// SEC-001 warns about. The context is ignored, so nothing cancels a command
// that never exits (SEC-008), and failures return with the full command
// line and output attached (SEC-009).
func (t *Toolset) executeCommand(ctx context.Context, params map[string]any) (any, error) {
	command, err := requireString(params, "command")
	if err != nil {
		return nil, err
	}

	// SEC-010: the raw command line goes to the log.
	t.logger.Info("Executing command", "command", command)

	out, err := exec.Command("sh", "-c", command).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("command %q failed: %w, output: %s", command, err, out)
	}
	return string(out), nil
}

// readFile joins the caller's path onto the workspace without confinement.
// "../" sequences and absolute paths leave the workspace, which is what
// SEC-002 documents.
func (t *Toolset) readFile(ctx context.Context, params map[string]any) (any, error) {
	path, err := requireString(params, "path")
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(t.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", t.resolve(path), err)
	}
	return string(data), nil
}

func (t *Toolset) writeFile(ctx context.Context, params map[string]any) (any, error) {
	path, err := requireString(params, "path")
	if err != nil {
		return nil, err
	}
	content, err := requireString(params, "content")
	if err != nil {
		return nil, err
	}

	// No size cap on content and no confinement on path (SEC-002, SEC-005).
	target := t.resolve(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create parent directory for %s: %w", target, err)
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("cannot write %s: %w", target, err)
	}
	return fmt.Sprintf("wrote %d bytes to %s", len(content), target), nil
}

func (t *Toolset) deleteFile(ctx context.Context, params map[string]any) (any, error) {
	path, err := requireString(params, "path")
	if err != nil {
		return nil, err
	}

	target := t.resolve(path)
	if err := os.Remove(target); err != nil {
		return nil, fmt.Errorf("cannot delete %s: %w", target, err)
	}
	return fmt.Sprintf("deleted %s", target), nil
}

func (t *Toolset) listFiles(ctx context.Context, params map[string]any) (any, error) {
	dir := t.resolve(optionalString(params, "path", "."))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list %s: %w", dir, err)
	}

	var b strings.Builder
	for _, entry := range entries {
		if entry.IsDir() {
			fmt.Fprintf(&b, "%s/\n", entry.Name())
			continue
		}
		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(&b, "%s\n", entry.Name())
			continue
		}
		fmt.Fprintf(&b, "%s\t%d\n", entry.Name(), info.Size())
	}
	if b.Len() == 0 {
		return "(empty)", nil
	}
	return b.String(), nil
}

// getEnv exposes the process environment, credentials included, to any
// caller. With no name it dumps everything (SEC-003, SEC-010).
func (t *Toolset) getEnv(ctx context.Context, params map[string]any) (any, error) {
	name := optionalString(params, "name", "")
	if name != "" {
		value, found := os.LookupEnv(name)
		if !found {
			return nil, fmt.Errorf("environment variable %q is not set", name)
		}
		return value, nil
	}
	return strings.Join(os.Environ(), "\n"), nil
}

// resolve maps a caller path into the workspace. filepath.Join cleans the
// result but never confines it; an absolute path replaces the workspace
// entirely. Compare fileops.NewDirectoryScanner for the confined version.
func (t *Toolset) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(t.baseDir, path)
}
