// Package demo implements the intentionally vulnerable example toolset the
// rule corpus writes about.
//
// Every handler here reproduces, as working code, a pattern the writeups
// document as a vulnerability: commands pass through `sh -c` (SEC-001),
// file paths are joined without confinement (SEC-002), handlers ignore
// their context so nothing ever times out (SEC-008), failures surface with
// full diagnostic detail (SEC-009), and invocations are logged with their
// raw parameters (SEC-010). None of this is accidental and none of it is
// safe. The toolset stays unregistered unless the operator explicitly asks
// for it.
//
// Do not wire this package into anything that serves real users.
package demo

import (
	"fmt"

	"secrules/internal/dispatch"
	"secrules/internal/logging"
	"secrules/pkg/fileops"
)

// Param describes one string parameter of a demo tool.
type Param struct {
	Name        string
	Description string
	Required    bool
}

// Tool pairs a tool's catalog entry with its handler. The server layer
// turns these into protocol tool definitions and registers the handlers.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Handler     dispatch.Handler
}

// Toolset holds the handlers' shared dependencies. Handlers receive
// everything through the struct; there is no package-level state.
type Toolset struct {
	baseDir string
	logger  *logging.AppLogger
}

// NewToolset prepares the demo workspace directory and returns the toolset.
// baseDir is where the file tools nominally operate; "nominally" because
// the handlers do not confine paths to it, which is rule SEC-002's point.
func NewToolset(baseDir string, logger *logging.AppLogger) (*Toolset, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("demo workspace directory cannot be empty")
	}

	expanded := fileops.ExpandPath(baseDir)
	if err := fileops.EnsureDirectoryExists(expanded); err != nil {
		return nil, fmt.Errorf("cannot create demo workspace: %w", err)
	}

	if logger == nil {
		logger = logging.GetDefault()
	}

	return &Toolset{baseDir: expanded, logger: logger}, nil
}

// BaseDir returns the workspace directory the file tools start from.
func (t *Toolset) BaseDir() string {
	return t.baseDir
}

// Tools returns the full demo catalog. Callers decide whether any of it
// reaches a live server.
func (t *Toolset) Tools() []Tool {
	return []Tool{
		{
			Name:        "execute_command",
			Description: "Run a shell command on the host and return its output. Demonstrates SEC-001 and SEC-008.",
			Params: []Param{
				{Name: "command", Description: "Shell command line to execute", Required: true},
			},
			Handler: t.executeCommand,
		},
		{
			Name:        "read_file",
			Description: "Read a file relative to the demo workspace. Demonstrates SEC-002.",
			Params: []Param{
				{Name: "path", Description: "File path to read", Required: true},
			},
			Handler: t.readFile,
		},
		{
			Name:        "write_file",
			Description: "Write content to a file relative to the demo workspace. Demonstrates SEC-002 and SEC-005.",
			Params: []Param{
				{Name: "path", Description: "File path to write", Required: true},
				{Name: "content", Description: "Content to store", Required: true},
			},
			Handler: t.writeFile,
		},
		{
			Name:        "delete_file",
			Description: "Delete a file relative to the demo workspace. Demonstrates SEC-002 and SEC-006.",
			Params: []Param{
				{Name: "path", Description: "File path to delete", Required: true},
			},
			Handler: t.deleteFile,
		},
		{
			Name:        "list_files",
			Description: "List directory entries relative to the demo workspace. Demonstrates SEC-002.",
			Params: []Param{
				{Name: "path", Description: "Directory to list, defaults to the workspace root", Required: false},
			},
			Handler: t.listFiles,
		},
		{
			Name:        "get_env",
			Description: "Read one environment variable, or dump the whole environment. Demonstrates SEC-003 and SEC-010.",
			Params: []Param{
				{Name: "name", Description: "Variable name; omit to list everything", Required: false},
			},
			Handler: t.getEnv,
		},
	}
}

// requireString pulls a mandatory string parameter out of the raw map.
func requireString(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string, got %T", key, v)
	}
	return s, nil
}

// optionalString pulls an optional string parameter, falling back when the
// key is absent or not a string.
func optionalString(params map[string]any, key, fallback string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}
