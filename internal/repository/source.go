package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"secrules/internal/logging"
	"secrules/pkg/fileops"
)

// Source abstracts where a rule corpus upstream lives. Implementations
// resolve to a local filesystem path whose tree holds the writeups.
type Source interface {
	// Prepare validates and readies the source, returning the absolute
	// local path of the corpus tree and sync details for user messaging.
	Prepare(logger *logging.AppLogger) (localPath string, info SyncInfo, err error)
}

// SyncInfo reports what Prepare actually did, for CLI messaging.
type SyncInfo struct {
	Cloned  bool   // a fresh clone happened
	Updated bool   // an existing checkout pulled new commits
	Dirty   bool   // the checkout has local changes, pull was skipped
	Message string // one line describing the outcome
}

// LocalSource is a directory on disk used directly as the corpus upstream.
// No network is involved; Prepare only validates the path.
type LocalSource struct {
	// Path is absolute or home-relative (~/...).
	Path string
}

func NewLocalSource(path string) LocalSource {
	return LocalSource{Path: path}
}

// Prepare checks that the path is safe to use and points at an existing
// directory. It never creates anything.
func (ls LocalSource) Prepare(logger *logging.AppLogger) (string, SyncInfo, error) {
	if logger != nil {
		logger.Info("Preparing local corpus source", "path", ls.Path)
	}

	trimmed := strings.TrimSpace(ls.Path)
	if trimmed == "" {
		return "", SyncInfo{}, fmt.Errorf("local source path cannot be empty")
	}

	clean := filepath.Clean(fileops.ExpandPath(trimmed))
	if err := fileops.ValidateStoragePath(clean); err != nil {
		return "", SyncInfo{}, fmt.Errorf("invalid local source path: %w", err)
	}

	info, err := os.Stat(clean)
	if err != nil {
		if os.IsNotExist(err) {
			return "", SyncInfo{}, fmt.Errorf("local source directory does not exist: %s", clean)
		}
		return "", SyncInfo{}, fmt.Errorf("cannot access local source directory: %w", err)
	}
	if !info.IsDir() {
		return "", SyncInfo{}, fmt.Errorf("local source path is not a directory: %s", clean)
	}

	abs, err := filepath.Abs(clean)
	if err != nil {
		abs = clean
	}

	return abs, SyncInfo{Message: "Using local corpus directory"}, nil
}
