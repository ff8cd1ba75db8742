package repository

import (
	"fmt"
	"os"
	"strings"
	"time"

	"secrules/internal/config"
	"secrules/internal/logging"
	"secrules/internal/rules"
	"secrules/pkg/fileops"
)

// Result reports one corpus refresh.
type Result struct {
	Source   string          // where the corpus came from
	Info     SyncInfo        // what the source did
	Writeups int             // writeups materialized into storage
	Problems []rules.Problem // defects found in the upstream tree
	Duration time.Duration
}

// Sync refreshes the materialized corpus under the storage directory.
//
// With an upstream configured it prepares the checkout, verifies and loads
// its writeups, and replaces the materialized copy. Without an upstream it
// re-materializes the embedded corpus. The existing materialized copy is
// only replaced once the new corpus has loaded successfully, so a broken
// upstream never empties local storage.
func Sync(cfg *config.Config, logger *logging.AppLogger) (*Result, error) {
	start := time.Now()

	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if strings.TrimSpace(cfg.StorageDir) == "" {
		return nil, fmt.Errorf("no storage directory configured: run 'secrules init' first")
	}

	storageDir := fileops.ExpandPath(cfg.StorageDir)
	if err := fileops.EnsureDirectoryExists(storageDir); err != nil {
		return nil, fmt.Errorf("storage directory not usable: %w", err)
	}

	var (
		corpus   *rules.Corpus
		problems []rules.Problem
		info     SyncInfo
		from     string
	)

	if cfg.HasUpstream() {
		from = cfg.Upstream.URL

		localPath, prepared, err := upstreamSource(cfg).Prepare(logger)
		if err != nil {
			return nil, fmt.Errorf("cannot prepare upstream: %w", err)
		}
		info = prepared

		problems, err = rules.VerifyDir(localPath)
		if err != nil {
			return nil, fmt.Errorf("cannot verify upstream corpus: %w", err)
		}
		for _, p := range problems {
			logger.Warn("Upstream corpus problem", "problem", p.String())
		}

		corpus, err = rules.LoadDir(localPath, logger)
		if err != nil {
			return nil, fmt.Errorf("upstream corpus is not usable, keeping the current one: %w", err)
		}
	} else {
		from = "embedded"
		info = SyncInfo{Message: "No upstream configured; refreshed from the embedded corpus"}

		var err error
		corpus, err = rules.Embedded(logger)
		if err != nil {
			return nil, err
		}
	}

	corpusDir := cfg.CorpusDir()
	if err := clearCorpusDir(corpusDir); err != nil {
		return nil, err
	}
	if err := corpus.Materialize(corpusDir); err != nil {
		return nil, fmt.Errorf("cannot materialize corpus: %w", err)
	}

	logger.Info("Corpus synchronized",
		"source", from,
		"writeups", corpus.Len(),
		"problems", len(problems),
		"duration", time.Since(start),
	)

	return &Result{
		Source:   from,
		Info:     info,
		Writeups: corpus.Len(),
		Problems: problems,
		Duration: time.Since(start),
	}, nil
}

// upstreamSource picks the source type from the configured URL: anything
// with a scheme or an SSH user prefix is git, everything else is a local
// directory.
func upstreamSource(cfg *config.Config) Source {
	url := strings.TrimSpace(cfg.Upstream.URL)
	if strings.Contains(url, "://") || strings.HasPrefix(url, "git@") {
		return NewGitSource(url, cfg.Upstream.Branch, cfg.UpstreamDir())
	}
	return NewLocalSource(url)
}

// clearCorpusDir removes stale writeups so deletions upstream propagate.
func clearCorpusDir(dir string) error {
	if err := fileops.ValidateStoragePath(dir); err != nil {
		return fmt.Errorf("refusing to clear corpus directory: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("cannot clear corpus directory: %w", err)
	}
	return nil
}
