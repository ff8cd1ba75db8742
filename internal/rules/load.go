package rules

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"secrules/internal/logging"
	"secrules/pkg/fileops"
)

const (
	// maxRuleFileSize caps individual writeup files. Anything larger is
	// not a writeup and gets skipped rather than loaded into memory.
	maxRuleFileSize = 1 << 20 // 1 MiB

	// maxCorpusDepth bounds corpus tree traversal. Real corpora are two
	// levels deep (locale/file); a little slack covers reorganized ones.
	maxCorpusDepth = 4
)

// IsMarkdownFile reports whether name looks like a markdown writeup.
func IsMarkdownFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

func corpusScanOptions() *fileops.DirectoryScanOptions {
	return &fileops.DirectoryScanOptions{
		SkipUnreadableDirs: true,
		MaxDepth:           maxCorpusDepth,
		IncludeHidden:      false,
		SkipPatterns:       []string{".git", "node_modules", "vendor"},
		FileFilter:         IsMarkdownFile,
	}
}

// LoadFS parses every markdown writeup under fsys and indexes them into a
// Corpus.
//
// Files that cannot be read or parsed are skipped with a warning so one
// broken writeup never takes the rest of the corpus down. Duplicate
// (locale, id) pairs keep the first file found. Loading fails only when
// the tree cannot be walked at all or yields no valid writeup.
func LoadFS(fsys fs.FS, logger *logging.AppLogger) (*Corpus, error) {
	files, err := fileops.ScanFS(fsys, corpusScanOptions())
	if err != nil {
		return nil, fmt.Errorf("corpus scan failed: %w", err)
	}

	var parsed []Rule
	seen := make(map[string]string) // locale/id -> path of first writeup
	skipped := 0

	for _, file := range files {
		if file.Size > maxRuleFileSize {
			if logger != nil {
				logger.Warn("Writeup exceeds size limit, skipping", "path", file.Path, "size", file.Size)
			}
			skipped++
			continue
		}

		content, err := fs.ReadFile(fsys, file.Path)
		if err != nil {
			if logger != nil {
				logger.Warn("Cannot read writeup, skipping", "path", file.Path, "error", err)
			}
			skipped++
			continue
		}

		rule, err := parseRule(content, file.Path)
		if err != nil {
			if logger != nil {
				logger.Warn("Invalid writeup, skipping", "path", file.Path, "error", err)
			}
			skipped++
			continue
		}

		key := rule.Locale + "/" + rule.ID
		if first, dup := seen[key]; dup {
			if logger != nil {
				logger.Warn("Duplicate writeup, keeping first",
					"id", rule.ID,
					"locale", rule.Locale,
					"kept", first,
					"skipped", file.Path,
				)
			}
			skipped++
			continue
		}
		seen[key] = file.Path

		parsed = append(parsed, rule)
	}

	if logger != nil {
		logger.Info("Corpus loaded", "writeups", len(parsed), "skipped", skipped)
	}

	if len(parsed) == 0 {
		return nil, fmt.Errorf("no valid writeups found")
	}

	return NewCorpus(parsed)
}

// LoadDir loads a corpus from a directory on disk. The directory is opened
// through a secure scan root so the walk cannot escape it.
func LoadDir(dir string, logger *logging.AppLogger) (*Corpus, error) {
	scanner, err := fileops.NewDirectoryScanner(dir, corpusScanOptions())
	if err != nil {
		return nil, fmt.Errorf("cannot open corpus directory: %w", err)
	}
	defer scanner.Close()

	return LoadFS(scanner.FS(), logger)
}

// Materialize writes every writeup in the corpus under dir, one locale
// directory per language, so users can inspect and edit the rules that
// otherwise live inside the binary. Files are written atomically; an
// interrupted materialization never leaves half-written writeups.
func (c *Corpus) Materialize(dir string) error {
	if err := fileops.ValidateStoragePath(dir); err != nil {
		return fmt.Errorf("invalid corpus directory: %w", err)
	}

	for _, locale := range c.Locales() {
		localeDir := filepath.Join(fileops.ExpandPath(dir), locale)
		if err := fileops.EnsureDirectoryExists(localeDir); err != nil {
			return err
		}

		for _, rule := range c.listExact(locale) {
			name, err := fileops.SanitizeFilename(rule.FileName)
			if err != nil {
				return fmt.Errorf("writeup %s/%s has unusable filename: %w", locale, rule.ID, err)
			}

			data, err := rule.EncodeFile()
			if err != nil {
				return fmt.Errorf("cannot encode writeup %s/%s: %w", locale, rule.ID, err)
			}

			if err := fileops.AtomicWrite(filepath.Join(localeDir, name), data); err != nil {
				return fmt.Errorf("cannot write writeup %s/%s: %w", locale, rule.ID, err)
			}
		}
	}

	return nil
}

// listExact returns the writeups actually present in locale, without the
// default-locale fallback List applies.
func (c *Corpus) listExact(locale string) []Rule {
	byID := c.byLocale[locale]
	out := make([]Rule, 0, len(byID))
	for _, id := range c.ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}
