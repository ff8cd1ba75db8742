package rules

import (
	"fmt"
	"io/fs"
	"strings"

	"secrules/pkg/fileops"
)

// Problem describes one defect found while verifying a corpus tree.
type Problem struct {
	// Path of the offending file, slash-separated within the corpus.
	Path string

	// RuleID is set when the file parsed far enough to yield one.
	RuleID string

	// Message describes the defect.
	Message string
}

func (p Problem) String() string {
	if p.RuleID != "" {
		return fmt.Sprintf("%s: [%s] %s", p.Path, p.RuleID, p.Message)
	}
	return fmt.Sprintf("%s: %s", p.Path, p.Message)
}

// VerifyFS checks every writeup under fsys and reports all defects found,
// unlike LoadFS which silently skips broken files. An empty slice means
// the corpus is clean. The error return covers only walk failures.
//
// Checks performed:
//   - frontmatter parses and carries id, title, description and a known severity
//   - rule ids follow the canonical SEC-NNN form
//   - filenames start with the lowercased rule id
//   - no two files claim the same (locale, id) pair
//   - every translated writeup has a default-locale counterpart
func VerifyFS(fsys fs.FS) ([]Problem, error) {
	files, err := fileops.ScanFS(fsys, corpusScanOptions())
	if err != nil {
		return nil, fmt.Errorf("corpus scan failed: %w", err)
	}

	var problems []Problem
	var parsed []Rule
	seen := make(map[string]string) // locale/id -> path of first writeup

	for _, file := range files {
		if file.Size > maxRuleFileSize {
			problems = append(problems, Problem{
				Path:    file.Path,
				Message: fmt.Sprintf("file is %d bytes, larger than the %d byte limit", file.Size, maxRuleFileSize),
			})
			continue
		}

		content, err := fs.ReadFile(fsys, file.Path)
		if err != nil {
			problems = append(problems, Problem{
				Path:    file.Path,
				Message: fmt.Sprintf("cannot read file: %v", err),
			})
			continue
		}

		rule, err := parseRule(content, file.Path)
		if err != nil {
			problems = append(problems, Problem{
				Path:    file.Path,
				Message: err.Error(),
			})
			continue
		}

		if !strings.HasPrefix(strings.ToLower(rule.FileName), strings.ToLower(rule.ID)) {
			problems = append(problems, Problem{
				Path:    rule.Path,
				RuleID:  rule.ID,
				Message: fmt.Sprintf("filename should start with %q", strings.ToLower(rule.ID)),
			})
		}

		key := rule.Locale + "/" + rule.ID
		if first, dup := seen[key]; dup {
			problems = append(problems, Problem{
				Path:    rule.Path,
				RuleID:  rule.ID,
				Message: fmt.Sprintf("duplicate of %s", first),
			})
			continue
		}
		seen[key] = rule.Path

		parsed = append(parsed, rule)
	}

	for _, rule := range parsed {
		if rule.Locale == DefaultLocale {
			continue
		}
		if _, ok := seen[DefaultLocale+"/"+rule.ID]; !ok {
			problems = append(problems, Problem{
				Path:    rule.Path,
				RuleID:  rule.ID,
				Message: fmt.Sprintf("no %s counterpart for this translation", DefaultLocale),
			})
		}
	}

	if len(parsed) == 0 && len(problems) == 0 {
		problems = append(problems, Problem{
			Path:    ".",
			Message: "no writeups found",
		})
	}

	return problems, nil
}

// VerifyDir verifies a corpus directory on disk.
func VerifyDir(dir string) ([]Problem, error) {
	scanner, err := fileops.NewDirectoryScanner(dir, corpusScanOptions())
	if err != nil {
		return nil, fmt.Errorf("cannot open corpus directory: %w", err)
	}
	defer scanner.Close()

	return VerifyFS(scanner.FS())
}
