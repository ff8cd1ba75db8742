// Package rules loads and indexes the bilingual security rule corpus.
//
// A corpus is a tree of markdown writeups with YAML frontmatter, one
// subdirectory per locale:
//
//	corpus/
//	  en/sec-001-command-injection.md
//	  es/sec-001-command-injection.md
//	  ...
//
// The loader walks any fs.FS, so the same code serves the embedded corpus,
// a materialized copy on disk, and a git checkout of an upstream corpus.
package rules

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// Locales shipped in the embedded corpus. Other locale directories load
// fine; these are just the names the CLI knows about.
const (
	LocaleEN = "en"
	LocaleES = "es"

	// DefaultLocale is the fallback when a writeup has no translation.
	DefaultLocale = LocaleEN
)

// Severity grades how bad exploitation of a rule's weakness tends to be.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank orders severities for display, highest first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// ParseSeverity normalizes a frontmatter severity string.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityCritical:
		return SeverityCritical, nil
	case SeverityHigh:
		return SeverityHigh, nil
	case SeverityMedium:
		return SeverityMedium, nil
	case SeverityLow:
		return SeverityLow, nil
	default:
		return "", fmt.Errorf("unknown severity %q", s)
	}
}

// ruleIDPattern matches canonical rule identifiers like SEC-008.
var ruleIDPattern = regexp.MustCompile(`^SEC-\d{3}$`)

// NormalizeID canonicalizes a rule identifier for lookups: trimmed and
// uppercased, so "sec-008" finds the same writeup as "SEC-008".
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// ValidID reports whether id matches the canonical SEC-NNN form.
func ValidID(id string) bool {
	return ruleIDPattern.MatchString(id)
}

// RuleFrontmatter represents the YAML frontmatter structure expected in rule files
type RuleFrontmatter struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Severity    string `yaml:"severity"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
}

// Rule is one security writeup in one language.
type Rule struct {
	// Canonical identifier, e.g. "SEC-008"
	ID string

	// Locale of this writeup ("en", "es")
	Locale string

	// Frontmatter fields
	Title       string
	Severity    Severity
	Category    string
	Description string

	// Markdown body without the frontmatter block
	Body string

	// File information
	FileName string
	Path     string // slash-separated path within the corpus
}

// parseRule decodes one writeup file. The path is recorded on the rule and
// used to derive the locale from the leading directory.
func parseRule(content []byte, path string) (Rule, error) {
	var matter RuleFrontmatter
	body, err := frontmatter.Parse(bytes.NewReader(content), &matter)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid frontmatter: %w", err)
	}

	id := NormalizeID(matter.ID)
	if id == "" {
		return Rule{}, fmt.Errorf("missing required 'id' field")
	}
	if !ValidID(id) {
		return Rule{}, fmt.Errorf("malformed rule id %q", matter.ID)
	}
	if matter.Title == "" {
		return Rule{}, fmt.Errorf("missing required 'title' field")
	}
	if matter.Description == "" {
		return Rule{}, fmt.Errorf("missing required 'description' field")
	}

	severity, err := ParseSeverity(matter.Severity)
	if err != nil {
		return Rule{}, err
	}

	return Rule{
		ID:          id,
		Locale:      localeFromPath(path),
		Title:       matter.Title,
		Severity:    severity,
		Category:    matter.Category,
		Description: matter.Description,
		Body:        strings.TrimSpace(string(body)),
		FileName:    baseName(path),
		Path:        path,
	}, nil
}

// localeFromPath derives the writeup locale from the first path segment.
// Files outside a locale directory belong to the default locale.
func localeFromPath(path string) string {
	segment, _, found := strings.Cut(path, "/")
	if !found || len(segment) != 2 {
		return DefaultLocale
	}
	return strings.ToLower(segment)
}

func baseName(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// EncodeFile renders the rule back into markdown with a YAML frontmatter
// block, suitable for writing to disk.
func (r Rule) EncodeFile() ([]byte, error) {
	matter := RuleFrontmatter{
		ID:          r.ID,
		Title:       r.Title,
		Severity:    string(r.Severity),
		Category:    r.Category,
		Description: r.Description,
	}

	header, err := yaml.Marshal(&matter)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString(r.Body)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// Label returns a short display string used in listings.
func (r Rule) Label() string {
	return fmt.Sprintf("%s  %s", r.ID, r.Title)
}

// Document renders the writeup as a self-contained markdown document with
// its metadata up top. This is the canonical presentation used by the MCP
// resources, the show command, and the corpus browser.
func (r Rule) Document() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: %s\n\n", r.ID, r.Title)
	fmt.Fprintf(&b, "- Severity: %s\n", r.Severity)
	if r.Category != "" {
		fmt.Fprintf(&b, "- Category: %s\n", r.Category)
	}
	fmt.Fprintf(&b, "- Locale: %s\n", r.Locale)
	fmt.Fprintf(&b, "\n%s\n", r.Body)
	return b.String()
}
