package rules

import (
	"strings"
	"testing"
)

func TestVerifyFSCleanCorpus(t *testing.T) {
	fsys := corpusFS(map[string]string{
		"en/sec-001-command-injection.md": writeupContent("SEC-001", "Command injection", "critical"),
		"es/sec-001-command-injection.md": writeupContent("SEC-001", "Inyección de comandos", "critical"),
		"en/sec-002-path-traversal.md":    writeupContent("SEC-002", "Path traversal", "high"),
	})

	problems, err := VerifyFS(fsys)
	if err != nil {
		t.Fatalf("VerifyFS failed: %v", err)
	}
	if len(problems) != 0 {
		t.Errorf("Expected no problems, got %v", problems)
	}
}

func TestVerifyFSReportsDefects(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		messagePart string
		path        string
	}{
		{
			name: "broken frontmatter",
			files: map[string]string{
				"en/sec-001-good.md": writeupContent("SEC-001", "Good", "low"),
				"en/broken.md":       "# markdown without frontmatter\n",
			},
			messagePart: "frontmatter",
			path:        "en/broken.md",
		},
		{
			name: "missing title",
			files: map[string]string{
				"en/sec-001-good.md": writeupContent("SEC-001", "Good", "low"),
				"en/sec-002-bad.md": `---
id: SEC-002
severity: high
description: No title here.
---
Body.
`,
			},
			messagePart: "title",
			path:        "en/sec-002-bad.md",
		},
		{
			name: "unknown severity",
			files: map[string]string{
				"en/sec-001-good.md": writeupContent("SEC-001", "Good", "low"),
				"en/sec-002-bad.md":  writeupContent("SEC-002", "Bad severity", "apocalyptic"),
			},
			messagePart: "severity",
			path:        "en/sec-002-bad.md",
		},
		{
			name: "malformed id",
			files: map[string]string{
				"en/sec-001-good.md": writeupContent("SEC-001", "Good", "low"),
				"en/rule-7.md":       writeupContent("RULE-7", "Wrong prefix", "low"),
			},
			messagePart: "malformed",
			path:        "en/rule-7.md",
		},
		{
			name: "filename does not match id",
			files: map[string]string{
				"en/traversal.md": writeupContent("SEC-002", "Path traversal", "high"),
			},
			messagePart: "filename",
			path:        "en/traversal.md",
		},
		{
			name: "duplicate pair",
			files: map[string]string{
				"en/sec-001-first.md":     writeupContent("SEC-001", "First", "low"),
				"en/sec-001-zz-second.md": writeupContent("SEC-001", "Second", "low"),
			},
			messagePart: "duplicate of en/sec-001-first.md",
			path:        "en/sec-001-zz-second.md",
		},
		{
			name: "translation without default locale counterpart",
			files: map[string]string{
				"en/sec-001-good.md":  writeupContent("SEC-001", "Good", "low"),
				"es/sec-002-primo.md": writeupContent("SEC-002", "Sin original", "low"),
			},
			messagePart: "no en counterpart",
			path:        "es/sec-002-primo.md",
		},
		{
			name:        "empty tree",
			files:       map[string]string{},
			messagePart: "no writeups found",
			path:        ".",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems, err := VerifyFS(corpusFS(tt.files))
			if err != nil {
				t.Fatalf("VerifyFS failed: %v", err)
			}

			for _, p := range problems {
				if p.Path == tt.path && strings.Contains(p.Message, tt.messagePart) {
					return
				}
			}
			t.Errorf("Expected a problem at %q containing %q, got %v", tt.path, tt.messagePart, problems)
		})
	}
}

func TestVerifyFSReportsAllDefectsAtOnce(t *testing.T) {
	fsys := corpusFS(map[string]string{
		"en/broken.md":      "no frontmatter",
		"en/sec-002-bad.md": writeupContent("SEC-002", "Bad", "apocalyptic"),
		"es/sec-003-sin.md": writeupContent("SEC-003", "Sin original", "low"),
	})

	problems, err := VerifyFS(fsys)
	if err != nil {
		t.Fatalf("VerifyFS failed: %v", err)
	}
	if len(problems) != 3 {
		t.Errorf("Expected 3 problems reported together, got %d: %v", len(problems), problems)
	}
}

func TestVerifyDirRejectsMissingDirectory(t *testing.T) {
	_, err := VerifyDir("/definitely/not/a/real/corpus/path")
	if err == nil {
		t.Fatal("Expected an error for a nonexistent directory")
	}
}

func TestProblemString(t *testing.T) {
	withID := Problem{Path: "en/sec-001.md", RuleID: "SEC-001", Message: "something"}
	if got := withID.String(); !strings.Contains(got, "SEC-001") || !strings.Contains(got, "en/sec-001.md") {
		t.Errorf("Problem string %q should carry path and rule id", got)
	}

	withoutID := Problem{Path: "en/broken.md", Message: "cannot read"}
	if got := withoutID.String(); !strings.Contains(got, "en/broken.md") || !strings.Contains(got, "cannot read") {
		t.Errorf("Problem string %q should carry path and message", got)
	}
}
