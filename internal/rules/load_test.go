package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"secrules/internal/logging"
)

func writeupContent(id, title, severity string) string {
	return fmt.Sprintf(`---
id: %s
title: %s
severity: %s
category: testing
description: Test writeup for %s.
---

## Overview

Body for %s.
`, id, title, severity, id, id)
}

func corpusFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for path, content := range files {
		fsys[path] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func TestIsMarkdownFile(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"sec-001.md", true},
		{"sec-001.markdown", true},
		{"SEC-001.MD", true},
		{"readme.txt", false},
		{"notes.md.bak", false},
		{"md", false},
	}

	for _, tt := range tests {
		if got := IsMarkdownFile(tt.name); got != tt.expected {
			t.Errorf("IsMarkdownFile(%q) = %v, expected %v", tt.name, got, tt.expected)
		}
	}
}

func TestLoadFS(t *testing.T) {
	fsys := corpusFS(map[string]string{
		"en/sec-001-command-injection.md": writeupContent("SEC-001", "Command injection", "critical"),
		"en/sec-002-path-traversal.md":    writeupContent("SEC-002", "Path traversal", "high"),
		"es/sec-001-command-injection.md": writeupContent("SEC-001", "Inyección de comandos", "critical"),
		"en/notes.txt":                    "not a writeup",
	})

	logger, _ := logging.NewTestLogger()
	corpus, err := LoadFS(fsys, logger)
	if err != nil {
		t.Fatalf("LoadFS failed: %v", err)
	}

	if corpus.Len() != 3 {
		t.Errorf("Expected 3 writeups, got %d", corpus.Len())
	}
	if got := corpus.IDs(); len(got) != 2 {
		t.Errorf("Expected 2 distinct IDs, got %v", got)
	}
	if got := corpus.Locales(); len(got) != 2 || got[0] != "en" || got[1] != "es" {
		t.Errorf("Unexpected locales: %v", got)
	}

	r, found := corpus.Get("SEC-001", "es")
	if !found || r.Title != "Inyección de comandos" {
		t.Errorf("Expected Spanish SEC-001, got found=%v title=%q", found, r.Title)
	}
}

func TestLoadFSSkipsBrokenWriteups(t *testing.T) {
	fsys := corpusFS(map[string]string{
		"en/sec-001-good.md": writeupContent("SEC-001", "Good", "low"),
		"en/broken.md":       "# No frontmatter at all\n",
		"en/worse.md": `---
title: Missing the id field
severity: low
description: Incomplete.
---
Body.
`,
	})

	logger, buf := logging.NewTestLogger()
	corpus, err := LoadFS(fsys, logger)
	if err != nil {
		t.Fatalf("Expected broken files to be skipped, not fatal: %v", err)
	}

	if corpus.Len() != 1 {
		t.Errorf("Expected only the valid writeup to load, got %d", corpus.Len())
	}
	if !strings.Contains(buf.String(), "skipping") {
		t.Errorf("Expected skip warnings in the log, got %q", buf.String())
	}
}

func TestLoadFSKeepsFirstDuplicate(t *testing.T) {
	fsys := corpusFS(map[string]string{
		"en/sec-001-first.md":     writeupContent("SEC-001", "First", "low"),
		"en/sec-001-zz-second.md": writeupContent("SEC-001", "Second", "low"),
	})

	logger, buf := logging.NewTestLogger()
	corpus, err := LoadFS(fsys, logger)
	if err != nil {
		t.Fatalf("LoadFS failed: %v", err)
	}

	if corpus.Len() != 1 {
		t.Fatalf("Expected duplicate to be dropped, got %d writeups", corpus.Len())
	}
	r, _ := corpus.Get("SEC-001", "en")
	if r.Title != "First" {
		t.Errorf("Expected the first writeup to win, got %q", r.Title)
	}
	if !strings.Contains(buf.String(), "Duplicate") {
		t.Errorf("Expected a duplicate warning, got %q", buf.String())
	}
}

func TestLoadFSSkipsOversizedFiles(t *testing.T) {
	huge := fmt.Sprintf("---\nid: SEC-002\ntitle: Too big\nseverity: low\ndescription: Huge.\n---\n%s\n",
		strings.Repeat("x", maxRuleFileSize))

	fsys := corpusFS(map[string]string{
		"en/sec-001-small.md": writeupContent("SEC-001", "Small", "low"),
		"en/sec-002-huge.md":  huge,
	})

	corpus, err := LoadFS(fsys, nil)
	if err != nil {
		t.Fatalf("LoadFS failed: %v", err)
	}
	if corpus.Has("SEC-002") {
		t.Error("Expected oversized writeup to be skipped")
	}
	if !corpus.Has("SEC-001") {
		t.Error("Expected normal writeup to survive")
	}
}

func TestLoadFSEmptyCorpus(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{
			name:  "no files at all",
			files: map[string]string{},
		},
		{
			name: "only non-markdown files",
			files: map[string]string{
				"en/readme.txt": "nothing here",
			},
		},
		{
			name: "only broken writeups",
			files: map[string]string{
				"en/broken.md": "no frontmatter",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFS(corpusFS(tt.files), nil)
			if err == nil {
				t.Fatal("Expected an error for a corpus with no valid writeups")
			}
			if !strings.Contains(err.Error(), "no valid writeups") {
				t.Errorf("Unexpected error text: %v", err)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	for _, locale := range []string{"en", "es"} {
		if err := os.MkdirAll(filepath.Join(dir, locale), 0o755); err != nil {
			t.Fatalf("Failed to create locale dir: %v", err)
		}
	}

	files := map[string]string{
		"en/sec-001-command-injection.md": writeupContent("SEC-001", "Command injection", "critical"),
		"es/sec-001-command-injection.md": writeupContent("SEC-001", "Inyección de comandos", "critical"),
	}
	for rel, content := range files {
		if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(rel)), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write fixture: %v", err)
		}
	}

	corpus, err := LoadDir(dir, nil)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if corpus.Len() != 2 {
		t.Errorf("Expected 2 writeups, got %d", corpus.Len())
	}
}

func TestLoadDirRejectsMissingDirectory(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"), nil)
	if err == nil {
		t.Fatal("Expected an error for a nonexistent corpus directory")
	}
}

func TestMaterialize(t *testing.T) {
	source, err := NewCorpus([]Rule{
		sampleRule("SEC-001", "en", "Command injection"),
		sampleRule("SEC-001", "es", "Inyección de comandos"),
		sampleRule("SEC-002", "en", "Path traversal"),
	})
	if err != nil {
		t.Fatalf("NewCorpus failed: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "corpus")
	if err := source.Materialize(dir); err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	reloaded, err := LoadDir(dir, nil)
	if err != nil {
		t.Fatalf("Reloading materialized corpus failed: %v", err)
	}

	if reloaded.Len() != source.Len() {
		t.Errorf("Expected %d writeups after round trip, got %d", source.Len(), reloaded.Len())
	}
	if strings.Join(reloaded.IDs(), ",") != strings.Join(source.IDs(), ",") {
		t.Errorf("IDs changed across materialization: %v != %v", reloaded.IDs(), source.IDs())
	}

	r, found := reloaded.Get("SEC-001", "es")
	if !found || r.Title != "Inyección de comandos" {
		t.Errorf("Expected Spanish writeup to survive, got found=%v title=%q", found, r.Title)
	}
}
