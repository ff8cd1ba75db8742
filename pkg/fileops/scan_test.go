package fileops

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"testing/fstest"
)

func markdownFilter(name string) bool {
	return strings.HasSuffix(name, ".md")
}

func TestScanFS(t *testing.T) {
	fsys := fstest.MapFS{
		"en/sec-001.md":          {Data: []byte("# one")},
		"en/sec-002.md":          {Data: []byte("# two")},
		"es/sec-001.md":          {Data: []byte("# uno")},
		"notes.txt":              {Data: []byte("not markdown")},
		".hidden/secret.md":      {Data: []byte("hidden")},
		"node_modules/pkg/x.md":  {Data: []byte("skipped")},
		"deep/a/b/c/d/nested.md": {Data: []byte("deep")},
	}

	t.Run("markdown filter with defaults", func(t *testing.T) {
		files, err := ScanFS(fsys, &DirectoryScanOptions{
			SkipUnreadableDirs: true,
			MaxDepth:           10,
			IncludeHidden:      false,
			SkipPatterns:       getDefaultSkipPatterns(),
			FileFilter:         markdownFilter,
		})
		if err != nil {
			t.Fatalf("ScanFS failed: %v", err)
		}

		var paths []string
		for _, f := range files {
			paths = append(paths, f.Path)
		}
		sort.Strings(paths)

		expected := []string{
			"deep/a/b/c/d/nested.md",
			"en/sec-001.md",
			"en/sec-002.md",
			"es/sec-001.md",
		}
		if len(paths) != len(expected) {
			t.Fatalf("Expected %d files, got %d: %v", len(expected), len(paths), paths)
		}
		for i, p := range expected {
			if paths[i] != p {
				t.Errorf("Expected path %q at index %d, got %q", p, i, paths[i])
			}
		}
	})

	t.Run("depth limit stops recursion", func(t *testing.T) {
		files, err := ScanFS(fsys, &DirectoryScanOptions{
			SkipUnreadableDirs: true,
			MaxDepth:           2,
			IncludeHidden:      false,
			SkipPatterns:       getDefaultSkipPatterns(),
			FileFilter:         markdownFilter,
		})
		if err != nil {
			t.Fatalf("ScanFS failed: %v", err)
		}

		for _, f := range files {
			if strings.HasPrefix(f.Path, "deep/") {
				t.Errorf("File %q should have been beyond the depth limit", f.Path)
			}
		}
	})

	t.Run("hidden directories included when configured", func(t *testing.T) {
		files, err := ScanFS(fsys, &DirectoryScanOptions{
			SkipUnreadableDirs: true,
			MaxDepth:           10,
			IncludeHidden:      true,
			SkipPatterns:       getDefaultSkipPatterns(),
			FileFilter:         markdownFilter,
		})
		if err != nil {
			t.Fatalf("ScanFS failed: %v", err)
		}

		found := false
		for _, f := range files {
			if f.Path == ".hidden/secret.md" {
				found = true
			}
		}
		if !found {
			t.Error("Expected hidden file to be included")
		}
	})

	t.Run("nil options use defaults", func(t *testing.T) {
		files, err := ScanFS(fsys, nil)
		if err != nil {
			t.Fatalf("ScanFS failed: %v", err)
		}
		for _, f := range files {
			if strings.HasPrefix(f.Path, "node_modules/") {
				t.Errorf("Default skip patterns should exclude %q", f.Path)
			}
		}
	})
}

func TestSecureDirectoryScanner(t *testing.T) {
	setupDir := func(t *testing.T) string {
		t.Helper()
		dir := t.TempDir()

		if err := os.MkdirAll(filepath.Join(dir, "en"), 0755); err != nil {
			t.Fatalf("Failed to create subdirectory: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "en", "sec-001.md"), []byte("# rule"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("text"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		return dir
	}

	t.Run("scans markdown files", func(t *testing.T) {
		dir := setupDir(t)

		scanner, err := NewDirectoryScanner(dir, &DirectoryScanOptions{
			SkipUnreadableDirs: true,
			MaxDepth:           5,
			SkipPatterns:       getDefaultSkipPatterns(),
			FileFilter:         markdownFilter,
		})
		if err != nil {
			t.Fatalf("NewDirectoryScanner failed: %v", err)
		}
		defer scanner.Close()

		files, err := scanner.ScanDirectory()
		if err != nil {
			t.Fatalf("ScanDirectory failed: %v", err)
		}

		if len(files) != 1 {
			t.Fatalf("Expected 1 file, got %d", len(files))
		}
		if files[0].Path != "en/sec-001.md" {
			t.Errorf("Expected path en/sec-001.md, got %q", files[0].Path)
		}
	})

	t.Run("reads files within boundary", func(t *testing.T) {
		dir := setupDir(t)

		scanner, err := NewDirectoryScanner(dir, nil)
		if err != nil {
			t.Fatalf("NewDirectoryScanner failed: %v", err)
		}
		defer scanner.Close()

		data, err := fs.ReadFile(scanner.FS(), "en/sec-001.md")
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if string(data) != "# rule" {
			t.Errorf("Unexpected file contents: %q", string(data))
		}
	})

	t.Run("rejects empty scan path", func(t *testing.T) {
		_, err := NewDirectoryScanner("   ", nil)
		if err == nil {
			t.Error("Expected error for empty scan path")
		}
	})

	t.Run("rejects file as scan path", func(t *testing.T) {
		dir := setupDir(t)

		_, err := NewDirectoryScanner(filepath.Join(dir, "readme.txt"), nil)
		if err == nil || !strings.Contains(err.Error(), "not a directory") {
			t.Errorf("Expected not-a-directory error, got: %v", err)
		}
	})

	t.Run("rejects reserved directory", func(t *testing.T) {
		_, err := NewDirectoryScanner("/etc", nil)
		if err == nil {
			t.Error("Expected error for reserved directory")
		}
	})

	t.Run("closed scanner returns error", func(t *testing.T) {
		dir := setupDir(t)

		scanner, err := NewDirectoryScanner(dir, nil)
		if err != nil {
			t.Fatalf("NewDirectoryScanner failed: %v", err)
		}
		scanner.Close()

		if _, err := scanner.ScanDirectory(); err == nil {
			t.Error("Expected error from closed scanner")
		}
	})
}

func TestAtomicWrite(t *testing.T) {
	t.Run("writes new file", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out.md")

		if err := AtomicWrite(dest, []byte("content")); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}

		data, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("Failed to read written file: %v", err)
		}
		if string(data) != "content" {
			t.Errorf("Unexpected contents: %q", string(data))
		}
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out.md")
		if err := os.WriteFile(dest, []byte("old"), 0644); err != nil {
			t.Fatalf("Failed to create existing file: %v", err)
		}

		if err := AtomicWrite(dest, []byte("new")); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}

		data, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("Failed to read written file: %v", err)
		}
		if string(data) != "new" {
			t.Errorf("Unexpected contents: %q", string(data))
		}
	})

	t.Run("no temp file left behind", func(t *testing.T) {
		dir := t.TempDir()
		dest := filepath.Join(dir, "out.md")

		if err := AtomicWrite(dest, []byte("content")); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}

		if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
			t.Error("Temporary file was not cleaned up")
		}
	})

	t.Run("fails for missing destination directory", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "missing", "out.md")

		if err := AtomicWrite(dest, []byte("content")); err == nil {
			t.Error("Expected error for missing destination directory")
		}
	})
}
