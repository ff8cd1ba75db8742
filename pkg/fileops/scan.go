package fileops

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// DirectoryScanOptions configures the behavior of filesystem scanning operations.
// These options provide fine-grained control over what gets scanned and how.
type DirectoryScanOptions struct {
	// SkipUnreadableDirs determines whether to skip directories that cannot be read
	// or to return an error. Setting to true makes scanning more resilient.
	SkipUnreadableDirs bool

	// MaxDepth limits the maximum recursion depth for directory traversal.
	// This prevents runaway recursion from deep directory structures.
	MaxDepth int

	// IncludeHidden determines whether to include files and directories that start with '.'
	// Setting to false will skip hidden files and directories.
	IncludeHidden bool

	// SkipPatterns contains directory names that should be skipped during scanning.
	// These are exact matches against directory names (not full paths).
	SkipPatterns []string

	// FileFilter is an optional function that determines whether a file should be included.
	// If nil, all files are included. If provided, only files for which this returns true are included.
	FileFilter func(filename string) bool
}

// FileInfo represents information about a discovered file during scanning.
// This provides a platform-independent view of file metadata.
type FileInfo struct {
	// Name is the base filename without path components
	Name string

	// Path is the slash-separated path from the scan root to this file
	Path string

	// Size is the file size in bytes
	Size int64

	// ModTime is the last modification time (zero for embedded filesystems)
	ModTime time.Time

	// Mode contains the file mode and permission bits
	Mode fs.FileMode
}

// ScanFS recursively walks fsys from its root and returns the files matching
// the configured options.
//
// Any fs.FS works: an embed.FS holding bundled content, os.DirFS, or the FS
// view of an os.Root. Walking through fs.FS never follows symbolic links,
// since directory entries carry lstat semantics, so symlinked directories are
// simply not descended into.
//
// Parameters:
//   - fsys: Filesystem to walk
//   - opts: Scanning options (if nil, sensible defaults are used)
//
// Returns:
//   - []FileInfo: Discovered files matching the configured criteria
//   - error: Scanning errors
//
// Usage example:
//
//	files, err := fileops.ScanFS(corpusFS, &fileops.DirectoryScanOptions{
//	    MaxDepth:   5,
//	    FileFilter: func(name string) bool { return strings.HasSuffix(name, ".md") },
//	})
func ScanFS(fsys fs.FS, opts *DirectoryScanOptions) ([]FileInfo, error) {
	if opts == nil {
		opts = getDefaultScanOptions()
	}

	var results []FileInfo
	if err := scanFS(fsys, ".", 1, opts, &results); err != nil {
		return nil, fmt.Errorf("filesystem scan failed: %w", err)
	}
	return results, nil
}

// scanFS performs the actual recursive walk.
func scanFS(fsys fs.FS, dir string, depth int, opts *DirectoryScanOptions, out *[]FileInfo) error {
	// Silently stop at max depth
	if depth > opts.MaxDepth {
		return nil
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if opts.SkipUnreadableDirs {
			return nil
		}
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		entryPath := path.Join(dir, entry.Name())

		if entry.IsDir() {
			if shouldSkipDirectory(entry.Name(), opts) {
				continue
			}
			if err := scanFS(fsys, entryPath, depth+1, opts, out); err != nil {
				return err
			}
			continue
		}

		if !shouldIncludeFile(entry.Name(), opts) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if opts.SkipUnreadableDirs {
				continue
			}
			return fmt.Errorf("failed to get file info for %s: %w", entryPath, err)
		}

		*out = append(*out, FileInfo{
			Name:    entry.Name(),
			Path:    entryPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
		})
	}

	return nil
}

// shouldSkipDirectory determines if a directory should be skipped based on configured rules.
func shouldSkipDirectory(dirName string, opts *DirectoryScanOptions) bool {
	if !opts.IncludeHidden && strings.HasPrefix(dirName, ".") {
		return true
	}
	return slices.Contains(opts.SkipPatterns, dirName)
}

// shouldIncludeFile determines if a file should be included based on configured rules.
func shouldIncludeFile(fileName string, opts *DirectoryScanOptions) bool {
	if !opts.IncludeHidden && strings.HasPrefix(fileName, ".") {
		return false
	}
	if opts.FileFilter != nil {
		return opts.FileFilter(fileName)
	}
	return true
}

// getDefaultScanOptions returns sensible default scanning options.
func getDefaultScanOptions() *DirectoryScanOptions {
	return &DirectoryScanOptions{
		SkipUnreadableDirs: true,
		MaxDepth:           20,
		IncludeHidden:      false,
		SkipPatterns:       getDefaultSkipPatterns(),
		FileFilter:         nil, // Include all files by default
	}
}

// getDefaultSkipPatterns returns commonly skipped directory patterns.
func getDefaultSkipPatterns() []string {
	return []string{
		"node_modules",
		".git",
		"vendor",
		"target",
		"build",
		".next",
		"dist",
		".cache",
		"__pycache__",
		".vscode",
		".idea",
	}
}

// SecureDirectoryScanner provides secure, configurable directory scanning with
// built-in protection against directory traversal and symlink attacks.
//
// The scanner operates within a security boundary defined by an os.Root,
// preventing access to files outside the designated scan area.
type SecureDirectoryScanner struct {
	// root defines the security boundary for scanning operations
	root *os.Root

	// opts contains the scanning configuration
	opts *DirectoryScanOptions

	// scanRoot stores the absolute path of the scan root
	scanRoot string
}

// NewDirectoryScanner creates a new secure directory scanner for the given path.
//
// Parameters:
//   - scanPath: The directory path to scan (can be relative or absolute)
//   - opts: Scanning options (if nil, sensible defaults are used)
//
// Returns:
//   - *SecureDirectoryScanner: Configured scanner instance
//   - error: Setup errors including path validation and access issues
//
// Security considerations:
//   - Creates a secure root to prevent directory escapes
//   - Validates the scan path before creating the scanner
//   - Rejects reserved/system directories outright
//
// Usage example:
//
//	scanner, err := fileops.NewDirectoryScanner("~/rules", nil)
//	if err != nil {
//	    return fmt.Errorf("failed to create scanner: %w", err)
//	}
//	defer scanner.Close()
func NewDirectoryScanner(scanPath string, opts *DirectoryScanOptions) (*SecureDirectoryScanner, error) {
	if opts == nil {
		opts = getDefaultScanOptions()
	}

	if strings.TrimSpace(scanPath) == "" {
		return nil, fmt.Errorf("scan path cannot be empty")
	}

	// Expand tilde and resolve to absolute path for security
	expandedPath := ExpandPath(scanPath)
	absPath, err := filepath.Abs(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve scan path: %w", err)
	}

	// Validate path security
	if err := ValidatePathSecurity(absPath); err != nil {
		return nil, fmt.Errorf("scan path security validation failed: %w", err)
	}

	// Always block reserved directories - no legitimate use case for scanning system directories
	if IsReservedDirectory(absPath) {
		return nil, fmt.Errorf("cannot scan reserved/system directory: %s", absPath)
	}

	// Check that the path exists and is a directory
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access scan path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan path is not a directory: %s", absPath)
	}

	// Create secure root for the scan area
	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot create secure scan root: %w", err)
	}

	return &SecureDirectoryScanner{
		root:     root,
		opts:     opts,
		scanRoot: absPath,
	}, nil
}

// Root returns the absolute path of the scan root.
func (s *SecureDirectoryScanner) Root() string {
	return s.scanRoot
}

// Close releases resources associated with the scanner.
// This should be called when the scanner is no longer needed.
func (s *SecureDirectoryScanner) Close() error {
	if s.root != nil {
		err := s.root.Close()
		s.root = nil
		return err
	}
	return nil
}

// ScanDirectory performs a recursive scan of the configured directory.
//
// Returns:
//   - []FileInfo: List of discovered files matching the configured criteria
//   - error: Scanning errors
//
// The scan respects all configured options including depth limits, skip patterns,
// and file filters. The scan is performed securely within the root boundary.
func (s *SecureDirectoryScanner) ScanDirectory() ([]FileInfo, error) {
	if s.root == nil {
		return nil, fmt.Errorf("scanner has been closed")
	}
	return ScanFS(s.root.FS(), s.opts)
}

// FS returns a read-only filesystem view of the scan boundary. Reads go
// through the secure root, so paths cannot escape the scan area, even
// through symlinks. Returns nil after Close.
func (s *SecureDirectoryScanner) FS() fs.FS {
	if s.root == nil {
		return nil
	}
	return s.root.FS()
}
