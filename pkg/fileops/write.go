package fileops

import (
	"fmt"
	"os"
)

// AtomicWrite writes data to destPath atomically. The destination file either
// appears fully written or not at all.
//
// The function uses a temporary file approach:
//  1. Creates a temporary file in the destination directory
//  2. Writes all data to the temporary file
//  3. Syncs data to disk to ensure durability
//  4. Atomically renames the temporary file to the final destination
//
// Parameters:
//   - destPath: Absolute path to the destination file
//   - data: File contents to write
//
// Returns:
//   - error: Write operation errors, including destination creation or
//     filesystem errors
//
// Security considerations:
//   - The destination path should be validated before calling this function
//   - Temporary files are cleaned up on any failure
//   - File permissions are set to 0644
//
// Usage example:
//
//	if err := fileops.AtomicWrite("/path/to/dest.md", content); err != nil {
//	    log.Fatalf("Write failed: %v", err)
//	}
//
// Note: This function requires write permissions in the destination directory
// and will overwrite existing files without warning.
func AtomicWrite(destPath string, data []byte) error {
	// Create temporary file in same directory as destination
	tempPath := destPath + ".tmp"
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	// Ensure cleanup of temp file if anything goes wrong
	var writeSuccess bool
	defer func() {
		tempFile.Close()
		if !writeSuccess {
			os.Remove(tempPath) // Clean up on failure
		}
	}()

	// Write file contents
	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write file contents: %w", err)
	}

	// Sync to ensure data is written to disk
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}

	// Close temp file before rename
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	// Atomic rename - this is the atomic operation
	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath) // Clean up temp file
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	writeSuccess = true
	return nil
}

// EnsureDirectoryExists creates a directory and all necessary parent directories.
// This is equivalent to `mkdir -p` and is safe to call multiple times.
//
// Parameters:
//   - path: Directory path to create
//
// Returns:
//   - error: Directory creation errors
//
// The function sets directory permissions to 0755 (readable and executable by all,
// writable by owner only).
//
// Usage example:
//
//	if err := fileops.EnsureDirectoryExists("/path/to/nested/directory"); err != nil {
//	    log.Fatalf("Failed to create directory: %v", err)
//	}
func EnsureDirectoryExists(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}
