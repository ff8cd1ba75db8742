// Package fileops provides secure file operations with defense-in-depth validation patterns.
//
// This package implements atomic file writes, filesystem scanning, and comprehensive
// security validations to prevent common attacks like path traversal and symlink escapes.
//
// # Security Validation Patterns
//
// For maximum security, combine validation functions in this order:
//
// 1. **Path Security**: ValidatePathSecurity() - Prevents path traversal attacks
// 2. **Storage Safety**: ValidateStoragePath() - Rejects system and reserved directories
// 3. **File Size**: ValidateFileSizeLimit() - Prevents resource exhaustion
// 4. **Filename Hygiene**: SanitizeFilename() - Strips path components from names
//
// # Example: Secure File Processing
//
//	// Comprehensive validation before processing
//	if err := fileops.ValidatePathSecurity(filePath); err != nil {
//	    return fmt.Errorf("path security: %w", err)
//	}
//	if err := fileops.ValidateFileSizeLimit(filePath, 1024*1024); err != nil {
//	    return fmt.Errorf("file size: %w", err)
//	}
//
// # Scanning
//
// ScanFS walks any fs.FS (an embedded corpus, a git checkout opened through
// os.Root) with depth limits and skip patterns. NewDirectoryScanner wraps a
// disk directory in an os.Root so the walk cannot escape the scan boundary,
// even through symlinks.
//
// # Atomic Operations
//
// Use AtomicWrite() for reliable writes that prevent partial files:
//
//	err := fileops.AtomicWrite(destPath, data)
//	// Destination appears atomically or remains unchanged on failure
//
// # Directory Operations
//
// EnsureDirectoryExists() creates directories safely with proper permissions (0755).
package fileops
