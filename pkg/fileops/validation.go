package fileops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ValidatePathSecurity performs comprehensive security validation on a file path.
// This function checks for common path traversal attacks and dangerous path patterns.
//
// The function validates:
//   - Path traversal attempts using ".." sequences
//   - Empty or whitespace-only paths
//   - Absolute paths that resolve to reserved system directories
//
// Parameters:
//   - path: The file path to validate
//
// Returns:
//   - error: Validation errors if the path is considered unsafe
//
// Security considerations:
//   - This function performs static analysis and does not access the filesystem
//   - Additional validation may be needed for specific use cases
//
// Usage example:
//
//	if err := fileops.ValidatePathSecurity("../../etc/passwd"); err != nil {
//	    log.Printf("Unsafe path detected: %v", err)
//	    return err
//	}
func ValidatePathSecurity(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}

	// Check for path traversal in raw input
	if strings.Contains(path, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	// Clean and re-check for traversal
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	// Additional check for absolute paths that might be dangerous
	if filepath.IsAbs(path) {
		if IsReservedDirectory(cleanPath) {
			return fmt.Errorf("path traversal not allowed")
		}
	}

	return nil
}

// SanitizeFilename sanitizes a filename by removing or replacing dangerous characters.
// This function helps ensure filenames are safe for filesystem operations.
//
// Parameters:
//   - filename: The filename to sanitize
//
// Returns:
//   - string: Sanitized filename
//   - error: Validation errors for completely invalid filenames
//
// The function:
//   - Removes path components - uses only the base name
//   - Trims whitespace
//   - Validates against reserved names
//   - Ensures the filename is not empty after sanitization
//
// Usage example:
//
//	clean, err := fileops.SanitizeFilename("../../../etc/passwd")
//	if err != nil {
//	    return err
//	}
//	// clean will be "passwd" (safe to use)
func SanitizeFilename(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	// Remove any path components - use only the base name
	clean := filepath.Base(filename)

	// Additional cleaning: remove any remaining dangerous patterns
	clean = strings.ReplaceAll(clean, "..", "")
	clean = strings.TrimSpace(clean)

	// Check for reserved names
	if clean == "" || clean == "." || clean == ".." {
		return "", fmt.Errorf("invalid filename after sanitization: %q", filename)
	}

	// Check for path separators that might have survived
	if strings.ContainsAny(clean, `/`) {
		return "", fmt.Errorf("filename contains path separators: %q", clean)
	}

	return clean, nil
}

// ExpandPath expands a path that starts with "~/" to the user's home directory.
// This is a utility function for handling user home directory shortcuts.
//
// Parameters:
//   - path: The path to expand, which may start with "~/"
//
// Returns:
//   - string: The expanded path, or the original path if it doesn't start with "~/"
//
// Usage example:
//
//	expanded := fileops.ExpandPath("~/Documents/file.txt")
//	// Returns something like "/home/user/Documents/file.txt"
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// IsReservedDirectory checks if the path is a system or reserved directory
// that should not be used for application data storage. This function helps
// prevent applications from accidentally writing to critical system locations.
//
// Parameters:
//   - path: The path to check
//
// Returns:
//   - bool: true if the path is reserved/dangerous, false otherwise
//
// The function checks:
//   - System directories (like /etc, /bin, C:\Windows, etc.)
//   - Critical user directories (like ~/.ssh, ~/.gnupg)
//   - Resolves symlinks to check final destinations
//   - Platform-specific reserved locations
//
// Usage example:
//
//	if fileops.IsReservedDirectory("/etc/passwd") {
//	    return fmt.Errorf("cannot use system directory")
//	}
func IsReservedDirectory(path string) bool {
	// Convert to absolute path for comparison
	absPath, err := filepath.Abs(path)
	if err != nil {
		return true // If we can't resolve it, treat as reserved
	}
	absPath = filepath.Clean(absPath)

	// Resolve any symlinks in the path for comparison
	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err == nil {
		absPath = resolvedPath // Use resolved path if available
	}

	// Always treat root as reserved
	if absPath == "/" || absPath == "\\" || absPath == "C:\\" {
		return true
	}

	absPath = filepath.Clean(absPath)
	reservedDirs := getReservedDirectories()

	for _, reserved := range reservedDirs {
		// Canonicalize the reserved directory
		reservedAbs, err := filepath.Abs(reserved)
		if err != nil {
			continue
		}
		resolvedReserved, err := filepath.EvalSymlinks(reservedAbs)
		if err == nil {
			reservedAbs = filepath.Clean(resolvedReserved)
		} else {
			reservedAbs = filepath.Clean(reservedAbs)
		}

		// Exact match
		if strings.EqualFold(absPath, reservedAbs) {
			return true
		}

		// Child directory match - but with exceptions
		reservedPrefix := strings.ToLower(reserved) + string(os.PathSeparator)
		pathLower := strings.ToLower(absPath)

		if strings.HasPrefix(pathLower, reservedPrefix) {
			// Exception: Allow user temp directories
			if isUserTempDirectory(absPath) {
				continue
			}
			return true
		}
	}

	return false
}

// getReservedDirectories returns platform-specific reserved directories
func getReservedDirectories() []string {
	var reservedDirs []string

	switch runtime.GOOS {
	case "windows":
		reservedDirs = []string{
			"C:\\Windows",
			"C:\\Program Files",
			"C:\\Program Files (x86)",
			"C:\\System32",
			"C:\\ProgramData\\Microsoft", // More specific
		}

	case "darwin": // macOS
		reservedDirs = []string{
			"/System",
			"/usr/bin",
			"/usr/sbin",
			"/bin",
			"/sbin",
			"/etc",
			"/var/log",  // More specific - not all of /var
			"/var/db",   // More specific
			"/var/root", // More specific
			"/Library/System",
			"/Applications", // System apps
			"/private/etc",
		}

	default: // Linux and other Unix
		reservedDirs = []string{
			"/bin",
			"/sbin",
			"/usr/bin",
			"/usr/sbin",
			"/etc",
			"/boot",
			"/dev",
			"/proc",
			"/sys",
			"/var/log",   // More specific
			"/var/lib",   // More specific
			"/var/cache", // More specific
			"/root",
		}
	}

	// Add current user's system directories to avoid
	if home, err := os.UserHomeDir(); err == nil {
		// Avoid critical user directories
		systemUserDirs := []string{
			filepath.Join(home, ".ssh"),
			filepath.Join(home, ".gnupg"),
		}
		reservedDirs = append(reservedDirs, systemUserDirs...)
	}

	return reservedDirs
}

// isUserTempDirectory detects legitimate user temp directories
func isUserTempDirectory(path string) bool {
	// macOS: /var/folders/xx/yyyy/T/ are user temp dirs
	if runtime.GOOS == "darwin" {
		if strings.Contains(path, "/var/folders/") {
			return true
		}
	}

	// Linux: /tmp is usually safe, /var/tmp may be safe
	if runtime.GOOS == "linux" {
		if strings.HasPrefix(path, "/tmp/") || path == "/tmp" {
			return true
		}
	}

	// Windows: temp directories under user profile
	if runtime.GOOS == "windows" {
		if strings.Contains(strings.ToLower(path), "\\temp\\") ||
			strings.Contains(strings.ToLower(path), "\\tmp\\") {
			return true
		}
	}

	// Check if path is under system temp directory
	systemTemp := os.TempDir()
	cleanSystemTemp := filepath.Clean(systemTemp)
	cleanPath := filepath.Clean(path)

	if strings.HasPrefix(cleanPath, cleanSystemTemp) {
		return true
	}

	return false
}

// ValidateDirectoryWritable tests if a directory is writable by creating a test file.
// This function has side effects and should be called after path validation.
//
// Parameters:
//   - dirPath: The directory path to test for write permissions
//
// Returns:
//   - error: Write permission validation errors
//
// The function:
//   - Creates the directory if it doesn't exist
//   - Tests write permissions by creating a temporary test file
//   - Cleans up the test file after verification
//   - Returns error if directory creation or write test fails
//
// Usage example:
//
//	if err := fileops.ValidateDirectoryWritable("/path/to/dir"); err != nil {
//	    return fmt.Errorf("directory not writable: %w", err)
//	}
func ValidateDirectoryWritable(dirPath string) error {
	expandedPath := ExpandPath(strings.TrimSpace(dirPath))

	// Create directory if it doesn't exist
	if err := EnsureDirectoryExists(expandedPath); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	// Test write permissions
	testFile := filepath.Join(expandedPath, ".fileops-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return fmt.Errorf("no write permission in directory: %w", err)
	}

	// Clean up test file; the directory is usable even if removal fails
	os.Remove(testFile)

	return nil
}

// ValidateStoragePath performs comprehensive validation for storage directory paths.
// This function combines multiple security and accessibility checks for directory paths
// intended for application data storage.
//
// Parameters:
//   - path: The storage directory path to validate
//
// Returns:
//   - error: Validation errors if the path is unsafe or unsuitable
//
// The function validates:
//   - Path is not empty or whitespace-only
//   - Basic path security (no traversal attempts)
//   - Path must be absolute or relative to home directory (~/)
//   - Symlink security (resolved paths don't point to reserved directories)
//   - Reserved directory protection (system directories are rejected)
//   - Parent directory accessibility
//
// Usage example:
//
//	if err := fileops.ValidateStoragePath("~/Documents/myapp"); err != nil {
//	    return fmt.Errorf("invalid storage path: %w", err)
//	}
func ValidateStoragePath(path string) error {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return fmt.Errorf("storage directory cannot be empty")
	}

	// Use basic path security validation
	if err := ValidatePathSecurity(trimmedPath); err != nil {
		return err
	}

	expandedPath := ExpandPath(trimmedPath)

	// Check if it's an absolute path or relative to home
	if !filepath.IsAbs(expandedPath) && !strings.HasPrefix(trimmedPath, "~/") {
		return fmt.Errorf("path must be absolute or relative to home directory (~)")
	}

	// Check for symlink security: ensure symlinks don't point to reserved directories
	if resolved, err := filepath.EvalSymlinks(expandedPath); err == nil {
		if IsReservedDirectory(resolved) {
			return fmt.Errorf("path resolves to reserved directory")
		}
	}

	// Check for reserved directories (after symlink checks)
	if IsReservedDirectory(expandedPath) {
		return fmt.Errorf("cannot use system or reserved directories")
	}

	// Check if parent directory exists and is accessible
	parentDir := filepath.Dir(expandedPath)
	if parentDir != "." {
		if _, err := os.Stat(parentDir); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("parent directory does not exist: %s", parentDir)
			}
			return fmt.Errorf("cannot access parent directory: %w", err)
		}
	}

	return nil
}

// ValidateFileSizeLimit checks if a file size is within acceptable limits.
// This function helps prevent memory exhaustion from very large files.
//
// Parameters:
//   - filePath: Path to the file to check
//   - maxSize: Maximum allowed file size in bytes
//
// Returns:
//   - error: Validation error if file exceeds size limit or cannot be accessed
//
// Usage example:
//
//	// Limit files to 1MB
//	if err := fileops.ValidateFileSizeLimit("/path/to/file.md", 1024*1024); err != nil {
//	    return fmt.Errorf("file too large: %w", err)
//	}
func ValidateFileSizeLimit(filePath string, maxSize int64) error {
	if maxSize <= 0 {
		return fmt.Errorf("invalid size limit: %d", maxSize)
	}

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filepath.Base(filePath))
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if fileInfo.Size() > maxSize {
		return fmt.Errorf("file size %d bytes exceeds limit %d bytes", fileInfo.Size(), maxSize)
	}

	return nil
}

// IsDirEmpty reports whether the directory at path contains no entries.
//
// Parameters:
//   - path: Directory path to check
//
// Returns:
//   - bool: true if the directory is empty
//   - error: Access errors, including path not existing or not being a directory
func IsDirEmpty(path string) (bool, error) {
	dir, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("cannot open directory: %w", err)
	}
	defer dir.Close()

	// Reading a single name is enough to know the answer
	_, err = dir.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("cannot read directory: %w", err)
	}
	return false, nil
}
