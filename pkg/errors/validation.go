package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxPatternSize is the largest pattern source accepted from users, in bytes.
const MaxPatternSize = 256 * 1024

// ValidatePatternSource checks pattern text before it is parsed.
//
// The rules are deliberately shallow; syntax errors are reported by the parser
// with line and column:
//   - No empty patterns
//   - Maximum size of MaxPatternSize bytes
//   - No control characters other than tab, newline and carriage return
func ValidatePatternSource(src string) error {
	if strings.TrimSpace(src) == "" {
		return New(ErrCodeInvalidPattern, "pattern cannot be empty")
	}

	if len(src) > MaxPatternSize {
		return New(ErrCodeInvalidPattern, "pattern too large (max %d bytes)", MaxPatternSize)
	}

	for _, r := range src {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return New(ErrCodeInvalidPattern, "pattern contains invalid control characters")
		}
	}

	return nil
}

// limbNameRegex matches names accepted for mr(n, name) rings and limb settings.
var limbNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]{0,63}$`)

// ValidateLimbName validates the name of a separately started ring.
func ValidateLimbName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidParams, "limb name cannot be empty")
	}
	if !limbNameRegex.MatchString(name) {
		return New(ErrCodeInvalidParams, "invalid limb name: %q", name)
	}
	return nil
}

// sessionIDRegex matches canonical UUID strings.
var sessionIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateSessionID validates a session or result identifier.
func ValidateSessionID(id string) error {
	if !sessionIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid id: %q", id)
	}
	return nil
}

// ValidatePath validates a relative output path for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
