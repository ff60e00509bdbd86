package errors

import (
	"slices"
	"strings"
	"unicode"
)

// MaxIDLength bounds node IDs, edge names and parent references.
const MaxIDLength = 256

// ValidateID validates a node ID or edge name read from untrusted input.
// kind names the field in the message ("node", "edge name", ...).
//
// The rules are intentionally conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - Maximum length of [MaxIDLength] bytes
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidFormat, "%s ID cannot be empty", kind)
	}

	if len(id) > MaxIDLength {
		return New(ErrCodeInvalidFormat, "%s ID too long (max %d characters)", kind, MaxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidFormat, "%s ID %q contains control characters", kind, id)
		}
	}

	return nil
}

// ValidateFormat checks that format is one of allowed, case-insensitively.
func ValidateFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, strings.ToLower(format)) {
		return nil
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}

// ValidatePath validates an output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
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

	return nil
}

// ValidateURL checks that rawURL uses one of the given schemes.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of the schemes %s", strings.Join(schemes, ", "))
}
