package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxNameLength bounds collection and document names.
const maxNameLength = 200

// nameRegex matches collection and document names accepted by stores and routes.
var nameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateName validates a collection or document name.
// Names end up in file paths and database keys, so anything that could
// traverse directories or inject control characters is rejected.
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidName, "name contains invalid characters: %q", pattern)
		}
	}

	if !nameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid name: %q", name)
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
