package errors

import (
	"regexp"
	"unicode"

	"github.com/google/uuid"
)

// presetKeyRegex matches catalog keys: lowercase, digits, dash and underscore.
var presetKeyRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidatePresetKey validates a preset catalog key.
//
// Keys appear in URLs and file names, so the rules are conservative:
//   - No empty keys
//   - Maximum length of 64 characters
//   - Lowercase letters, digits, '-' and '_' only
func ValidatePresetKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "preset key cannot be empty")
	}
	if len(key) > 64 {
		return New(ErrCodeInvalidInput, "preset key too long (max 64 characters)")
	}
	if !presetKeyRegex.MatchString(key) {
		return New(ErrCodeInvalidInput, "invalid preset key: %q", key)
	}
	return nil
}

// ValidateNodeID validates a node id received from outside the process
// (URL path, TUI input). Graph descriptions themselves are never rejected
// because of their ids.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "node id too long (max 256 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid control characters")
		}
	}
	return nil
}

// ValidateSessionID checks that a session id is a well-formed UUID.
func ValidateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return Wrap(ErrCodeSessionNotFound, err, "malformed session id")
	}
	return nil
}
