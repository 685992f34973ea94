// Package validation holds the regex-backed identifier validators shared
// across the protocol core: tool names, extension names, and session ids.
package validation

import (
	"fmt"
	"regexp"
)

var (
	// toolNameRegex matches valid tool names: alphanumeric, dash, underscore.
	toolNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// extensionNameRegex matches "namespace/name" extension identifiers.
	extensionNameRegex = regexp.MustCompile(`^[a-z0-9-]+/[a-z0-9-]+$`)

	// sessionIDRegex matches the base64url (RFC 4648 §5, no padding)
	// encoding of the 18 random bytes session.generateSessionID produces —
	// 24 characters of the unpadded base64url alphabet.
	sessionIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{24}$`)
)

// ValidateToolName checks that name is a legal tool identifier.
func ValidateToolName(name string) error {
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if !toolNameRegex.MatchString(name) {
		return fmt.Errorf("invalid tool name %q: must match %s", name, toolNameRegex.String())
	}
	return nil
}

// ValidateExtensionName checks that name is a legal "namespace/name" extension identifier.
func ValidateExtensionName(name string) error {
	if name == "" {
		return fmt.Errorf("extension name cannot be empty")
	}
	if !extensionNameRegex.MatchString(name) {
		return fmt.Errorf("invalid extension name %q: must match %s", name, extensionNameRegex.String())
	}
	return nil
}

// ValidateSessionID checks that id is a valid base64url session identifier.
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	if !sessionIDRegex.MatchString(id) {
		return fmt.Errorf("invalid session ID format: %s", id)
	}
	return nil
}
