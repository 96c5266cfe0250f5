package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidEntry = errors.New("invalid entry")

// ValidationError names the first field of an entry that failed validation.
type ValidationError struct {
	Kind   string
	Field  string
	Reason string
	Entry  any
}

func (e *ValidationError) Error() string {
	b, _ := json.Marshal(e.Entry)
	if e.Field == "" {
		return fmt.Sprintf("Invalid %s entry: %s", e.Kind, b)
	}
	return fmt.Sprintf("Invalid %s entry: \"%s\" %s. %s", e.Kind, e.Field, e.Reason, b)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidEntry
}

func invalid(kind string, entry any, field, reason string) error {
	return &ValidationError{Kind: kind, Field: field, Reason: reason, Entry: entry}
}

var usernameRe = regexp.MustCompile(`^[a-z_][a-z0-9_-]*[$]?$`)

// ValidUsername enforces the shadow-utils username rules: at most 31
// characters, lowercase letters, digits, underscore and dash, starting with a
// letter or underscore, optionally ending in '$'.
func ValidUsername(u string) bool {
	return usernameReason(u) == ""
}

func usernameReason(u string) string {
	switch {
	case len(u) < 1:
		return "must be at least 1 character"
	case len(u) > 31:
		return "must be at most 31 characters"
	case !usernameRe.MatchString(u):
		return "contains invalid characters"
	}
	return ""
}

// fieldSafe reports whether s can be stored in a colon separated field.
func fieldSafe(s string) bool {
	return !strings.ContainsAny(s, ":\n")
}
