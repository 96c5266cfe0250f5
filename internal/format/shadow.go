package format

import (
	"fmt"
	"strings"

	"github.com/hnrobert/etcapi/internal/engine"
)

// Shadow is the /etc/shadow grammar. Lines with fewer than eight fields are
// not entries; a missing reserved field is treated as empty.
var Shadow = engine.Format[ShadowEntry]{
	Decode:   ParseShadowLine,
	Encode:   BuildShadowLine,
	Validate: ValidateShadow,
	Same:     SameShadow,
}

func ParseShadowLine(line string) (ShadowEntry, bool) {
	if !isDataLine(line) {
		return ShadowEntry{}, false
	}
	parts := parseColonLine(line)
	if len(parts) < 8 {
		return ShadowEntry{}, false
	}
	for len(parts) < 9 {
		parts = append(parts, "")
	}
	var (
		e  = ShadowEntry{Name: strings.TrimSpace(parts[0]), Hash: parts[1], Reserved: parts[8]}
		ok bool
	)
	if e.LastChange, ok = atoi(parts[2]); !ok {
		return ShadowEntry{}, false
	}
	if e.Min, ok = atoi(parts[3]); !ok {
		return ShadowEntry{}, false
	}
	if e.Max, ok = atoi(parts[4]); !ok {
		return ShadowEntry{}, false
	}
	if e.Warn, ok = atoi(parts[5]); !ok {
		return ShadowEntry{}, false
	}
	if e.Inactive, ok = optionalInt(parts[6]); !ok {
		return ShadowEntry{}, false
	}
	if e.Expire, ok = optionalInt(parts[7]); !ok {
		return ShadowEntry{}, false
	}
	return e, true
}

func BuildShadowLine(e ShadowEntry) string {
	return fmt.Sprintf("%s:%s:%d:%d:%d:%d:%s:%s:%s",
		e.Name, e.Hash, e.LastChange, e.Min, e.Max, e.Warn,
		itoaPtr(e.Inactive), itoaPtr(e.Expire), e.Reserved)
}

func ValidateShadow(e ShadowEntry) error {
	if r := usernameReason(e.Name); r != "" {
		return invalid("shadow", e, "username", r)
	}
	if !fieldSafe(e.Hash) {
		return invalid("shadow", e, "password", "contains invalid characters")
	}
	if _, err := PasswordType(e.Hash); err != nil {
		return invalid("shadow", e, "password", "is not a known password hash")
	}
	if e.Inactive != nil && *e.Inactive < 0 {
		return invalid("shadow", e, "inactive", "must be a non-negative number")
	}
	if e.Expire != nil && *e.Expire < 0 {
		return invalid("shadow", e, "expire", "must be a non-negative number")
	}
	if !fieldSafe(e.Reserved) {
		return invalid("shadow", e, "reserved", "contains invalid characters")
	}
	return nil
}

func SameShadow(a, b ShadowEntry) bool { return a.Name == b.Name }
