package format

import (
	"fmt"
	"strings"

	"github.com/hnrobert/etcapi/internal/engine"
)

// Group is the /etc/group grammar: name:password:gid:member,member.
var Group = engine.Format[GroupEntry]{
	Decode:   ParseGroupLine,
	Encode:   BuildGroupLine,
	Validate: ValidateGroup,
	Same:     SameGroup,
}

func ParseGroupLine(line string) (GroupEntry, bool) {
	if !isDataLine(line) {
		return GroupEntry{}, false
	}
	parts := parseColonLine(line)
	if len(parts) < 4 {
		return GroupEntry{}, false
	}
	gid, ok := atoi(parts[2])
	if !ok {
		return GroupEntry{}, false
	}
	return GroupEntry{
		Name:    strings.TrimSpace(parts[0]),
		Passwd:  parts[1],
		GID:     gid,
		Members: splitList(strings.TrimSpace(parts[3])),
	}, true
}

func BuildGroupLine(e GroupEntry) string {
	return fmt.Sprintf("%s:%s:%d:%s", e.Name, e.Passwd, e.GID, strings.Join(e.Members, ","))
}

func ValidateGroup(e GroupEntry) error {
	if r := usernameReason(e.Name); r != "" {
		return invalid("group", e, "name", r)
	}
	if !fieldSafe(e.Passwd) {
		return invalid("group", e, "password", "contains invalid characters")
	}
	if e.GID < 0 {
		return invalid("group", e, "gid", "must be a non-negative number")
	}
	for _, m := range e.Members {
		if !ValidUsername(m) {
			return invalid("group", e, "members", "contains an invalid username")
		}
	}
	return nil
}

func SameGroup(a, b GroupEntry) bool { return a.Name == b.Name }

// HasMember reports whether user is listed in g.
func (g GroupEntry) HasMember(user string) bool {
	for _, m := range g.Members {
		if m == user {
			return true
		}
	}
	return false
}
