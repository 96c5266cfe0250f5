package format

import (
	"fmt"
	"strings"

	"github.com/hnrobert/etcapi/internal/engine"
)

// Passwd is the /etc/passwd grammar: name:password:uid:gid:gecos:home:shell.
var Passwd = engine.Format[PasswdEntry]{
	Decode:   ParsePasswdLine,
	Encode:   BuildPasswdLine,
	Validate: ValidatePasswd,
	Same:     SamePasswd,
}

func ParsePasswdLine(line string) (PasswdEntry, bool) {
	if !isDataLine(line) {
		return PasswdEntry{}, false
	}
	parts := parseColonLine(line)
	if len(parts) < 7 {
		return PasswdEntry{}, false
	}
	uid, ok := atoi(parts[2])
	if !ok {
		return PasswdEntry{}, false
	}
	gid, ok := atoi(parts[3])
	if !ok {
		return PasswdEntry{}, false
	}
	return PasswdEntry{
		Name:   strings.TrimSpace(parts[0]),
		Passwd: parts[1],
		UID:    uid,
		GID:    gid,
		Gecos:  parts[4],
		Home:   parts[5],
		Shell:  parts[6],
	}, true
}

func BuildPasswdLine(e PasswdEntry) string {
	return fmt.Sprintf("%s:%s:%d:%d:%s:%s:%s",
		e.Name, e.Passwd, e.UID, e.GID, e.Gecos, e.Home, e.Shell)
}

func ValidatePasswd(e PasswdEntry) error {
	if r := usernameReason(e.Name); r != "" {
		return invalid("passwd", e, "username", r)
	}
	if !fieldSafe(e.Passwd) {
		return invalid("passwd", e, "password", "contains invalid characters")
	}
	if e.UID < 0 {
		return invalid("passwd", e, "uid", "must be a non-negative number")
	}
	if e.GID < 0 {
		return invalid("passwd", e, "gid", "must be a non-negative number")
	}
	if !fieldSafe(e.Gecos) {
		return invalid("passwd", e, "gecos", "contains invalid characters")
	}
	if !fieldSafe(e.Home) {
		return invalid("passwd", e, "home", "contains invalid characters")
	}
	if !fieldSafe(e.Shell) {
		return invalid("passwd", e, "shell", "contains invalid characters")
	}
	return nil
}

func SamePasswd(a, b PasswdEntry) bool { return a.Name == b.Name }

// NextUID returns the smallest id above every uid in entries, never below min.
func NextUID(entries []PasswdEntry, min int) int {
	max := min - 1
	for _, e := range entries {
		if e.UID > max {
			max = e.UID
		}
	}
	return max + 1
}
