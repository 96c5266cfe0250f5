package format

import (
	"strconv"
	"strings"
)

// isDataLine rejects blank lines and comments.
func isDataLine(line string) bool {
	t := strings.TrimSpace(line)
	return t != "" && !strings.HasPrefix(t, "#")
}

func parseColonLine(line string) []string {
	// Keep trailing empty fields.
	return strings.Split(line, ":")
}

// splitComment cuts value at the first '#'. A doubled "# #" marker counts as
// one.
func splitComment(value string) (string, string) {
	idx := strings.IndexByte(value, '#')
	if idx < 0 {
		return value, ""
	}
	comment := strings.Replace(value[idx+1:], "#", "", 1)
	return value[:idx], strings.TrimSpace(comment)
}

func atoi(field string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, false
	}
	return n, true
}

func optionalInt(field string) (*int, bool) {
	if field == "" {
		return nil, true
	}
	n, ok := atoi(field)
	if !ok {
		return nil, false
	}
	return &n, true
}

func itoaPtr(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
