package format

import (
	"net/netip"
	"regexp"
	"strings"

	"github.com/hnrobert/etcapi/internal/engine"
)

var hostnameRe = regexp.MustCompile(`^[a-z.\-0-9]+$`)

// Hosts is the /etc/hosts grammar:
//
//	<address>\t<hostname> [alias...] [# comment]
//
// Two records are the same host when address and hostname match.
var Hosts = engine.Format[HostEntry]{
	Decode:   ParseHostLine,
	Encode:   BuildHostLine,
	Validate: ValidateHost,
	Same:     SameHost,
}

// HostsDB is the grammar of the makedb-backed hosts database, which keeps no
// comments.
var HostsDB = engine.Format[HostEntry]{
	Decode:   ParseHostLine,
	Encode:   BuildHostDBLine,
	Validate: ValidateHost,
	Same:     SameHost,
}

func ParseHostLine(line string) (HostEntry, bool) {
	if !isDataLine(line) {
		return HostEntry{}, false
	}
	value, comment := splitComment(strings.TrimSpace(line))
	parts := strings.Fields(value)
	if len(parts) < 2 {
		return HostEntry{}, false
	}
	e := HostEntry{
		Address:  parts[0],
		Hostname: parts[1],
		Aliases:  append([]string{}, parts[2:]...),
		Comment:  comment,
	}
	if ValidateHost(e) != nil {
		return HostEntry{}, false
	}
	return e, true
}

func BuildHostLine(e HostEntry) string {
	line := BuildHostDBLine(e)
	if e.Comment != "" {
		line += " # " + e.Comment
	}
	return line
}

func BuildHostDBLine(e HostEntry) string {
	var b strings.Builder
	b.WriteString(e.Address)
	b.WriteByte('\t')
	b.WriteString(e.Hostname)
	for _, a := range e.Aliases {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	return b.String()
}

func ValidateHost(e HostEntry) error {
	if _, err := netip.ParseAddr(e.Address); err != nil {
		return invalid("hosts", e, "address", "Invalid IP address")
	}
	if !hostnameRe.MatchString(e.Hostname) {
		return invalid("hosts", e, "hostname", "Invalid hostname")
	}
	for _, a := range e.Aliases {
		if !hostnameRe.MatchString(a) {
			return invalid("hosts", e, "aliases", "Invalid alias")
		}
	}
	if strings.ContainsRune(e.Comment, '\n') {
		return invalid("hosts", e, "comment", "must be a single line")
	}
	return nil
}

func SameHost(a, b HostEntry) bool {
	return a.Address == b.Address && a.Hostname == b.Hostname
}
