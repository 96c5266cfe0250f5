package format

import (
	"strconv"
	"strings"

	"github.com/hnrobert/etcapi/internal/engine"
)

// Services is the /etc/services grammar:
//
//	<service>    <port>/<protocol> [alias...] [# comment]
var Services = engine.Format[ServiceEntry]{
	Decode:   ParseServiceLine,
	Encode:   BuildServiceLine,
	Validate: ValidateService,
	Same:     SameService,
}

func ParseServiceLine(line string) (ServiceEntry, bool) {
	if !isDataLine(line) {
		return ServiceEntry{}, false
	}
	value, comment := splitComment(strings.TrimSpace(line))
	parts := strings.Fields(value)
	if len(parts) < 2 {
		return ServiceEntry{}, false
	}
	port, proto, found := strings.Cut(parts[1], "/")
	if !found {
		return ServiceEntry{}, false
	}
	n, ok := atoi(port)
	if !ok {
		return ServiceEntry{}, false
	}
	e := ServiceEntry{
		Service:  parts[0],
		Port:     n,
		Protocol: proto,
		Aliases:  append([]string{}, parts[2:]...),
		Comment:  comment,
	}
	if ValidateService(e) != nil {
		return ServiceEntry{}, false
	}
	return e, true
}

func BuildServiceLine(e ServiceEntry) string {
	line := e.Service + "    " + strconv.Itoa(e.Port) + "/" + e.Protocol
	if len(e.Aliases) > 0 {
		line += " " + strings.Join(e.Aliases, " ")
	}
	if e.Comment != "" {
		line += " # " + e.Comment
	}
	return line
}

func ValidateService(e ServiceEntry) error {
	if e.Service == "" || strings.ContainsAny(e.Service, " \t\n#/") {
		return invalid("services", e, "service", "must be a single word")
	}
	if e.Port < 1 || e.Port > 65535 {
		return invalid("services", e, "port", "must be between 1 and 65535")
	}
	if e.Protocol == "" || strings.ContainsAny(e.Protocol, " \t\n#/") {
		return invalid("services", e, "protocol", "must be a single word")
	}
	for _, a := range e.Aliases {
		if a == "" || strings.ContainsAny(a, " \t\n#") {
			return invalid("services", e, "aliases", "must be non-empty words")
		}
	}
	if strings.ContainsRune(e.Comment, '\n') {
		return invalid("services", e, "comment", "must be a single line")
	}
	return nil
}

func SameService(a, b ServiceEntry) bool {
	return a.Service == b.Service && a.Port == b.Port && a.Protocol == b.Protocol
}
