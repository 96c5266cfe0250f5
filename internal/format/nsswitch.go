package format

import (
	"slices"
	"strings"

	"github.com/hnrobert/etcapi/internal/engine"
)

var (
	NssDatabases = []string{
		"aliases", "ethers", "group", "hosts", "initgroups", "netgroup", "networks",
		"passwd", "protocols", "publickey", "rpc", "services", "shadow",
	}
	NssStatuses = []string{
		"SUCCESS", "NOTFOUND", "UNAVAIL", "TRYAGAIN",
		"!SUCCESS", "!NOTFOUND", "!UNAVAIL", "!TRYAGAIN",
	}
	NssActions = []string{"return", "continue", "merge"}
)

// Nsswitch is the /etc/nsswitch.conf grammar. One line per database; the
// database name is the natural key.
var Nsswitch = engine.Format[NssEntry]{
	Decode:   ParseNssLine,
	Encode:   BuildNssLine,
	Validate: ValidateNss,
	Same:     SameNss,
}

// ParseNssLine accepts actions both attached to the provider
// ("dns[!UNAVAIL=return]") and as a separate token ("dns [!UNAVAIL=return]").
func ParseNssLine(line string) (NssEntry, bool) {
	if !isDataLine(line) {
		return NssEntry{}, false
	}
	value, _ := splitComment(strings.TrimSpace(line))
	database, raw, found := strings.Cut(value, ":")
	if !found {
		return NssEntry{}, false
	}
	e := NssEntry{Database: strings.TrimSpace(database)}
	for _, tok := range strings.Fields(raw) {
		if strings.HasPrefix(tok, "[") {
			if len(e.Providers) == 0 || e.Providers[len(e.Providers)-1].Action != nil {
				return NssEntry{}, false
			}
			a, ok := parseNssAction(tok)
			if !ok {
				return NssEntry{}, false
			}
			e.Providers[len(e.Providers)-1].Action = a
			continue
		}
		p := NssProvider{Provider: tok}
		if i := strings.IndexByte(tok, '['); i > 0 {
			a, ok := parseNssAction(tok[i:])
			if !ok {
				return NssEntry{}, false
			}
			p = NssProvider{Provider: tok[:i], Action: a}
		}
		e.Providers = append(e.Providers, p)
	}
	if ValidateNss(e) != nil {
		return NssEntry{}, false
	}
	return e, true
}

func parseNssAction(tok string) (*NssAction, bool) {
	if !strings.HasPrefix(tok, "[") || !strings.HasSuffix(tok, "]") {
		return nil, false
	}
	status, action, found := strings.Cut(tok[1:len(tok)-1], "=")
	if !found {
		return nil, false
	}
	return &NssAction{Status: status, Action: action}, true
}

func BuildNssLine(e NssEntry) string {
	parts := make([]string, 0, len(e.Providers)*2)
	for _, p := range e.Providers {
		parts = append(parts, p.Provider)
		if p.Action != nil {
			parts = append(parts, "["+p.Action.Status+"="+p.Action.Action+"]")
		}
	}
	return e.Database + ":\t" + strings.Join(parts, " ")
}

func ValidateNss(e NssEntry) error {
	if !slices.Contains(NssDatabases, e.Database) {
		return invalid("nss", e, "database", "Invalid database")
	}
	if len(e.Providers) == 0 {
		return invalid("nss", e, "providers", "must contain at least 1 provider")
	}
	for _, p := range e.Providers {
		if p.Provider == "" || strings.ContainsAny(p.Provider, " \t\n[]:") {
			return invalid("nss", e, "providers.provider", "Invalid provider")
		}
		if p.Action == nil {
			continue
		}
		if !slices.Contains(NssStatuses, p.Action.Status) {
			return invalid("nss", e, "providers.action.status", "Invalid status")
		}
		if !slices.Contains(NssActions, p.Action.Action) {
			return invalid("nss", e, "providers.action.action", "Invalid action")
		}
	}
	return nil
}

func SameNss(a, b NssEntry) bool { return a.Database == b.Database }
