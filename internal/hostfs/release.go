package hostfs

import (
	"bufio"
	"bytes"
	"context"
	"strings"
)

// OSRelease parses the host's /etc/os-release into its KEY=value pairs with
// quotes removed.
func (fs *FS) OSRelease(ctx context.Context) (map[string]string, error) {
	b, err := fs.ReadFile(ctx, EtcOSRelease)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[k] = strings.Trim(v, `"'`)
	}
	return out, sc.Err()
}

// DefaultDBDir is where makedb databases live on the host: /var/lib/misc on
// Debian derivatives, /var/db elsewhere.
func (fs *FS) DefaultDBDir(ctx context.Context) string {
	rel, err := fs.OSRelease(ctx)
	if err != nil {
		if fs.Test(ctx, "/etc/debian_version", Readable) {
			return "/var/lib/misc"
		}
		return "/var/db"
	}
	for _, id := range append([]string{rel["ID"]}, strings.Fields(rel["ID_LIKE"])...) {
		if id == "debian" || id == "ubuntu" {
			return "/var/lib/misc"
		}
	}
	return "/var/db"
}
