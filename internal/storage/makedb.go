package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/hnrobert/etcapi/internal/engine"
	"github.com/hnrobert/etcapi/internal/hostfs"
	"github.com/hnrobert/etcapi/internal/sysexec"
)

// MakeDB stores records in a glibc nss_db database through the makedb tool.
// Loading lists the database (`makedb -u`), storing rebuilds it from stdin
// (`makedb -o <file> -`).
type MakeDB struct {
	FS     *hostfs.FS
	Runner *sysexec.Runner
	Path   string
	// Binary is the host path of makedb, /usr/bin/makedb when empty.
	Binary string
	Kind   string
}

func NewMakeDB(fs *hostfs.FS, path, binary, kind string) *MakeDB {
	if binary == "" {
		binary = sysexec.DefaultMakeDB
	}
	return &MakeDB{FS: fs, Runner: fs.Runner, Path: path, Binary: binary, Kind: kind}
}

func (m *MakeDB) Status(ctx context.Context) engine.ServiceStatus {
	var errs []error
	if err := m.FS.Access(ctx, m.Path, hostfs.Writable); err != nil {
		errs = append(errs, fmt.Errorf("no %s db file %s found or write access denied: %w", m.Kind, m.Path, err))
	}
	if err := m.FS.Access(ctx, m.Binary, hostfs.Executable); err != nil {
		errs = append(errs, fmt.Errorf("no makedb executable found from %s or access denied: %w", m.Binary, err))
	}
	return engine.Failed(errs...)
}

func (m *MakeDB) Load(ctx context.Context) (*engine.RawMap[int], error) {
	p, err := m.FS.Abs(m.Path)
	if err != nil {
		return nil, wrap("makedb load", m.Path, err)
	}
	bin, err := m.FS.Abs(m.Binary)
	if err != nil {
		return nil, wrap("makedb load", m.Path, err)
	}
	name, args := sysexec.MakeDBArgs(m.FS.Sudo, bin, "-u", p)
	out, err := m.runner().Run(ctx, nil, name, args...)
	if err != nil {
		return nil, wrap("makedb load", m.Path, err)
	}
	var lines []string
	for _, l := range strings.Split(string(out), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return engine.LinesToRawMap(lines), nil
}

func (m *MakeDB) Store(ctx context.Context, data *engine.RawMap[int]) error {
	p, err := m.FS.Abs(m.Path)
	if err != nil {
		return wrap("makedb store", m.Path, err)
	}
	bin, err := m.FS.Abs(m.Binary)
	if err != nil {
		return wrap("makedb store", m.Path, err)
	}
	name, args := sysexec.MakeDBArgs(m.FS.Sudo, bin, "-o", p, "-")
	_, err = m.runner().Run(ctx, []byte(joinLines(data.Lines())), name, args...)
	return wrap("makedb store", m.Path, err)
}

func (m *MakeDB) runner() *sysexec.Runner {
	if m.Runner == nil {
		return sysexec.New()
	}
	return m.Runner
}
