package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hnrobert/etcapi/internal/engine"
	"github.com/hnrobert/etcapi/internal/hostfs"
)

// LineFile stores one line per record in a plain text file.
type LineFile struct {
	FS   *hostfs.FS
	Path string
	// Kind names the file in status messages, e.g. "hosts".
	Kind string
	// Perm is used when the file does not exist yet.
	Perm os.FileMode
}

func NewLineFile(fs *hostfs.FS, path, kind string) *LineFile {
	return &LineFile{FS: fs, Path: path, Kind: kind, Perm: 0o644}
}

func (f *LineFile) Status(ctx context.Context) engine.ServiceStatus {
	if err := f.FS.Access(ctx, f.Path, hostfs.Writable); err != nil {
		return engine.Failed(fmt.Errorf("no %s file %s found or write access denied: %w", f.Kind, f.Path, err))
	}
	return engine.Online()
}

func (f *LineFile) Load(ctx context.Context) (*engine.RawMap[int], error) {
	b, err := f.FS.ReadFile(ctx, f.Path)
	if err != nil {
		return nil, wrap("read", f.Path, err)
	}
	return engine.LinesToRawMap(splitLines(string(b))), nil
}

func (f *LineFile) Store(ctx context.Context, data *engine.RawMap[int]) error {
	return wrap("write", f.Path, f.FS.WriteFileAtomic(ctx, f.Path, []byte(joinLines(data.Lines())), f.Perm))
}

// splitLines drops the final newline so that it does not become an empty
// record; joinLines puts it back.
func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
