package hostfs

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/hnrobert/etcapi/internal/logger"
	"github.com/hnrobert/etcapi/internal/sysexec"
)

// HostRoot is the conventional mount point of the host filesystem inside the
// container.
const HostRoot = "/host"

var ErrInvalidPath = errors.New("invalid host path")

type FS struct {
	Root   string
	Sudo   sysexec.SudoOptions
	Runner *sysexec.Runner
	Log    *logger.Logger
}

// New returns an FS rooted at root that runs sudo commands with the default
// runner.
func New(root string, sudo sysexec.SudoOptions, log *logger.Logger) *FS {
	return &FS{Root: root, Sudo: sudo, Runner: sysexec.New(), Log: log}
}

// Path joins Root with a relative path (no leading slash).
// Example: Path("etc/passwd") -> /host/etc/passwd
func (fs *FS) Path(rel string) (string, error) {
	rel = strings.TrimPrefix(rel, "/")
	clean := filepath.Clean(rel)
	if clean == "." || clean == "" {
		return "", ErrInvalidPath
	}
	if strings.HasPrefix(clean, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(fs.root(), clean), nil
}

// Abs maps an absolute host path (e.g. /etc/hosts) into the local view
// (e.g. /host/etc/hosts).
func (fs *FS) Abs(abs string) (string, error) {
	if abs == "" || !strings.HasPrefix(abs, "/") {
		return "", ErrInvalidPath
	}
	clean := filepath.Clean(abs)
	if fs.Root == "" {
		return clean, nil
	}
	return filepath.Join(fs.Root, strings.TrimPrefix(clean, "/")), nil
}

func (fs *FS) root() string {
	if fs.Root == "" {
		return "/"
	}
	return fs.Root
}

func (fs *FS) runner() *sysexec.Runner {
	if fs.Runner == nil {
		return sysexec.New()
	}
	return fs.Runner
}
