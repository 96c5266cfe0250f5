package hostfs

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"
)

type AccessMode uint32

const (
	Exists     AccessMode = unix.F_OK
	Readable   AccessMode = unix.R_OK
	Writable   AccessMode = unix.W_OK
	Executable AccessMode = unix.X_OK
)

func (m AccessMode) testFlag() string {
	switch m {
	case Executable:
		return "-x"
	case Writable:
		return "-w"
	case Readable:
		return "-r"
	}
	return "-e"
}

// Access checks path with access(2), or with `sudo test` when sudo is on.
func (fs *FS) Access(ctx context.Context, path string, mode AccessMode) error {
	p, err := fs.Abs(path)
	if err != nil {
		return err
	}
	if fs.Sudo.Enabled {
		name, args := fs.Sudo.SudoArgs("test", mode.testFlag(), p)
		if _, err := fs.runner().Run(ctx, nil, name, args...); err != nil {
			return fmt.Errorf("access %s: %w", p, err)
		}
		return nil
	}
	if err := unix.Access(p, uint32(mode)); err != nil {
		return fmt.Errorf("access %s: %w", p, err)
	}
	return nil
}

// Test is Access reduced to a bool.
func (fs *FS) Test(ctx context.Context, path string, mode AccessMode) bool {
	return fs.Access(ctx, path, mode) == nil
}
