package storage

import (
	"errors"
	"fmt"
)

var (
	ErrNoBackup      = errors.New("no backup")
	ErrBackupCorrupt = errors.New("backup digest mismatch")
)

// Error is an I/O failure of a backend or backup manager.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Path: path, Err: err}
}
