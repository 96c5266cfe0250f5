package engine

import (
	"errors"
	"fmt"
)

var (
	ErrNotOnline     = errors.New("not online")
	ErrEntryExists   = errors.New("entry already exists")
	ErrChanged       = errors.New("entry changed since it was read")
	ErrNotExist      = errors.New("current entry does not exist")
	ErrKeyInUse      = errors.New("key already in use")
	ErrInvalidKey    = errors.New("invalid key")
	ErrRestoreFailed = errors.New("restoring backup failed")
)

// Error is returned by Engine operations for every failure the engine itself
// decides on. Kind is one of the sentinel errors above.
type Error struct {
	Op     string
	Name   string
	Kind   error
	Status Status
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrNotOnline:
		return fmt.Sprintf("%s is not online: %s", e.Name, e.Status)
	case ErrEntryExists:
		return e.Name + ": Entry already exists"
	case ErrChanged:
		return e.Name + ": might have been changed since the entry was read"
	case ErrNotExist:
		return e.Name + ": Current entry does not exist"
	}
	msg := fmt.Sprintf("%s: %s: %v", e.Name, e.Op, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}
