package engine

import (
	"context"
	"errors"
)

// Status is the reachability state reported by a backend.
type Status string

const (
	StatusOnline       Status = "online"
	StatusOffline      Status = "offline"
	StatusError        Status = "error"
	StatusConnecting   Status = "connecting"
	StatusDisconnected Status = "disconnected"
)

// ServiceStatus is a Status plus the errors that caused it, if any.
type ServiceStatus struct {
	State  Status
	Errors []error
}

func Online() ServiceStatus {
	return ServiceStatus{State: StatusOnline}
}

// Failed reports StatusError when errs has any non-nil error, else online.
func Failed(errs ...error) ServiceStatus {
	var out []error
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	if len(out) == 0 {
		return Online()
	}
	return ServiceStatus{State: StatusError, Errors: out}
}

func (s ServiceStatus) Err() error {
	return errors.Join(s.Errors...)
}

// DistinctEntry is an entry together with the key it was read at. The key is
// only meaningful as of the read that produced it.
type DistinctEntry[E any, K comparable] struct {
	Entry E `json:"entry"`
	Key   K `json:"key"`
}

// Format bundles the codec, validator and equality of one record type.
type Format[E any] struct {
	// Decode returns false for lines that carry no entry: comments, blank
	// lines and anything malformed. It must not panic.
	Decode func(line string) (E, bool)
	Encode func(e E) string
	// Validate runs before any raw data is touched.
	Validate func(e E) error
	// Same reports whether a and b denote the same record by natural key.
	Same func(a, b E) bool
}

// Backend owns the raw ordered key -> line mapping of one store.
type Backend[K comparable] interface {
	Status(ctx context.Context) ServiceStatus
	// Load returns a fresh snapshot in canonical order.
	Load(ctx context.Context) (*RawMap[K], error)
	// Store replaces the entire stored content. Storing the same map twice
	// must produce the same bytes.
	Store(ctx context.Context, data *RawMap[K]) error
}

// BackupManager keeps a single snapshot of a backend; Create overwrites the
// previous one.
type BackupManager interface {
	Create(ctx context.Context) error
	Restore(ctx context.Context) error
}

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
