package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hnrobert/etcapi/internal/engine"
)

// ErrBadRequest marks JSON input that does not decode into the database's
// entry or key type.
var ErrBadRequest = errors.New("bad request")

// RawLine is one stored line with its key.
type RawLine[K comparable] struct {
	Key  K      `json:"key"`
	Line string `json:"line"`
}

// Database is an engine with its entry and key types erased to JSON.
type Database interface {
	Name() string
	Format() string
	Backend() string
	Status(ctx context.Context) engine.ServiceStatus
	// List returns []engine.DistinctEntry[E, K].
	List(ctx context.Context) (any, error)
	// ListRaw returns []RawLine[K].
	ListRaw(ctx context.Context) (any, error)
	Count(ctx context.Context) (int, error)
	// Add decodes entry and, when key is not empty, the target key.
	Add(ctx context.Context, entry, key json.RawMessage) (bool, error)
	Replace(ctx context.Context, current, entry json.RawMessage) (bool, error)
	Delete(ctx context.Context, current json.RawMessage) (bool, error)
}

type handle[E any, K comparable] struct {
	*engine.Engine[E, K]
	format  string
	backend string
}

func newHandle[E any, K comparable](eng *engine.Engine[E, K], format, backend string) *handle[E, K] {
	return &handle[E, K]{Engine: eng, format: format, backend: backend}
}

func (h *handle[E, K]) Format() string  { return h.format }
func (h *handle[E, K]) Backend() string { return h.backend }

func (h *handle[E, K]) List(ctx context.Context) (any, error) {
	return h.Engine.List(ctx)
}

func (h *handle[E, K]) ListRaw(ctx context.Context) (any, error) {
	data, err := h.Engine.ListRaw(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RawLine[K], 0, data.Len())
	data.Range(func(k K, line string) bool {
		out = append(out, RawLine[K]{Key: k, Line: line})
		return true
	})
	return out, nil
}

// Values returns the decoded entries without their keys.
func (h *handle[E, K]) Values(ctx context.Context) ([]E, error) {
	list, err := h.Engine.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]E, 0, len(list))
	for _, d := range list {
		out = append(out, d.Entry)
	}
	return out, nil
}

func (h *handle[E, K]) Add(ctx context.Context, entry, key json.RawMessage) (bool, error) {
	var e E
	if err := decode(entry, &e, "entry"); err != nil {
		return false, err
	}
	if len(key) == 0 || string(key) == "null" {
		return h.Engine.Add(ctx, e)
	}
	var k K
	if err := decode(key, &k, "key"); err != nil {
		return false, err
	}
	return h.Engine.AddAt(ctx, e, k)
}

func (h *handle[E, K]) Replace(ctx context.Context, current, entry json.RawMessage) (bool, error) {
	var cur engine.DistinctEntry[E, K]
	if err := decode(current, &cur, "current"); err != nil {
		return false, err
	}
	var e E
	if err := decode(entry, &e, "entry"); err != nil {
		return false, err
	}
	return h.Engine.Replace(ctx, cur, e)
}

func (h *handle[E, K]) Delete(ctx context.Context, current json.RawMessage) (bool, error) {
	var cur engine.DistinctEntry[E, K]
	if err := decode(current, &cur, "current"); err != nil {
		return false, err
	}
	return h.Engine.Delete(ctx, cur)
}

func decode(raw json.RawMessage, v any, what string) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing %s", ErrBadRequest, what)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadRequest, what, err)
	}
	return nil
}

// Values lists the entries of db when its entry type is E.
func Values[E any](ctx context.Context, db Database) ([]E, error) {
	v, ok := db.(interface {
		Values(ctx context.Context) ([]E, error)
	})
	if !ok {
		return nil, fmt.Errorf("%s: %s entries requested from a %s database", db.Name(), typeName[E](), db.Format())
	}
	return v.Values(ctx)
}

func typeName[E any]() string {
	var e E
	return fmt.Sprintf("%T", e)
}
