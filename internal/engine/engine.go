package engine

import (
	"context"
	"errors"
	"fmt"
)

// Config wires the collaborators of an Engine. Backup and Logger are optional.
type Config[E any, K comparable] struct {
	Name    string
	Format  Format[E]
	Backend Backend[K]
	Keys    KeyPolicy[K]
	Backup  BackupManager
	Logger  Logger
}

type Engine[E any, K comparable] struct {
	name    string
	format  Format[E]
	backend Backend[K]
	keys    KeyPolicy[K]
	backup  BackupManager
	log     Logger
}

func New[E any, K comparable](cfg Config[E, K]) (*Engine[E, K], error) {
	if cfg.Name == "" {
		return nil, errors.New("engine: missing name")
	}
	if cfg.Backend == nil || cfg.Keys == nil {
		return nil, fmt.Errorf("engine %s: backend and key policy are required", cfg.Name)
	}
	f := cfg.Format
	if f.Decode == nil || f.Encode == nil || f.Validate == nil || f.Same == nil {
		return nil, fmt.Errorf("engine %s: incomplete format", cfg.Name)
	}
	log := cfg.Logger
	if log == nil {
		log = nopLogger{}
	}
	return &Engine[E, K]{
		name:    cfg.Name,
		format:  f,
		backend: cfg.Backend,
		keys:    cfg.Keys,
		backup:  cfg.Backup,
		log:     log,
	}, nil
}

func (e *Engine[E, K]) Name() string { return e.name }

func (e *Engine[E, K]) Status(ctx context.Context) ServiceStatus {
	return e.backend.Status(ctx)
}

// List decodes every line in storage order, skipping lines without an entry.
func (e *Engine[E, K]) List(ctx context.Context) ([]DistinctEntry[E, K], error) {
	if err := e.assertOnline(ctx, "list"); err != nil {
		return nil, err
	}
	data, err := e.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	return e.decodeAll(data), nil
}

// Entries is List keyed by storage key.
func (e *Engine[E, K]) Entries(ctx context.Context) (map[K]E, error) {
	list, err := e.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[K]E, len(list))
	for _, d := range list {
		out[d.Key] = d.Entry
	}
	return out, nil
}

// ListRaw returns the uninterpreted lines. It does not check the status.
func (e *Engine[E, K]) ListRaw(ctx context.Context) (*RawMap[K], error) {
	return e.backend.Load(ctx)
}

func (e *Engine[E, K]) Count(ctx context.Context) (int, error) {
	list, err := e.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// Add appends entry after the last stored key. The returned bool reports
// whether a fresh read confirmed the write.
func (e *Engine[E, K]) Add(ctx context.Context, entry E) (bool, error) {
	return e.add(ctx, entry, nil)
}

// AddAt stores entry at key. For positional stores this inserts before the
// line currently at key; keyed stores fail with ErrKeyInUse on collision.
func (e *Engine[E, K]) AddAt(ctx context.Context, entry E, key K) (bool, error) {
	return e.add(ctx, entry, &key)
}

func (e *Engine[E, K]) add(ctx context.Context, entry E, key *K) (bool, error) {
	if err := e.assertOnline(ctx, "add"); err != nil {
		return false, err
	}
	if err := e.format.Validate(entry); err != nil {
		return false, err
	}
	data, err := e.backend.Load(ctx)
	if err != nil {
		return false, err
	}
	if _, found := e.find(data, entry); found {
		return false, &Error{Op: "add", Name: e.name, Kind: ErrEntryExists}
	}
	line := e.format.Encode(entry)
	if key == nil {
		data.Set(e.keys.Next(data), line)
	} else {
		data, err = e.keys.Insert(data, *key, line)
		if err != nil {
			return false, &Error{Op: "add", Name: e.name, Kind: err}
		}
	}
	return e.commit(ctx, "add", data, func(fresh *RawMap[K]) bool {
		return e.present(fresh, entry)
	})
}

// Replace overwrites the record current was read from with entry.
func (e *Engine[E, K]) Replace(ctx context.Context, current DistinctEntry[E, K], entry E) (bool, error) {
	if err := e.assertOnline(ctx, "replace"); err != nil {
		return false, err
	}
	if err := e.format.Validate(entry); err != nil {
		return false, err
	}
	data, err := e.backend.Load(ctx)
	if err != nil {
		return false, err
	}
	if !e.matchesAt(data, current) {
		if e.movedElsewhere(data, current) {
			return false, &Error{Op: "replace", Name: e.name, Kind: ErrChanged}
		}
		return false, &Error{Op: "replace", Name: e.name, Kind: ErrNotExist}
	}
	// Renaming onto another record is refused; an edit that keeps the
	// natural key may leave duplicates elsewhere untouched.
	if !e.format.Same(current.Entry, entry) {
		if k, found := e.find(data, entry); found && k != current.Key {
			return false, &Error{Op: "replace", Name: e.name, Kind: ErrEntryExists}
		}
	}
	data.Set(current.Key, e.format.Encode(entry))
	return e.commit(ctx, "replace", data, func(fresh *RawMap[K]) bool {
		return e.present(fresh, entry)
	})
}

// Delete removes the record current was read from. A record that is gone
// everywhere is not an error: Delete returns false, nil.
func (e *Engine[E, K]) Delete(ctx context.Context, current DistinctEntry[E, K]) (bool, error) {
	if err := e.assertOnline(ctx, "delete"); err != nil {
		return false, err
	}
	data, err := e.backend.Load(ctx)
	if err != nil {
		return false, err
	}
	if !e.matchesAt(data, current) {
		if e.movedElsewhere(data, current) {
			return false, &Error{Op: "delete", Name: e.name, Kind: ErrChanged}
		}
		return false, nil
	}
	data.Delete(current.Key)
	return e.commit(ctx, "delete", data, func(fresh *RawMap[K]) bool {
		_, found := e.find(fresh, current.Entry)
		return !found
	})
}

// commit runs backup, store, verify and, when verification fails, restore.
// It makes exactly one attempt at each step.
func (e *Engine[E, K]) commit(ctx context.Context, op string, data *RawMap[K], verify func(*RawMap[K]) bool) (bool, error) {
	if e.backup != nil {
		if err := e.backup.Create(ctx); err != nil {
			return false, fmt.Errorf("%s: backup before %s: %w", e.name, op, err)
		}
		e.log.Debug("%s: %s: backup created", e.name, op)
	}
	if err := e.backend.Store(ctx, data); err != nil {
		if e.backup != nil {
			e.log.Warn("%s: %s: store failed (%v), restoring backup", e.name, op, err)
			if rerr := e.backup.Restore(ctx); rerr != nil {
				return false, errors.Join(err, &Error{Op: op, Name: e.name, Kind: ErrRestoreFailed, Err: rerr})
			}
		}
		return false, err
	}
	fresh, err := e.backend.Load(ctx)
	if err != nil {
		return false, err
	}
	if verify(fresh) {
		return true, nil
	}
	if e.backup == nil {
		e.log.Warn("%s: %s was not confirmed by a fresh read", e.name, op)
		return false, nil
	}
	e.log.Warn("%s: %s was not confirmed by a fresh read, restoring backup", e.name, op)
	if err := e.backup.Restore(ctx); err != nil {
		return false, &Error{Op: op, Name: e.name, Kind: ErrRestoreFailed, Err: err}
	}
	return false, nil
}

func (e *Engine[E, K]) assertOnline(ctx context.Context, op string) error {
	st := e.backend.Status(ctx)
	if st.State == StatusOnline {
		return nil
	}
	return &Error{Op: op, Name: e.name, Kind: ErrNotOnline, Status: st.State, Err: st.Err()}
}

func (e *Engine[E, K]) decodeAll(data *RawMap[K]) []DistinctEntry[E, K] {
	out := make([]DistinctEntry[E, K], 0, data.Len())
	data.Range(func(k K, line string) bool {
		if v, ok := e.format.Decode(line); ok {
			out = append(out, DistinctEntry[E, K]{Entry: v, Key: k})
		}
		return true
	})
	return out
}

// find returns the key of the first decoded entry that is Same as v.
func (e *Engine[E, K]) find(data *RawMap[K], v E) (K, bool) {
	var key K
	found := false
	data.Range(func(k K, line string) bool {
		cur, ok := e.format.Decode(line)
		if ok && e.format.Same(v, cur) {
			key, found = k, true
			return false
		}
		return true
	})
	return key, found
}

func (e *Engine[E, K]) matchesAt(data *RawMap[K], d DistinctEntry[E, K]) bool {
	line, ok := data.Get(d.Key)
	if !ok {
		return false
	}
	cur, ok := e.format.Decode(line)
	return ok && e.format.Same(d.Entry, cur)
}

func (e *Engine[E, K]) movedElsewhere(data *RawMap[K], d DistinctEntry[E, K]) bool {
	k, found := e.find(data, d.Entry)
	if found && k != d.Key {
		e.log.Info("%s: entry read at %v now lives at %v", e.name, d.Key, k)
		return true
	}
	return false
}

// present reports whether data holds the exact line v encodes to. Codecs
// need not round-trip (comments are normalized on decode), so the stored
// text is compared, not a re-encoding of it.
func (e *Engine[E, K]) present(data *RawMap[K], v E) bool {
	want := e.format.Encode(v)
	found := false
	data.Range(func(_ K, line string) bool {
		if line == want {
			found = true
			return false
		}
		return true
	})
	return found
}
