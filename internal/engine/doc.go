// Package engine implements record-level CRUD over line-oriented stores that
// have no transactional write support of their own.
//
// An Engine reads the whole store as an ordered key -> line map, decodes the
// lines it understands into typed entries and writes the whole map back on
// every mutation:
//
//	status -> load -> validate/decide -> backup -> store -> verify -> restore
//
// Callers identify records with a DistinctEntry: the entry plus the key it was
// observed at. Before a replace or delete the engine re-decodes the line at
// that key and compares it with the natural-key equality of the format. When
// the record is found under another key the caller's read is stale and the
// operation fails with ErrChanged.
//
// The engine holds no locks. Two concurrent writers against the same store
// can interleave and the last Store wins; the stale-read check only covers a
// read followed by a later write of someone else.
package engine
