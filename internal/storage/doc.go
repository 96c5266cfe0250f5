// Package storage implements engine backends and backup managers.
//
// LineFile and MakeDB are positional: keys are zero-based line numbers and a
// Store renumbers. Bolt keeps caller-chosen uint64 keys. Memory behaves like a
// LineFile without a file and is meant for dry runs and tests.
package storage
