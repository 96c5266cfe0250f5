// Package database assembles named record databases (LinuxHostsFile,
// LinuxShadowDb, ...) from a format, a storage backend and a backup manager,
// and exposes them to the HTTP layer through the type-erased Database
// interface.
package database
