// Package hostfs provides locked, atomic access to host files.
//
// A daemon running in a container sees the host filesystem under Root:
//
//	/etc/hosts   -> /host/etc/hosts
//	/etc/passwd  -> /host/etc/passwd
//	/etc/shadow  -> /host/etc/shadow
//
// An empty Root uses host paths unchanged. With sudo enabled every file
// operation is delegated to a `sudo -n` command (cat, tee, cp, test, rm).
package hostfs
