// Package format holds the line grammars of the Linux name-service files:
// hosts, passwd, shadow, group, nsswitch.conf and services.
//
// Every grammar is exposed as an engine.Format value (Hosts, Passwd, ...).
// Parsers never fail: comments, blank lines and malformed lines yield no
// entry, so they survive a rewrite untouched.
package format
