package database

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hnrobert/etcapi/internal/hostfs"
)

// Format names.
const (
	FormatHosts    = "hosts"
	FormatPasswd   = "passwd"
	FormatShadow   = "shadow"
	FormatGroup    = "group"
	FormatNsswitch = "nsswitch"
	FormatServices = "services"
)

// Backend names.
const (
	BackendFile   = "file"
	BackendMakeDB = "makedb"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

const DefaultBoltFile = "/var/lib/etcapi/etcapi.db"

// Spec describes one database in the daemon configuration.
type Spec struct {
	Name    string `yaml:"name"`
	Format  string `yaml:"format"`
	Backend string `yaml:"backend,omitempty"`
	// File is a host path; for bolt it is the database file.
	File       string `yaml:"file,omitempty"`
	Backup     bool   `yaml:"backup,omitempty"`
	BackupFile string `yaml:"backup_file,omitempty"`
	// MakeDB is the host path of the makedb binary.
	MakeDB string `yaml:"makedb,omitempty"`
	// Bucket selects the bolt bucket, the database name when empty.
	Bucket string `yaml:"bucket,omitempty"`
	// Lines seeds a memory backend.
	Lines []string `yaml:"lines,omitempty"`
}

type defaults struct {
	name string
	file string
}

var fileDefaults = map[string]defaults{
	FormatHosts:    {"LinuxHostsFile", hostfs.EtcHosts},
	FormatPasswd:   {"LinuxPasswdFile", hostfs.EtcPasswd},
	FormatShadow:   {"LinuxShadowFile", hostfs.EtcShadow},
	FormatGroup:    {"LinuxGroupFile", hostfs.EtcGroup},
	FormatNsswitch: {"LinuxNssFile", hostfs.EtcNsswitch},
	FormatServices: {"LinuxServicesFile", hostfs.EtcServices},
}

var dbDefaults = map[string]defaults{
	FormatHosts:  {"LinuxHostsDb", "hosts.db"},
	FormatPasswd: {"LinuxPasswdDb", "passwd.db"},
	FormatShadow: {"LinuxShadowDb", "shadow.db"},
	FormatGroup:  {"LinuxGroupDb", "group.db"},
}

// WithDefaults fills in the name, paths and backend the spec leaves empty.
// dbDir is the host directory of makedb databases.
func (s Spec) WithDefaults(dbDir string) (Spec, error) {
	if s.Backend == "" {
		s.Backend = BackendFile
	}
	if _, ok := fileDefaults[s.Format]; !ok {
		return s, fmt.Errorf("unknown format %q", s.Format)
	}
	switch s.Backend {
	case BackendFile:
		d := fileDefaults[s.Format]
		s.Name = orDefault(s.Name, d.name)
		s.File = orDefault(s.File, d.file)
	case BackendMakeDB:
		d, ok := dbDefaults[s.Format]
		if !ok {
			return s, fmt.Errorf("format %q has no makedb database", s.Format)
		}
		s.Name = orDefault(s.Name, d.name)
		s.File = orDefault(s.File, filepath.Join(dbDir, d.file))
	case BackendBolt:
		s.Name = orDefault(s.Name, boltName(s.Format))
		s.File = orDefault(s.File, DefaultBoltFile)
		s.Bucket = orDefault(s.Bucket, s.Name)
	case BackendMemory:
		s.Name = orDefault(s.Name, "Memory"+capitalize(s.Format))
	default:
		return s, fmt.Errorf("unknown backend %q", s.Backend)
	}
	if s.Backup && s.BackupFile == "" && (s.Backend == BackendFile || s.Backend == BackendMakeDB) {
		s.BackupFile = s.File + ".bak"
	}
	return s, nil
}

func boltName(format string) string {
	return "Bolt" + capitalize(format)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// DefaultSpecs lists the file databases a stock host has.
func DefaultSpecs() []Spec {
	return []Spec{
		{Format: FormatHosts, Backup: true},
		{Format: FormatPasswd, Backup: true},
		{Format: FormatShadow, Backup: true},
		{Format: FormatGroup, Backup: true},
		{Format: FormatNsswitch, Backup: true},
		{Format: FormatServices},
	}
}
