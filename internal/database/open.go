package database

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hnrobert/etcapi/internal/engine"
	"github.com/hnrobert/etcapi/internal/format"
	"github.com/hnrobert/etcapi/internal/hostfs"
	"github.com/hnrobert/etcapi/internal/logger"
	"github.com/hnrobert/etcapi/internal/storage"
	"github.com/hnrobert/etcapi/internal/sysexec"
)

// Deps are the shared collaborators of every database in a Set.
type Deps struct {
	FS  *hostfs.FS
	Log *logger.Logger
	// DBDir is the host directory of makedb databases.
	DBDir string
}

// Set is a group of named databases opened from specs. It owns the bolt
// files they share.
type Set struct {
	mu    sync.Mutex
	deps  Deps
	dbs   map[string]Database
	order []string
	bolts map[string]*storage.Bolt
}

func NewSet(deps Deps) *Set {
	if deps.DBDir == "" {
		deps.DBDir = "/var/lib/misc"
	}
	if deps.FS == nil {
		deps.FS = hostfs.New("", sysexec.SudoOptions{}, deps.Log)
	}
	return &Set{deps: deps, dbs: map[string]Database{}, bolts: map[string]*storage.Bolt{}}
}

// OpenAll opens every spec; on failure the databases opened so far stay
// open and the error names the failing spec.
func (s *Set) OpenAll(specs []Spec) error {
	for _, sp := range specs {
		if _, err := s.Open(sp); err != nil {
			return err
		}
	}
	return nil
}

// Open builds the database described by spec and registers it by name.
func (s *Set) Open(spec Spec) (Database, error) {
	spec, err := spec.WithDefaults(s.deps.DBDir)
	if err != nil {
		return nil, fmt.Errorf("database %q: %w", spec.Name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.dbs[spec.Name]; dup {
		return nil, fmt.Errorf("database %q: duplicate name", spec.Name)
	}
	var db Database
	switch spec.Format {
	case FormatHosts:
		f := format.Hosts
		if spec.Backend == BackendMakeDB {
			f = format.HostsDB
		}
		db, err = build(s, spec, f)
	case FormatPasswd:
		db, err = build(s, spec, format.Passwd)
	case FormatShadow:
		db, err = build(s, spec, format.Shadow)
	case FormatGroup:
		db, err = build(s, spec, format.Group)
	case FormatNsswitch:
		db, err = build(s, spec, format.Nsswitch)
	case FormatServices:
		db, err = build(s, spec, format.Services)
	}
	if err != nil {
		return nil, fmt.Errorf("database %q: %w", spec.Name, err)
	}
	s.dbs[spec.Name] = db
	s.order = append(s.order, spec.Name)
	s.deps.Log.Info("database %s: %s via %s", spec.Name, spec.Format, spec.Backend)
	return db, nil
}

func (s *Set) Get(name string) (Database, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, ok := s.dbs[name]
	return db, ok
}

// Names returns database names in the order they were opened.
func (s *Set) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.order...)
}

// ByFormat returns the first database of the given format.
func (s *Set) ByFormat(f string) (Database, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.order {
		if s.dbs[n].Format() == f {
			return s.dbs[n], true
		}
	}
	return nil, false
}

func (s *Set) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.bolts))
	for p := range s.bolts {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	var errs []error
	for _, p := range paths {
		errs = append(errs, s.bolts[p].Close())
	}
	s.bolts = map[string]*storage.Bolt{}
	return errors.Join(errs...)
}

func build[E any](s *Set, spec Spec, f engine.Format[E]) (Database, error) {
	log := s.deps.Log
	switch spec.Backend {
	case BackendFile, BackendMakeDB:
		opt := Options{
			Name:       spec.Name,
			File:       spec.File,
			Backup:     spec.Backup,
			BackupFile: spec.BackupFile,
			MakeDB:     spec.MakeDB,
			Log:        log,
		}
		var (
			eng *engine.Engine[E, int]
			err error
		)
		if spec.Backend == BackendFile {
			eng, err = fileEngine(s.deps.FS, spec.Format, f, opt, defaults{}, spec.Format == FormatPasswd)
		} else {
			eng, err = dbEngine(s.deps.FS, spec.Format, f, opt, defaults{})
		}
		if err != nil {
			return nil, err
		}
		return newHandle(eng, spec.Format, spec.Backend), nil

	case BackendBolt:
		b, err := s.boltLocked(spec.File, spec.Bucket)
		if err != nil {
			return nil, err
		}
		var backup engine.BackupManager
		if spec.Backup {
			backup = storage.Instrument(spec.Name, storage.NewBoltBackup(b))
		}
		eng, err := newEngine(spec.Name, f, engine.Backend[uint64](b), engine.KeyPolicy[uint64](engine.MapKeys[uint64]{}), backup, log)
		if err != nil {
			return nil, err
		}
		return newHandle(eng, spec.Format, spec.Backend), nil

	case BackendMemory:
		m := storage.NewMemory(spec.Lines...)
		var backup engine.BackupManager
		if spec.Backup {
			backup = storage.Instrument(spec.Name, &storage.MemoryBackup{M: m})
		}
		eng, err := newEngine(spec.Name, f, engine.Backend[int](m), engine.KeyPolicy[int](engine.LineKeys{}), backup, log)
		if err != nil {
			return nil, err
		}
		return newHandle(eng, spec.Format, spec.Backend), nil
	}
	return nil, fmt.Errorf("unknown backend %q", spec.Backend)
}

func newEngine[E any, K comparable](name string, f engine.Format[E], b engine.Backend[K], keys engine.KeyPolicy[K], backup engine.BackupManager, log *logger.Logger) (*engine.Engine[E, K], error) {
	cfg := engine.Config[E, K]{Name: name, Format: f, Backend: b, Keys: keys, Backup: backup}
	if log != nil {
		cfg.Logger = log
	}
	return engine.New(cfg)
}

// boltLocked opens path once and hands out one store per bucket.
func (s *Set) boltLocked(path, bucket string) (*storage.Bolt, error) {
	local, err := s.deps.FS.Abs(path)
	if err != nil {
		return nil, err
	}
	if b, ok := s.bolts[local]; ok {
		return b.Bucket(bucket)
	}
	b, err := storage.OpenBolt(local, bucket)
	if err != nil {
		return nil, err
	}
	s.bolts[local] = b
	return b, nil
}
