package database

import (
	"github.com/hnrobert/etcapi/internal/engine"
	"github.com/hnrobert/etcapi/internal/format"
	"github.com/hnrobert/etcapi/internal/hostfs"
	"github.com/hnrobert/etcapi/internal/logger"
	"github.com/hnrobert/etcapi/internal/storage"
)

// Options configure the typed constructors. Empty fields take the stock
// defaults for the adapter.
type Options struct {
	Name       string
	File       string
	Backup     bool
	BackupFile string
	MakeDB     string
	Log        *logger.Logger
}

func fileEngine[E any](fs *hostfs.FS, kind string, f engine.Format[E], opt Options, def defaults, removeBackup bool) (*engine.Engine[E, int], error) {
	name := orDefault(opt.Name, def.name)
	file := orDefault(opt.File, def.file)
	var backup engine.BackupManager
	if opt.Backup {
		fb := storage.NewFileBackup(fs, file, opt.BackupFile, opt.Log)
		fb.RemoveAfterRestore = removeBackup
		backup = storage.Instrument(name, fb)
	}
	return newEngine(name, f, engine.Backend[int](storage.NewLineFile(fs, file, kind)), engine.KeyPolicy[int](engine.LineKeys{}), backup, opt.Log)
}

func dbEngine[E any](fs *hostfs.FS, kind string, f engine.Format[E], opt Options, def defaults) (*engine.Engine[E, int], error) {
	name := orDefault(opt.Name, def.name)
	file := orDefault(opt.File, "/var/lib/misc/"+def.file)
	var backup engine.BackupManager
	if opt.Backup {
		backup = storage.Instrument(name, storage.NewFileBackup(fs, file, opt.BackupFile, opt.Log))
	}
	return newEngine(name, f, engine.Backend[int](storage.NewMakeDB(fs, file, opt.MakeDB, kind)), engine.KeyPolicy[int](engine.LineKeys{}), backup, opt.Log)
}

func NewHostsFile(fs *hostfs.FS, opt Options) (*engine.Engine[format.HostEntry, int], error) {
	return fileEngine(fs, FormatHosts, format.Hosts, opt, fileDefaults[FormatHosts], false)
}

func NewHostsDB(fs *hostfs.FS, opt Options) (*engine.Engine[format.HostEntry, int], error) {
	return dbEngine(fs, FormatHosts, format.HostsDB, opt, dbDefaults[FormatHosts])
}

// NewPasswdFile removes the backup file after a successful restore.
func NewPasswdFile(fs *hostfs.FS, opt Options) (*engine.Engine[format.PasswdEntry, int], error) {
	return fileEngine(fs, FormatPasswd, format.Passwd, opt, fileDefaults[FormatPasswd], true)
}

func NewPasswdDB(fs *hostfs.FS, opt Options) (*engine.Engine[format.PasswdEntry, int], error) {
	return dbEngine(fs, FormatPasswd, format.Passwd, opt, dbDefaults[FormatPasswd])
}

func NewShadowFile(fs *hostfs.FS, opt Options) (*engine.Engine[format.ShadowEntry, int], error) {
	return fileEngine(fs, FormatShadow, format.Shadow, opt, fileDefaults[FormatShadow], false)
}

func NewShadowDB(fs *hostfs.FS, opt Options) (*engine.Engine[format.ShadowEntry, int], error) {
	return dbEngine(fs, FormatShadow, format.Shadow, opt, dbDefaults[FormatShadow])
}

func NewGroupFile(fs *hostfs.FS, opt Options) (*engine.Engine[format.GroupEntry, int], error) {
	return fileEngine(fs, FormatGroup, format.Group, opt, fileDefaults[FormatGroup], false)
}

func NewNssFile(fs *hostfs.FS, opt Options) (*engine.Engine[format.NssEntry, int], error) {
	return fileEngine(fs, FormatNsswitch, format.Nsswitch, opt, fileDefaults[FormatNsswitch], false)
}

func NewServicesFile(fs *hostfs.FS, opt Options) (*engine.Engine[format.ServiceEntry, int], error) {
	return fileEngine(fs, FormatServices, format.Services, opt, fileDefaults[FormatServices], false)
}
