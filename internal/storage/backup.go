package storage

import (
	"context"
	"sync"

	"github.com/zeebo/blake3"
	bolt "go.etcd.io/bbolt"

	"github.com/hnrobert/etcapi/internal/hostfs"
	"github.com/hnrobert/etcapi/internal/logger"
)

// FileBackup copies a store file to a sibling backup file. The digest of the
// copy is kept so that Restore refuses a backup changed behind its back.
type FileBackup struct {
	FS         *hostfs.FS
	File       string
	BackupFile string
	// RemoveAfterRestore deletes the backup file once it has been restored.
	RemoveAfterRestore bool
	Log                *logger.Logger

	mu     sync.Mutex
	digest [32]byte
	has    bool
}

func NewFileBackup(fs *hostfs.FS, file, backupFile string, log *logger.Logger) *FileBackup {
	if backupFile == "" {
		backupFile = file + ".bak"
	}
	return &FileBackup{FS: fs, File: file, BackupFile: backupFile, Log: log}
}

func (b *FileBackup) Create(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.FS.CopyFile(ctx, b.BackupFile, b.File); err != nil {
		return wrap("backup", b.BackupFile, err)
	}
	data, err := b.FS.ReadFile(ctx, b.BackupFile)
	if err != nil {
		return wrap("backup", b.BackupFile, err)
	}
	b.digest = blake3.Sum256(data)
	b.has = true
	b.Log.Debug("backup %s -> %s (%d bytes)", b.File, b.BackupFile, len(data))
	return nil
}

func (b *FileBackup) Restore(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, err := b.FS.ReadFile(ctx, b.BackupFile)
	if err != nil {
		return wrap("restore", b.BackupFile, err)
	}
	if b.has && blake3.Sum256(data) != b.digest {
		return wrap("restore", b.BackupFile, ErrBackupCorrupt)
	}
	if err := b.FS.WriteFileAtomic(ctx, b.File, data, 0o644); err != nil {
		return wrap("restore", b.File, err)
	}
	b.Log.Info("restored %s from %s", b.File, b.BackupFile)
	if b.RemoveAfterRestore {
		if err := b.FS.Remove(ctx, b.BackupFile); err != nil {
			return wrap("remove", b.BackupFile, err)
		}
		b.has = false
	}
	return nil
}

// BoltBackup snapshots the data bucket of a Bolt store into a sibling bucket
// of the same database.
type BoltBackup struct {
	B      *Bolt
	Bucket []byte
}

func NewBoltBackup(b *Bolt) *BoltBackup {
	return &BoltBackup{B: b, Bucket: append(append([]byte{}, b.bucket...), ".bak"...)}
}

func (s *BoltBackup) Create(ctx context.Context) error {
	return wrap("backup", s.B.path, s.B.db.Update(func(tx *bolt.Tx) error {
		return copyBucket(tx, s.Bucket, s.B.bucket)
	}))
}

func (s *BoltBackup) Restore(ctx context.Context) error {
	return wrap("restore", s.B.path, s.B.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(s.Bucket) == nil {
			return ErrNoBackup
		}
		return copyBucket(tx, s.B.bucket, s.Bucket)
	}))
}

func copyBucket(tx *bolt.Tx, dst, src []byte) error {
	from := tx.Bucket(src)
	if from == nil {
		return ErrNoBackup
	}
	return replaceBucket(tx, dst, func(put func(k, v []byte) error) error {
		return from.ForEach(func(k, v []byte) error {
			return put(append([]byte{}, k...), append([]byte{}, v...))
		})
	})
}

// MemoryBackup snapshots a Memory store.
type MemoryBackup struct {
	M *Memory

	mu   sync.Mutex
	snap []string
	has  bool
}

func (b *MemoryBackup) Create(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap = b.M.Lines()
	b.has = true
	return nil
}

func (b *MemoryBackup) Restore(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.has {
		return ErrNoBackup
	}
	b.M.mu.Lock()
	defer b.M.mu.Unlock()
	b.M.fill(b.snap)
	return nil
}
