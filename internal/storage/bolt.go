package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/hnrobert/etcapi/internal/engine"
	"github.com/hnrobert/etcapi/internal/hostfs"
)

// Bolt keeps records in one bbolt bucket, keyed by 8-byte big-endian
// integers so that byte order is key order.
type Bolt struct {
	db     *bolt.DB
	path   string
	bucket []byte
}

// OpenBolt opens (creating if needed) the database at path and the named
// bucket in it.
func OpenBolt(path, bucket string) (*Bolt, error) {
	if err := hostfs.EnsureDir(filepath.Dir(path), 0o755); err != nil {
		return nil, wrap("open", path, err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, wrap("open", path, err)
	}
	b := &Bolt{db: db, path: path, bucket: []byte(bucket)}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(b.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, wrap("open", path, err)
	}
	return b, nil
}

// Bucket returns a store for another bucket of the same database. Closing
// either store closes the shared database.
func (b *Bolt) Bucket(name string) (*Bolt, error) {
	nb := &Bolt{db: b.db, path: b.path, bucket: []byte(name)}
	err := b.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(nb.bucket)
		return err
	})
	if err != nil {
		return nil, wrap("open", b.path, err)
	}
	return nb, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

func (b *Bolt) Path() string { return b.path }

func (b *Bolt) Status(context.Context) engine.ServiceStatus {
	err := b.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(b.bucket) == nil {
			return fmt.Errorf("bucket %q missing", b.bucket)
		}
		return nil
	})
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return engine.ServiceStatus{State: engine.StatusDisconnected, Errors: []error{err}}
	}
	return engine.Failed(err)
}

func (b *Bolt) Load(ctx context.Context) (*engine.RawMap[uint64], error) {
	out := engine.NewRawMap[uint64]()
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket(b.bucket)
		if bk == nil {
			return nil
		}
		return bk.ForEach(func(k, v []byte) error {
			if len(k) != 8 {
				return fmt.Errorf("bad key length %d", len(k))
			}
			out.Set(binary.BigEndian.Uint64(k), string(v))
			return nil
		})
	})
	if err != nil {
		return nil, wrap("bolt load", b.path, err)
	}
	return out, nil
}

// Store replaces the bucket content in a single transaction.
func (b *Bolt) Store(ctx context.Context, data *engine.RawMap[uint64]) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return replaceBucket(tx, b.bucket, func(put func(k, v []byte) error) error {
			var err error
			data.Range(func(k uint64, line string) bool {
				err = put(boltKey(k), []byte(line))
				return err == nil
			})
			return err
		})
	})
	return wrap("bolt store", b.path, err)
}

// replaceBucket drops name and refills it through fill.
func replaceBucket(tx *bolt.Tx, name []byte, fill func(put func(k, v []byte) error) error) error {
	if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
		return err
	}
	bk, err := tx.CreateBucket(name)
	if err != nil {
		return err
	}
	return fill(bk.Put)
}

func boltKey(k uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], k)
	return buf[:]
}
