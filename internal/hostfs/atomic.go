package hostfs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"syscall"
)

var globalMu sync.Mutex
var fileMu = map[string]*sync.Mutex{}

func muFor(path string) *sync.Mutex {
	globalMu.Lock()
	defer globalMu.Unlock()
	if m := fileMu[path]; m != nil {
		return m
	}
	m := &sync.Mutex{}
	fileMu[path] = m
	return m
}

// ReadFile reads the host file at path.
func (fs *FS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	p, err := fs.Abs(path)
	if err != nil {
		return nil, err
	}
	m := muFor(p)
	m.Lock()
	defer m.Unlock()
	if fs.Sudo.Enabled {
		name, args := fs.Sudo.SudoArgs("cat", p)
		return fs.runner().Run(ctx, nil, name, args...)
	}
	return os.ReadFile(p)
}

// WriteFileAtomic replaces the host file at path with data. An existing
// file keeps its permissions; a new one gets perm.
func (fs *FS) WriteFileAtomic(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	p, err := fs.Abs(path)
	if err != nil {
		return err
	}
	m := muFor(p)
	m.Lock()
	defer m.Unlock()
	if fs.Sudo.Enabled {
		name, args := fs.Sudo.SudoArgs("tee", p)
		_, err := fs.runner().Run(ctx, data, name, args...)
		return err
	}
	if st, err := os.Stat(p); err == nil {
		perm = st.Mode().Perm()
	}
	return fs.writeAtomicLocked(p, data, perm)
}

func (fs *FS) writeAtomicLocked(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".etcapi-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		// If the target path is a bind-mounted file, replacing it via rename
		// fails with errors like EBUSY/EXDEV. Fall back to an in-place rewrite.
		if errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.EXDEV) || errors.Is(err, syscall.EPERM) {
			fs.Log.Warn("WriteFileAtomic rename failed for %s (%v); falling back to in-place rewrite", path, err)
			return rewriteInPlace(path, data, perm)
		}
		return err
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

func rewriteInPlace(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	_ = f.Sync()
	return f.Close()
}

// CopyFile copies src over dst, keeping the permissions of src.
func (fs *FS) CopyFile(ctx context.Context, dst, src string) error {
	s, err := fs.Abs(src)
	if err != nil {
		return err
	}
	d, err := fs.Abs(dst)
	if err != nil {
		return err
	}
	if fs.Sudo.Enabled {
		name, args := fs.Sudo.SudoArgs("cp", "-f", "--preserve=mode,ownership", s, d)
		_, err := fs.runner().Run(ctx, nil, name, args...)
		return err
	}

	ms := muFor(s)
	ms.Lock()
	in, err := os.Open(s)
	if err != nil {
		ms.Unlock()
		return err
	}
	st, err := in.Stat()
	if err != nil {
		_ = in.Close()
		ms.Unlock()
		return err
	}
	data, err := io.ReadAll(in)
	_ = in.Close()
	ms.Unlock()
	if err != nil {
		return err
	}

	md := muFor(d)
	md.Lock()
	defer md.Unlock()
	return fs.writeAtomicLocked(d, data, st.Mode().Perm())
}

// Remove deletes the host file at path. A missing file is not an error.
func (fs *FS) Remove(ctx context.Context, path string) error {
	p, err := fs.Abs(path)
	if err != nil {
		return err
	}
	m := muFor(p)
	m.Lock()
	defer m.Unlock()
	if fs.Sudo.Enabled {
		name, args := fs.Sudo.SudoArgs("rm", "-f", p)
		_, err := fs.runner().Run(ctx, nil, name, args...)
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func EnsureDir(path string, perm os.FileMode) error {
	m := muFor(path)
	m.Lock()
	defer m.Unlock()
	return os.MkdirAll(path, perm)
}
