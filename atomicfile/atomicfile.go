// Package atomicfile writes files so that readers never observe a partial
// write, serialising writers across processes with an advisory lock.
package atomicfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockPath returns the lock file used for path.
func LockPath(path string) string {
	return path + ".lock"
}

// Write replaces path with data via a temp file in the same directory and a rename.
// Missing parent directories are created.
func Write(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}
	committed = true
	return nil
}

// LockedWrite holds the lock of path while writing it.
func LockedWrite(path string, data []byte, perm fs.FileMode) error {
	return withLock(path, func() error {
		return Write(path, data, perm)
	})
}

// Update reads path, passes its content to fn (nil when the file does not
// exist) and writes the result, all under the lock of path. If fn returns an
// error nothing is written.
func Update(path string, perm fs.FileMode, fn func(current []byte) ([]byte, error)) error {
	return withLock(path, func() error {
		current, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		return Write(path, next, perm)
	})
}

func withLock(path string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	lock := flock.New(LockPath(path))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquiring lock on %s: %w", lock.Path(), err)
	}
	defer lock.Unlock()
	return fn()
}
