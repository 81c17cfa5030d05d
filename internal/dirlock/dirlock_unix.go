//go:build unix

// Package dirlock guards a Bitcask database directory against a second
// process opening it concurrently. The engine itself is single-writer by
// design; this is the directory-level lock a wrapper needs for
// multi-process safety.
package dirlock

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Lock attempts to acquire an exclusive, non-blocking advisory lock on dir
// using a "LOCK" file inside it.
//
// On Unix systems this uses flock(2). If the lock cannot be acquired, the
// directory is assumed to be in use by another Bitcask instance.
//
// The returned file handle must remain open for the duration of the lock.
func Lock(dir string) (*os.File, error) {
	lockFilePath := filepath.Join(dir, "LOCK")

	f, err := os.OpenFile(lockFilePath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("dirlock: unable to open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("dirlock: directory %q already in use by another bitcask instance", dir)
	}

	return f, nil
}

// Unlock releases a directory lock acquired via Lock.
func Unlock(f *os.File) {
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
	f.Close()
}
