//go:build windows

package dirlock

import (
	"fmt"
	"os"
	"path/filepath"
)

// Lock attempts to acquire an exclusive lock on dir using a lock file.
//
// On Windows this is implemented by atomically creating a file named
// "LOCK" inside the directory. If the file already exists, the directory
// is assumed to be in use by another Bitcask instance.
//
// The returned file handle must be kept open for the duration of the lock.
func Lock(dir string) (*os.File, error) {
	lockFilePath := filepath.Join(dir, "LOCK")

	f, err := os.OpenFile(lockFilePath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("dirlock: directory %q already in use by another bitcask instance", dir)
	}

	return f, nil
}

// Unlock releases a directory lock acquired via Lock.
//
// On Windows this removes the lock file from disk. Unlock should be
// called exactly once for each successful Lock call.
func Unlock(f *os.File) {
	name := f.Name()
	f.Close()
	os.Remove(name)
}
