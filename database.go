package bitcask

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"bitcask/internal/dirlock"
	"bitcask/internal/fsutil"
	"bitcask/internal/keydir"
	"bitcask/internal/logfile"
)

// DB is one open Bitcask database: one active file, zero or more
// immutable files, and the in-memory index built from them at Open time.
//
// DB holds no internal lock: it is single-threaded cooperative, and
// every exported method here assumes exclusive use by its caller.
type DB struct {
	dir         string
	maxFileSize int64
	clock       Clock

	index      *keydir.Index
	active     *logfile.File
	immutable  map[uint32]*logfile.File
	nextFileID uint32

	lockFile *os.File
	closed   bool
}

// Open opens (creating if necessary) the Bitcask database rooted at dir.
//
// Recovery replays every existing data file in ascending file-id order:
// a data file with a matching hint file is recovered from the hint;
// otherwise the data file itself is scanned, tolerating a torn tail left
// by a crash mid-append. The file with the greatest id becomes the
// writable active file; everything else is attached read-only.
func Open(dir string, opts ...Option) (*DB, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if !fsutil.PathExists(dir) {
		fmt.Println("bitcask: database directory does not exist, creating:", dir)
	}
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("bitcask: opening directory %q: %w", dir, err)
	}

	// A crash mid-merge can leave scratch files behind; they are always
	// safe to discard since nothing durable references them yet.
	os.RemoveAll(filepath.Join(dir, mergeDirName))

	lockFile, err := dirlock.Lock(dir)
	if err != nil {
		fmt.Println("bitcask: failed to acquire directory lock:", err)
		return nil, err
	}

	db := &DB{
		dir:         dir,
		maxFileSize: cfg.maxFileSize,
		clock:       cfg.clock,
		index:       keydir.New(),
		immutable:   make(map[uint32]*logfile.File),
		lockFile:    lockFile,
	}

	if err := db.recover(); err != nil {
		dirlock.Unlock(lockFile)
		return nil, err
	}

	return db, nil
}

// recover enumerates the data files in dir, replays each in ascending id
// order into the index, and attaches the highest-id file as active.
func (db *DB) recover() error {
	entries, err := os.ReadDir(db.dir)
	if err != nil {
		return fmt.Errorf("bitcask: scanning directory %q: %w", db.dir, err)
	}

	var dataIDs []uint32
	hintIDs := make(map[uint32]bool)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if id, ok := fsutil.ParseDataFileID(name); ok {
			dataIDs = append(dataIDs, id)
			continue
		}
		if id, ok := fsutil.ParseHintFileID(name); ok {
			hintIDs[id] = true
		}
	}

	sort.Slice(dataIDs, func(i, j int) bool { return dataIDs[i] < dataIDs[j] })

	if len(dataIDs) == 0 {
		active, err := logfile.Open(db.dir, 0, true)
		if err != nil {
			return fmt.Errorf("bitcask: creating initial data file: %w", err)
		}
		db.active = active
		db.nextFileID = 1
		return nil
	}

	maxID := dataIDs[len(dataIDs)-1]

	for _, id := range dataIDs {
		isActive := id == maxID

		file, err := logfile.Open(db.dir, id, isActive)
		if err != nil {
			return fmt.Errorf("bitcask: opening data file %d: %w", id, err)
		}

		if hintIDs[id] {
			if err := db.ingestHintFile(id, file); err != nil {
				return err
			}
		} else if err := db.ingestDataFile(id, file); err != nil {
			return err
		}

		if isActive {
			db.active = file
		} else {
			db.immutable[id] = file
		}
	}

	db.nextFileID = maxID + 1

	return nil
}

// fileForID returns the open File handle for fileID, whether that is the
// active file or one of the immutable ones.
func (db *DB) fileForID(fileID uint32) (*logfile.File, bool) {
	if db.active != nil && db.active.ID() == fileID {
		return db.active, true
	}
	f, ok := db.immutable[fileID]
	return f, ok
}

// Put stores value under key, replacing any prior value.
func (db *DB) Put(key, value []byte) error {
	if db.closed {
		return ErrClosed
	}
	if len(key) == 0 {
		return fmt.Errorf("%w: key must not be empty", ErrInvalidArgument)
	}

	ts := db.clock.Now()

	offset, err := db.active.Append(key, value, ts)
	if err != nil {
		return fmt.Errorf("bitcask: appending record: %w", err)
	}

	db.index.Put(key, keydir.Entry{
		FileID:      db.active.ID(),
		ValueOffset: offset,
		ValueSize:   uint32(len(value)),
		Timestamp:   ts,
	})

	return db.rotateIfNeeded()
}

// Get returns the current value stored under key.
func (db *DB) Get(key []byte) ([]byte, error) {
	if db.closed {
		return nil, ErrClosed
	}

	entry, ok := db.index.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}

	return db.readEntry(entry)
}

func (db *DB) readEntry(entry keydir.Entry) ([]byte, error) {
	f, ok := db.fileForID(entry.FileID)
	if !ok {
		return nil, fmt.Errorf("bitcask: index refers to unknown file %d", entry.FileID)
	}

	value, err := f.ReadValue(entry.ValueOffset, entry.ValueSize)
	if err != nil {
		return nil, fmt.Errorf("bitcask: reading value: %w", err)
	}

	return value, nil
}

// Delete removes key. The tombstone record it writes remains on disk
// until the next Merge.
func (db *DB) Delete(key []byte) error {
	if db.closed {
		return ErrClosed
	}
	if !db.index.Contains(key) {
		return ErrKeyNotFound
	}

	ts := db.clock.Now()

	if _, err := db.active.Append(key, nil, ts); err != nil {
		return fmt.Errorf("bitcask: appending tombstone: %w", err)
	}

	db.index.Remove(key, ts)

	return db.rotateIfNeeded()
}

// ListKeys returns every live key, in unspecified order. The returned
// slice is a snapshot; mutating it does not affect the database.
func (db *DB) ListKeys() [][]byte {
	return db.index.Keys()
}

// Stats reports cheap, derived information about the database's current
// state — useful for an embedder deciding when to call Merge.
type Stats struct {
	KeyCount       int
	ImmutableFiles int
	ActiveFileSize int64
}

// Stats returns a snapshot of the database's current size.
func (db *DB) Stats() Stats {
	return Stats{
		KeyCount:       db.index.Len(),
		ImmutableFiles: len(db.immutable),
		ActiveFileSize: db.active.Size(),
	}
}

// Sync commits the active file's contents to stable storage (fsync).
func (db *DB) Sync() error {
	if db.closed {
		return ErrClosed
	}
	return db.active.Sync()
}

// Close flushes and closes every open file and releases the directory
// lock.
func (db *DB) Close() error {
	if db.closed {
		return nil
	}
	db.closed = true

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if db.active != nil {
		record(db.active.Sync())
		record(db.active.Close())
	}
	for _, f := range db.immutable {
		record(f.Close())
	}

	dirlock.Unlock(db.lockFile)

	return firstErr
}

// rotateIfNeeded closes the active file and opens a fresh one once the
// active file reaches maxFileSize.
func (db *DB) rotateIfNeeded() error {
	if db.active.Size() < db.maxFileSize {
		return nil
	}

	oldID := db.active.ID()

	if err := db.active.Sync(); err != nil {
		return fmt.Errorf("bitcask: syncing active file before rotation: %w", err)
	}
	if err := db.active.Close(); err != nil {
		return fmt.Errorf("bitcask: closing active file before rotation: %w", err)
	}

	immutable, err := logfile.Open(db.dir, oldID, false)
	if err != nil {
		return fmt.Errorf("bitcask: reopening rotated file %d read-only: %w", oldID, err)
	}
	db.immutable[oldID] = immutable

	newActive, err := logfile.Open(db.dir, db.nextFileID, true)
	if err != nil {
		return fmt.Errorf("bitcask: opening new active file %d: %w", db.nextFileID, err)
	}
	fmt.Printf("bitcask: rotated active file %d -> %d\n", oldID, db.nextFileID)
	db.active = newActive
	db.nextFileID++

	return nil
}
