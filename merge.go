package bitcask

import (
	"fmt"
	"os"
	"path/filepath"

	"bitcask/internal/fsutil"
	"bitcask/internal/keydir"
	"bitcask/internal/logfile"
	"bitcask/internal/record"
)

// mergeDirName is the scratch subdirectory merge writes new files into
// before they are renamed into place.
const mergeDirName = ".merge"

// Merge compacts every immutable file: for each immutable file with at
// least one live key, a fresh file is written containing only the
// current value of each of its live keys; the active file is never
// rewritten.
//
// New files are moved into the main directory before any old file is
// deleted — their ids never collide with the ids being replaced. A crash
// before the moves leaves only the old files; a crash after the moves
// and before the deletes finish leaves both old and new copies; no point
// leaves a merged key with neither copy on disk.
func (db *DB) Merge() error {
	if db.closed {
		return ErrClosed
	}

	if len(db.immutable) == 0 {
		return nil
	}

	groups := make(map[uint32][]keydir.HintEntry)
	for _, h := range db.index.ExportHints() {
		if h.Entry.FileID == db.active.ID() {
			continue
		}
		groups[h.Entry.FileID] = append(groups[h.Entry.FileID], h)
	}

	oldIDs := make([]uint32, 0, len(db.immutable))
	for id := range db.immutable {
		oldIDs = append(oldIDs, id)
	}

	if len(oldIDs) == 0 {
		return nil
	}

	scratchDir := filepath.Join(db.dir, mergeDirName)
	if err := fsutil.EnsureDir(scratchDir); err != nil {
		return fmt.Errorf("bitcask: creating merge scratch directory: %w", err)
	}
	defer os.RemoveAll(scratchDir)

	type mergedFile struct {
		sourceID uint32
		newID    uint32
		updates  []keydir.HintEntry
	}
	var merged []mergedFile

	for _, sourceID := range oldIDs {
		live := groups[sourceID]
		if len(live) == 0 {
			continue
		}

		newID := db.nextFileID
		db.nextFileID++

		mf, err := logfile.Open(scratchDir, newID, true)
		if err != nil {
			return fmt.Errorf("bitcask: creating merged file %d: %w", newID, err)
		}

		updates := make([]keydir.HintEntry, 0, len(live))
		var hintEntries []hintToWrite

		for _, h := range live {
			value, err := db.readEntry(h.Entry)
			if err != nil {
				mf.Close()
				return fmt.Errorf("bitcask: reading live value during merge: %w", err)
			}

			newOffset, err := mf.Append(h.Key, value, h.Entry.Timestamp)
			if err != nil {
				mf.Close()
				return fmt.Errorf("bitcask: writing merged record: %w", err)
			}

			newEntry := keydir.Entry{
				FileID:      newID,
				ValueOffset: newOffset,
				ValueSize:   uint32(len(value)),
				Timestamp:   h.Entry.Timestamp,
			}
			updates = append(updates, keydir.HintEntry{Key: h.Key, Entry: newEntry})
			hintEntries = append(hintEntries, hintToWrite{key: h.Key, entry: newEntry})
		}

		if err := mf.Sync(); err != nil {
			mf.Close()
			return fmt.Errorf("bitcask: syncing merged file %d: %w", newID, err)
		}
		if err := mf.Close(); err != nil {
			return fmt.Errorf("bitcask: closing merged file %d: %w", newID, err)
		}

		if err := writeHintFile(scratchDir, newID, hintEntries); err != nil {
			return fmt.Errorf("bitcask: writing hint file for merged file %d: %w", newID, err)
		}

		merged = append(merged, mergedFile{sourceID: sourceID, newID: newID, updates: updates})
	}

	// Move every merged file and its hint into the main directory first.
	for _, mf := range merged {
		if err := os.Rename(
			filepath.Join(scratchDir, fsutil.DataFileName(mf.newID)),
			filepath.Join(db.dir, fsutil.DataFileName(mf.newID)),
		); err != nil {
			return fmt.Errorf("bitcask: moving merged file %d into place: %w", mf.newID, err)
		}
		if err := os.Rename(
			filepath.Join(scratchDir, fsutil.HintFileName(mf.newID)),
			filepath.Join(db.dir, fsutil.HintFileName(mf.newID)),
		); err != nil {
			return fmt.Errorf("bitcask: moving merged hint %d into place: %w", mf.newID, err)
		}
	}

	// Only now delete the old, now-fully-superseded immutable files.
	for _, oldID := range oldIDs {
		f := db.immutable[oldID]
		delete(db.immutable, oldID)
		f.Close()

		os.Remove(filepath.Join(db.dir, fsutil.DataFileName(oldID)))
		os.Remove(filepath.Join(db.dir, fsutil.HintFileName(oldID)))
	}

	// Attach the new merged files as immutable and repoint the index at
	// their fresh locations.
	for _, mf := range merged {
		newHandle, err := logfile.Open(db.dir, mf.newID, false)
		if err != nil {
			return fmt.Errorf("bitcask: reopening merged file %d read-only: %w", mf.newID, err)
		}
		db.immutable[mf.newID] = newHandle

		for _, u := range mf.updates {
			db.index.Put(u.Key, u.Entry)
		}
	}

	fmt.Printf("bitcask: merge compacted %d file(s) into %d\n", len(oldIDs), len(merged))

	return nil
}

type hintToWrite struct {
	key   []byte
	entry keydir.Entry
}

// writeHintFile writes a hint file summarizing entries alongside the
// merged data file id in dir.
func writeHintFile(dir string, id uint32, entries []hintToWrite) error {
	f, err := os.OpenFile(
		filepath.Join(dir, fsutil.HintFileName(id)),
		os.O_CREATE|os.O_WRONLY|os.O_TRUNC,
		0644,
	)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, e := range entries {
		buf := record.EncodeHint(e.entry.Timestamp, e.entry.ValueOffset, e.key, e.entry.ValueSize)
		if _, err := f.Write(buf); err != nil {
			return err
		}
	}

	return f.Sync()
}
