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

// ingestDataFile replays file's live records into the index by scanning
// it directly (no hint file present). Records are applied in the file's
// append order, so a later record for a key naturally overwrites an
// earlier one.
func (db *DB) ingestDataFile(id uint32, file *logfile.File) error {
	entries, err := file.Scan()
	if err != nil {
		return fmt.Errorf("bitcask: scanning data file %d: %w", id, err)
	}

	for _, e := range entries {
		if e.ValueSize == 0 {
			db.index.Remove(e.Key, e.Timestamp)
			continue
		}
		db.index.Put(e.Key, keydir.Entry{
			FileID:      id,
			ValueOffset: e.ValueOffset,
			ValueSize:   e.ValueSize,
			Timestamp:   e.Timestamp,
		})
	}

	return nil
}

// ingestHintFile replays a hint file into the index, skipping the full
// data-file scan it summarizes. A hint file is only ever written for an
// immutable (merged) file, so every entry in it is a live value, never a
// tombstone.
//
// A truncated hint (short read partway through an entry) stops ingestion
// silently, keeping whatever was read so far. If the hint file cannot be
// parsed at all (its very first entry is malformed), this falls back to
// scanning the data file directly.
func (db *DB) ingestHintFile(id uint32, file *logfile.File) error {
	path := filepath.Join(db.dir, fsutil.HintFileName(id))

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("bitcask: reading hint file %d: %w", id, err)
	}

	var offset int
	ingested := 0

	for offset < len(raw) {
		if offset+record.HintHeaderSize > len(raw) {
			break
		}

		h, err := record.DecodeHintHeader(raw[offset : offset+record.HintHeaderSize])
		if err != nil {
			break
		}

		keyStart := offset + record.HintHeaderSize
		keyEnd := keyStart + int(h.KeySize)
		if keyEnd > len(raw) {
			break
		}
		key := raw[keyStart:keyEnd]

		db.index.Put(key, keydir.Entry{
			FileID:      id,
			ValueOffset: h.ValueOffset,
			ValueSize:   h.ValueSize,
			Timestamp:   h.Timestamp,
		})

		ingested++
		offset = keyEnd
	}

	if ingested == 0 && len(raw) > 0 {
		return db.ingestDataFile(id, file)
	}

	return nil
}
