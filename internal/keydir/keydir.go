// Package keydir implements the in-memory hash index mapping a live key to
// the location of its most recent value on disk.
//
// Keys whose latest entry is a tombstone are considered absent by Get,
// Contains, Keys, and Len, but the tombstone itself is kept in the map,
// carrying the timestamp of the deletion. Put and Remove overwrite
// whatever entry is present; the index does not compare timestamps, so
// the order in which entries are applied decides which one wins.
package keydir

// Entry is one index entry. Tombstone discriminates a deletion marker
// from a live value, a tagged variant instead of a sentinel value
// collision.
type Entry struct {
	Tombstone bool

	// Valid only when Tombstone is false.
	FileID      uint32
	ValueOffset int64
	ValueSize   uint32

	Timestamp uint32
}

// Index is the hash index: key bytes (by value) to its latest Entry.
type Index struct {
	entries map[string]Entry
}

// New returns an empty index.
func New() *Index {
	return &Index{entries: make(map[string]Entry)}
}

// Put installs entry as the current value for key, overwriting any prior
// entry.
func (idx *Index) Put(key []byte, entry Entry) {
	idx.entries[string(key)] = entry
}

// Get returns the live entry for key. ok is false if the key has never
// been seen or its latest entry is a tombstone.
func (idx *Index) Get(key []byte) (entry Entry, ok bool) {
	e, found := idx.entries[string(key)]
	if !found || e.Tombstone {
		return Entry{}, false
	}
	return e, true
}

// Remove installs a tombstone for key at the given timestamp. The key
// remains present in the underlying map (as a tombstone), just hidden
// from Get/Contains/Keys/Len.
func (idx *Index) Remove(key []byte, timestamp uint32) {
	idx.entries[string(key)] = Entry{Tombstone: true, Timestamp: timestamp}
}

// Contains reports whether key has a live (non-tombstone) entry.
func (idx *Index) Contains(key []byte) bool {
	_, ok := idx.Get(key)
	return ok
}

// Keys returns every key with a live entry, in unspecified order.
func (idx *Index) Keys() [][]byte {
	keys := make([][]byte, 0, len(idx.entries))
	for k, e := range idx.entries {
		if e.Tombstone {
			continue
		}
		keys = append(keys, []byte(k))
	}
	return keys
}

// Len returns the number of live (non-tombstone) keys.
func (idx *Index) Len() int {
	n := 0
	for _, e := range idx.entries {
		if !e.Tombstone {
			n++
		}
	}
	return n
}

// HintEntry pairs a key with its live index entry, for hint-file export.
type HintEntry struct {
	Key   []byte
	Entry Entry
}

// ExportHints returns every live entry, for writing a hint file during
// merge.
func (idx *Index) ExportHints() []HintEntry {
	hints := make([]HintEntry, 0, len(idx.entries))
	for k, e := range idx.entries {
		if e.Tombstone {
			continue
		}
		hints = append(hints, HintEntry{Key: []byte(k), Entry: e})
	}
	return hints
}
