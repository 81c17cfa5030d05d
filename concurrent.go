package bitcask

import "sync"

// Concurrent wraps a DB with a reader/writer lock so it can be shared
// across goroutines. Get and ListKeys take the read lock; Put, Delete,
// Merge, Sync, and Close take the write lock. DB itself stays lock-free
// for callers who already serialize access on their own.
type Concurrent struct {
	mu sync.RWMutex
	db *DB
}

// NewConcurrent wraps db for safe concurrent use. db must not be used
// directly, by any other caller, once wrapped.
func NewConcurrent(db *DB) *Concurrent {
	return &Concurrent{db: db}
}

// Put stores value under key.
func (c *Concurrent) Put(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Put(key, value)
}

// Get returns the current value stored under key.
func (c *Concurrent) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db.Get(key)
}

// Delete removes key.
func (c *Concurrent) Delete(key []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Delete(key)
}

// ListKeys returns every live key.
func (c *Concurrent) ListKeys() [][]byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db.ListKeys()
}

// Merge compacts immutable files.
func (c *Concurrent) Merge() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Merge()
}

// Sync flushes the active file.
func (c *Concurrent) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Sync()
}

// Stats returns a snapshot of the database's current size.
func (c *Concurrent) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db.Stats()
}

// Close flushes and closes the wrapped DB.
func (c *Concurrent) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}
