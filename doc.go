// Package bitcask implements an embeddable, single-writer, persistent
// key-value store on the Bitcask model: an append-only log of records
// plus an in-memory index mapping each live key to the location of its
// latest value.
//
// A DB is opened directly on a directory and used in-process; it is not
// a server and exposes no network surface. Callers sharing a DB across
// goroutines should wrap it in a Concurrent.
//
// Example:
//
//	db, err := bitcask.Open("/var/lib/mystore")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	err = db.Put([]byte("foo"), []byte("bar"))
//	val, err := db.Get([]byte("foo"))
package bitcask
