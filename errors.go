package bitcask

import (
	"errors"

	"bitcask/internal/logfile"
	"bitcask/internal/record"
)

var (
	// ErrInvalidArgument is returned for a malformed call, such as Put
	// with an empty key.
	ErrInvalidArgument = errors.New("bitcask: invalid argument")

	// ErrKeyNotFound is returned by Get and Delete for a key that is
	// absent or whose latest record is a tombstone.
	ErrKeyNotFound = errors.New("bitcask: key not found")

	// ErrCorruptRecord is the record codec's error for a header shorter
	// than its fixed size. The recovery scan does not return it: a record
	// that is short or fails its CRC check ends the scan of its file, and
	// that record and everything after it are ignored.
	ErrCorruptRecord = record.ErrCorruptRecord

	// ErrReadOnly is returned when a write is attempted against a file
	// that is not the active file. This should not surface to callers of
	// DB; it indicates an internal invariant violation if it does.
	ErrReadOnly = logfile.ErrReadOnly

	// ErrClosed is returned by any operation performed on a DB after
	// Close has been called.
	ErrClosed = errors.New("bitcask: database is closed")
)
