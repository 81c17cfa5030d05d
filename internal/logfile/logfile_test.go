package logfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"bitcask/internal/fsutil"
	"bitcask/internal/logfile"
	"bitcask/internal/record"

	"github.com/stretchr/testify/require"
)

func TestAppendAndReadValue(t *testing.T) {
	dir := t.TempDir()

	f, err := logfile.Open(dir, 0, true)
	require.NoError(t, err)
	defer f.Close()

	offset, err := f.Append([]byte("a"), []byte("hello"), 100)
	require.NoError(t, err)
	require.Equal(t, int64(record.HeaderSize+1), offset)

	value, err := f.ReadValue(offset, 5)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), value)
}

func TestAppendOnReadOnlyFileFails(t *testing.T) {
	dir := t.TempDir()

	writable, err := logfile.Open(dir, 0, true)
	require.NoError(t, err)
	writable.Close()

	readOnly, err := logfile.Open(dir, 0, false)
	require.NoError(t, err)
	defer readOnly.Close()

	_, err = readOnly.Append([]byte("a"), []byte("b"), 1)
	require.ErrorIs(t, err, logfile.ErrReadOnly)
}

func TestScanRecoversAllRecordsInOrder(t *testing.T) {
	dir := t.TempDir()

	f, err := logfile.Open(dir, 0, true)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Append([]byte("a"), []byte("1"), 10)
	require.NoError(t, err)
	_, err = f.Append([]byte("b"), []byte("2"), 11)
	require.NoError(t, err)
	_, err = f.Append([]byte("a"), []byte("3"), 12)
	require.NoError(t, err)

	entries, err := f.Scan()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, []byte("a"), entries[0].Key)
	require.Equal(t, []byte("b"), entries[1].Key)
	require.Equal(t, []byte("a"), entries[2].Key)
	require.Equal(t, uint32(12), entries[2].Timestamp)
}

func TestScanStopsAtTornTail(t *testing.T) {
	dir := t.TempDir()

	f, err := logfile.Open(dir, 0, true)
	require.NoError(t, err)

	_, err = f.Append([]byte("a"), []byte("1"), 10)
	require.NoError(t, err)
	lastOffset, err := f.Append([]byte("b"), []byte("hello"), 11)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Truncate off the tail of the last record, simulating a crash
	// mid-append.
	path := filepath.Join(dir, fsutil.DataFileName(0))
	require.NoError(t, os.Truncate(path, lastOffset+2))

	f2, err := logfile.Open(dir, 0, true)
	require.NoError(t, err)
	defer f2.Close()

	entries, err := f2.Scan()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, []byte("a"), entries[0].Key)
}

func TestScanStopsAtBitFlip(t *testing.T) {
	dir := t.TempDir()

	f, err := logfile.Open(dir, 0, true)
	require.NoError(t, err)

	_, err = f.Append([]byte("a"), []byte("1"), 10)
	require.NoError(t, err)
	valueOffset, err := f.Append([]byte("b"), []byte("2"), 11)
	require.NoError(t, err)
	_, err = f.Append([]byte("c"), []byte("3"), 12)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	path := filepath.Join(dir, fsutil.DataFileName(0))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[valueOffset] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0644))

	f2, err := logfile.Open(dir, 0, true)
	require.NoError(t, err)
	defer f2.Close()

	entries, err := f2.Scan()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, []byte("a"), entries[0].Key)
}

func TestSizeGrowsWithAppends(t *testing.T) {
	dir := t.TempDir()

	f, err := logfile.Open(dir, 0, true)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, int64(0), f.Size())

	_, err = f.Append([]byte("k"), []byte("v"), 1)
	require.NoError(t, err)
	require.Equal(t, int64(record.HeaderSize+2), f.Size())
}
