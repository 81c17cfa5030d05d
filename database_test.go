package bitcask_test

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"bitcask"

	"github.com/stretchr/testify/require"
)

// testClock hands out strictly increasing timestamps so last-write-wins
// ordering is deterministic regardless of how fast a test runs.
type testClock struct {
	n uint32
}

func (c *testClock) Now() uint32 {
	return atomic.AddUint32(&c.n, 1)
}

func openTest(t *testing.T, opts ...bitcask.Option) *bitcask.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := bitcask.Open(dir, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestScenarioBasicSetGetList(t *testing.T) {
	db := openTest(t, bitcask.WithClock(&testClock{}))

	require.NoError(t, db.Put([]byte("a"), []byte("1")))
	require.NoError(t, db.Put([]byte("b"), []byte("2")))

	v, err := db.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)

	v, err = db.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), v)

	keys := keyStrings(db.ListKeys())
	require.ElementsMatch(t, []string{"a", "b"}, keys)
}

func TestScenarioReopenLastWriteWins(t *testing.T) {
	dir := t.TempDir()

	db, err := bitcask.Open(dir, bitcask.WithClock(&testClock{}))
	require.NoError(t, err)

	require.NoError(t, db.Put([]byte("a"), []byte("1")))
	require.NoError(t, db.Put([]byte("a"), []byte("2")))
	require.NoError(t, db.Close())

	db2, err := bitcask.Open(dir, bitcask.WithClock(&testClock{}))
	require.NoError(t, err)
	defer db2.Close()

	v, err := db2.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), v)
}

func TestScenarioDeleteHidesAndSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	db, err := bitcask.Open(dir, bitcask.WithClock(&testClock{}))
	require.NoError(t, err)

	require.NoError(t, db.Put([]byte("a"), []byte("1")))
	require.NoError(t, db.Delete([]byte("a")))

	_, err = db.Get([]byte("a"))
	require.ErrorIs(t, err, bitcask.ErrKeyNotFound)
	require.NoError(t, db.Close())

	db2, err := bitcask.Open(dir, bitcask.WithClock(&testClock{}))
	require.NoError(t, err)
	defer db2.Close()

	_, err = db2.Get([]byte("a"))
	require.ErrorIs(t, err, bitcask.ErrKeyNotFound)
}

func TestScenarioDeleteThenPutRestoresAfterReopen(t *testing.T) {
	dir := t.TempDir()

	db, err := bitcask.Open(dir, bitcask.WithClock(&testClock{}))
	require.NoError(t, err)

	require.NoError(t, db.Put([]byte("a"), []byte("1")))
	require.NoError(t, db.Delete([]byte("a")))
	require.NoError(t, db.Put([]byte("a"), []byte("3")))
	require.NoError(t, db.Close())

	db2, err := bitcask.Open(dir, bitcask.WithClock(&testClock{}))
	require.NoError(t, err)
	defer db2.Close()

	v, err := db2.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("3"), v)
}

func TestScenarioRotationProducesTwoFiles(t *testing.T) {
	db := openTest(t, bitcask.WithClock(&testClock{}), bitcask.WithMaxFileSize(64))

	big := strings.Repeat("x", 40)
	require.NoError(t, db.Put([]byte("k1"), []byte(big)))
	require.NoError(t, db.Put([]byte("k2"), []byte(big)))

	v, err := db.Get([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, big, string(v))

	stats := db.Stats()
	require.Equal(t, 1, stats.ImmutableFiles)
}

func TestPutRejectsEmptyKey(t *testing.T) {
	db := openTest(t)

	err := db.Put(nil, []byte("x"))
	require.ErrorIs(t, err, bitcask.ErrInvalidArgument)
}

func TestGetMissingKeyFails(t *testing.T) {
	db := openTest(t)

	_, err := db.Get([]byte("nope"))
	require.ErrorIs(t, err, bitcask.ErrKeyNotFound)
}

func TestDeleteMissingKeyFails(t *testing.T) {
	db := openTest(t)

	err := db.Delete([]byte("nope"))
	require.ErrorIs(t, err, bitcask.ErrKeyNotFound)
}

func TestRoundTripArbitraryValues(t *testing.T) {
	db := openTest(t, bitcask.WithClock(&testClock{}))

	for i := 0; i < 50; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))
		value := []byte(strings.Repeat(fmt.Sprintf("%d", i), i+1))

		require.NoError(t, db.Put(key, value))

		got, err := db.Get(key)
		require.NoError(t, err)
		require.Equal(t, value, got)
	}
}

func TestOperationsFailAfterClose(t *testing.T) {
	db := openTest(t)
	require.NoError(t, db.Close())

	require.ErrorIs(t, db.Put([]byte("a"), []byte("1")), bitcask.ErrClosed)
	_, err := db.Get([]byte("a"))
	require.ErrorIs(t, err, bitcask.ErrClosed)
	require.ErrorIs(t, db.Delete([]byte("a")), bitcask.ErrClosed)
	require.ErrorIs(t, db.Sync(), bitcask.ErrClosed)

	// A second Close is a no-op, not an error.
	require.NoError(t, db.Close())
}

func keyStrings(keys [][]byte) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
