package dirlock_test

import (
	"testing"

	"bitcask/internal/dirlock"
)

func TestLock(t *testing.T) {
	t.Run("second holder is rejected while the lock is active", func(t *testing.T) {
		dir := t.TempDir()

		f, err := dirlock.Lock(dir)
		if err != nil {
			t.Fatal("Could not acquire initial lock")
		}

		if _, err := dirlock.Lock(dir); err == nil {
			t.Error("second lock attempt was not supposed to succeed")
		}

		dirlock.Unlock(f)
	})

	t.Run("lock can be reacquired once released", func(t *testing.T) {
		dir := t.TempDir()

		f, err := dirlock.Lock(dir)
		if err != nil {
			t.Fatal("lock was supposed to succeed")
		}
		dirlock.Unlock(f)

		f2, err := dirlock.Lock(dir)
		if err != nil {
			t.Error("lock was supposed to succeed after release")
		}
		dirlock.Unlock(f2)
	})
}
