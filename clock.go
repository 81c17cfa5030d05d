package bitcask

import "time"

// Clock supplies the current time as seconds since the Unix epoch. It is
// injectable so tests can control timestamps deterministically (e.g. to
// exercise last-write-wins ordering).
type Clock interface {
	Now() uint32
}

// systemClock is the default Clock, backed by the wall clock.
type systemClock struct{}

func (systemClock) Now() uint32 {
	return uint32(time.Now().Unix())
}
