package bitcask

const (
	// OneMegabyte is a convenience unit for sizing MaxFileSize.
	OneMegabyte = 1024 * 1024

	// DefaultMaxFileSize is used when no WithMaxFileSize option is given.
	DefaultMaxFileSize = 64 * OneMegabyte

	// DefaultDirPerm is the permission mode used when creating the
	// database directory.
	DefaultDirPerm = 0755
)

type config struct {
	maxFileSize int64
	clock       Clock
}

func defaultConfig() *config {
	return &config{
		maxFileSize: DefaultMaxFileSize,
		clock:       systemClock{},
	}
}

// Option configures a DB at Open time.
type Option func(*config)

// WithMaxFileSize sets the size, in bytes, at which the active file is
// rotated into an immutable file and a new active file is opened.
func WithMaxFileSize(bytes int64) Option {
	return func(c *config) {
		c.maxFileSize = bytes
	}
}

// WithClock overrides the source of the current time used to timestamp
// records. Intended for tests; production callers should use the default
// system clock.
func WithClock(clock Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}
