package wal

// Options configures the WAL writer.
//
// The core's durability contract (every record flushed and fsynced before
// the call that produced it returns) is not configurable: there is no
// SyncPolicy here. Options only tunes the bufio layer sitting in front of
// the fsync, which never trades away durability.
type Options struct {
	// BufferSize sizes the bufio.Writer placed in front of the WAL file.
	BufferSize int
}

// DefaultOptions returns a sane default configuration.
func DefaultOptions() Options {
	return Options{
		BufferSize: 64 * 1024,
	}
}
