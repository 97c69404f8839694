package replay

import "time"

// Config is the replay server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "127.0.0.1:9900")
	ListenAddr string

	// Prefix is the path the stream routes are mounted under, matching the
	// path of the API base the client is configured with (e.g., "/api").
	Prefix string

	// ChunkSize is the number of trace bytes written per chunk. Zero writes
	// the whole trace at once.
	ChunkSize int

	// Delay is the pause before each chunk.
	Delay time.Duration
}
