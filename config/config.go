package config

import "time"

type (
	NET struct {
		// ReadBufferSize is a size of the buffer in bytes which will be used
		// to read from a socket.
		ReadBufferSize int
		// ReadTimeout is an opt-in idle cutoff: when non-zero, a connection
		// whose peer stays silent for this long is torn down. Zero (the
		// default) preserves the engine's original behavior, where a stalled
		// connection stays open until the peer disconnects or the handler
		// ends the response.
		ReadTimeout time.Duration
	}

	Head struct {
		// Prealloc is the initial capacity of the per-connection accumulator.
		Prealloc int
		// MaxSize limits the header section. Requests whose head grows past
		// it are answered with 400.
		MaxSize int
	}

	Body struct {
		// MaxSize bounds how many POST body bytes the engine is willing to
		// buffer before dispatching. Extra bytes are dropped, never fatal.
		MaxSize int
	}
)

// Config holds the knobs of the connection engine, mainly restrictions and
// pre-allocations. Modify defaults returned via Default() instead of
// constructing it manually.
type Config struct {
	NET  NET
	Head Head
	Body Body
}

func Default() *Config {
	return &Config{
		NET: NET{
			ReadBufferSize: 4096,
		},
		Head: Head{
			Prealloc: 1024,
			MaxSize:  64 * 1024,
		},
		Body: Body{
			MaxSize: 4 * 1024 * 1024,
		},
	}
}
