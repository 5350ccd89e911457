package memhog

import (
	"errors"
	"io"
)

// AllocFunc builds one chunk of size bytes with every byte set to fill.
// Implementations surface resource exhaustion as an error wrapping
// ErrOutOfMemory where the platform allows catching it at all.
type AllocFunc func(size int, fill byte) ([]byte, error)

type options struct {
	ChunkSize int
	FillByte  byte
	MaxChunks int // 0 means unbounded
	LogLevel  int
	Logger    io.Writer

	Alloc AllocFunc
}

type Option interface {
	apply(*options) error
}

type optionFunc func(*options) error

func (f optionFunc) apply(opts *options) error {
	return f(opts)
}

func newOptions() *options {
	return &options{
		ChunkSize: DefaultChunkSize,
		FillByte:  DefaultFillByte,
		LogLevel:  LogLevelNone,
		Logger:    io.Discard,
		Alloc:     heapAlloc,
	}
}

// WithChunkSize overrides the allocation unit size.
func WithChunkSize(n int) Option {
	return optionFunc(func(opts *options) error {
		if n <= 0 {
			return errors.New("chunk size must be positive")
		}
		opts.ChunkSize = n
		return nil
	})
}

// WithFillByte overrides the byte chunks are filled with.
func WithFillByte(b byte) Option {
	return optionFunc(func(opts *options) error {
		opts.FillByte = b
		return nil
	})
}

// WithMaxChunks bounds Run to n chunks so callers can exercise the loop
// without exhausting the host. The fixture binaries never set it: their
// loop is unbounded.
func WithMaxChunks(n int) Option {
	return optionFunc(func(opts *options) error {
		if n < 0 {
			return errors.New("max chunks must not be negative")
		}
		opts.MaxChunks = n
		return nil
	})
}

// WithGuard switches to the mapping-backed allocator whose failure mode
// is a catchable out-of-memory error. Plain heap exhaustion aborts the
// process before any error can be returned.
func WithGuard() Option {
	return optionFunc(func(opts *options) error {
		opts.Alloc = mapAlloc
		return nil
	})
}

// WithAllocFunc injects a custom allocator.
func WithAllocFunc(fn AllocFunc) Option {
	return optionFunc(func(opts *options) error {
		if fn == nil {
			return errors.New("alloc func must not be nil")
		}
		opts.Alloc = fn
		return nil
	})
}

// WithLogger directs hog logs to w.
func WithLogger(w io.Writer) Option {
	return optionFunc(func(opts *options) error {
		if w == nil {
			return errors.New("logger must not be nil")
		}
		opts.Logger = w
		return nil
	})
}

// WithLogLevel sets the log verbosity, LogLevelNone by default.
func WithLogLevel(level int) Option {
	return optionFunc(func(opts *options) error {
		opts.LogLevel = level
		return nil
	})
}
