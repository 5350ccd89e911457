// Package memhog implements a memory-consuming test fixture. A Hog
// allocates fixed-size chunks in a tight loop and retains every one of
// them, so the resident memory of the process grows monotonically until
// an allocation fails or something outside the process kills it. Test
// harnesses run it to verify that their memory ceilings actually fire.
package memhog

import (
	"errors"
	"fmt"
)

// ErrOutOfMemory reports that the kernel refused an allocation. Only
// the guarded allocator can surface it; when the Go heap itself cannot
// grow, the runtime aborts the process instead of returning.
var ErrOutOfMemory = errors.New("out of memory")

// Hog owns the retention sequence. It is not safe for concurrent use;
// the fixture is single-threaded by contract.
type Hog struct {
	opts *options

	chunks [][]byte
	held   uint64
}

// New creates a hog. Without options it allocates 10 MiB heap chunks,
// unbounded and silent.
func New(opts ...Option) (*Hog, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt.apply(o); err != nil {
			return nil, err
		}
	}
	return &Hog{opts: o}, nil
}

// Step allocates one chunk and appends it to the retention sequence.
// The chunk is referenced for the rest of the process lifetime; nothing
// ever releases it.
func (h *Hog) Step() error {
	b, err := h.opts.Alloc(h.opts.ChunkSize, h.opts.FillByte)
	if err != nil {
		return fmt.Errorf("allocate chunk %d: %w", len(h.chunks), err)
	}
	h.chunks = append(h.chunks, b)
	h.held += uint64(len(b))
	h.debugf("chunk %d allocated, holding %d bytes", len(h.chunks), h.held)
	return nil
}

// Run calls Step in a loop with no sleep and no yield. Unbounded, it
// returns only when an allocation fails, which the default heap
// allocator never reports: the loop ends by external kill or by the
// runtime aborting the process.
func (h *Hog) Run() error {
	for h.opts.MaxChunks == 0 || len(h.chunks) < h.opts.MaxChunks {
		if err := h.Step(); err != nil {
			return err
		}
	}
	h.logf("chunk bound %d reached, holding %d bytes", h.opts.MaxChunks, h.held)
	return nil
}

// Chunks returns how many units the retention sequence holds.
func (h *Hog) Chunks() int {
	return len(h.chunks)
}

// HeldBytes returns the total memory retained so far.
func (h *Hog) HeldBytes() uint64 {
	return h.held
}
