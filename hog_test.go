package memhog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepGrowsRetention(t *testing.T) {
	h, err := New(WithChunkSize(64 * 1024))
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		require.NoError(t, h.Step())
		assert.Equal(t, i, h.Chunks())
		assert.Equal(t, uint64(i*64*1024), h.HeldBytes())
	}
}

func TestChunkContentIsRepeatedFillByte(t *testing.T) {
	b, err := heapAlloc(4096, DefaultFillByte)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{'x'}, 4096), b)
}

func TestRunStopsAtChunkBound(t *testing.T) {
	h, err := New(WithChunkSize(4096), WithMaxChunks(8))
	require.NoError(t, err)

	require.NoError(t, h.Run())
	assert.Equal(t, 8, h.Chunks())
	assert.Equal(t, uint64(8*4096), h.HeldBytes())
}

func TestRunSurfacesAllocationFailure(t *testing.T) {
	calls := 0
	failing := func(size int, fill byte) ([]byte, error) {
		if calls >= 3 {
			return nil, fmt.Errorf("mmap %d bytes: %w", size, ErrOutOfMemory)
		}
		calls++
		return heapAlloc(size, fill)
	}

	h, err := New(WithChunkSize(4096), WithAllocFunc(failing))
	require.NoError(t, err)

	err = h.Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfMemory))
	// the three successful chunks stay retained
	assert.Equal(t, 3, h.Chunks())
}

func TestDefaults(t *testing.T) {
	opts := newOptions()
	assert.Equal(t, DefaultChunkSize, opts.ChunkSize)
	assert.Equal(t, byte(DefaultFillByte), opts.FillByte)
	assert.Equal(t, 0, opts.MaxChunks)
	assert.Equal(t, LogLevelNone, opts.LogLevel)
	assert.Equal(t, io.Discard, opts.Logger)
}

func TestOptionValidation(t *testing.T) {
	for name, opt := range map[string]Option{
		"zero chunk size":     WithChunkSize(0),
		"negative chunk size": WithChunkSize(-1),
		"negative max chunks": WithMaxChunks(-1),
		"nil alloc func":      WithAllocFunc(nil),
		"nil logger":          WithLogger(nil),
	} {
		if _, err := New(opt); err == nil {
			t.Errorf("New(%s): expected error", name)
		}
	}
}

func TestWithFillByte(t *testing.T) {
	h, err := New(WithChunkSize(1024), WithFillByte('z'))
	require.NoError(t, err)
	require.NoError(t, h.Step())
	assert.Equal(t, bytes.Repeat([]byte{'z'}, 1024), h.chunks[0])
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	h, err := New(
		WithChunkSize(1024),
		WithMaxChunks(1),
		WithLogger(&buf),
		WithLogLevel(LogLevelDebug),
	)
	require.NoError(t, err)

	require.NoError(t, h.Run())
	assert.Contains(t, buf.String(), "chunk 1 allocated")
	assert.Contains(t, buf.String(), "chunk bound 1 reached")
}

func TestSilentByDefault(t *testing.T) {
	var buf bytes.Buffer
	h, err := New(WithChunkSize(1024), WithMaxChunks(2), WithLogger(&buf))
	require.NoError(t, err)

	require.NoError(t, h.Run())
	assert.Empty(t, buf.String())
}
