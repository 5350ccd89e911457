//go:build linux
// +build linux

package memhog

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAllocFillsChunk(t *testing.T) {
	size := 4 * os.Getpagesize()
	b, err := mapAlloc(size, 'x')
	require.NoError(t, err)
	require.Len(t, b, size)

	for i := 0; i < size; i += os.Getpagesize() {
		assert.Equal(t, byte('x'), b[i])
	}
	assert.Equal(t, byte('x'), b[size-1])
}
