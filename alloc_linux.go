//go:build linux
// +build linux

package memhog

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// mapAlloc builds a chunk from an anonymous private mapping. The
// kernel's refusal surfaces as ENOMEM here, so allocation failure is a
// catchable error under address-space ceilings, unlike heap exhaustion.
// Under a cgroup ceiling the OOM killer still fires on the page touch
// below before any error can be returned.
func mapAlloc(size int, fill byte) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		if errors.Is(err, unix.ENOMEM) {
			return nil, fmt.Errorf("mmap %d bytes: %w", size, ErrOutOfMemory)
		}
		return nil, fmt.Errorf("mmap %d bytes: %w", size, err)
	}
	// fill the whole chunk so every page is resident, not just reserved
	for i := range b {
		b[i] = fill
	}
	return b, nil
}
