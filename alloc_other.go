//go:build !linux
// +build !linux

package memhog

// mapAlloc falls back to the heap allocator on platforms without the
// anonymous-mapping path. Allocation failure is not catchable there;
// the guarded variant degrades to unguarded behavior.
func mapAlloc(size int, fill byte) ([]byte, error) {
	return heapAlloc(size, fill)
}
