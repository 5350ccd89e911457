package memhog

// heapAlloc builds a chunk on the Go heap. It cannot fail: when the
// heap cannot grow, the runtime aborts the process with its default
// fatal behavior, which is exactly the unguarded variant's contract.
func heapAlloc(size int, fill byte) ([]byte, error) {
	b := make([]byte, size)
	for i := range b {
		b[i] = fill
	}
	return b, nil
}
