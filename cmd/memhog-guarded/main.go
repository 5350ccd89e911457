// The memhog-guarded command is the guarded memory-consuming fixture.
// Like memhog it allocates and retains 10 MiB chunks forever, but it
// allocates through anonymous mappings so an out-of-memory condition
// can be intercepted: on ENOMEM it writes "MemoryError caught" to
// stderr and exits with status 1. Whether that path is reachable
// depends on how the ceiling is enforced; a cgroup OOM kill lands
// before any in-process handler can run.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fixturekit/memhog"
)

func main() {
	h, err := memhog.New(memhog.WithGuard())
	if err != nil {
		panic(err)
	}
	err = h.Run()
	if errors.Is(err, memhog.ErrOutOfMemory) {
		fmt.Fprintln(os.Stderr, memhog.OOMDiagnostic)
		os.Exit(memhog.OOMExitCode)
	}
	// any other failure propagates with default crash behavior
	if err != nil {
		panic(err)
	}
}
