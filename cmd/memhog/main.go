// The memhog command is the unguarded memory-consuming fixture: it
// allocates 10 MiB chunks forever and retains all of them. It takes no
// arguments and recognizes no configuration. It never exits on its own;
// heap exhaustion aborts the process with the runtime's default fatal
// behavior, and anything gentler has to come from outside.
package main

import "github.com/fixturekit/memhog"

func main() {
	h, err := memhog.New()
	if err != nil {
		panic(err)
	}
	if err := h.Run(); err != nil {
		panic(err)
	}
}
