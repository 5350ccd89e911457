//go:build linux
// +build linux

package harness

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/containerd/cgroups/v3/cgroup2"
	"golang.org/x/sys/unix"

	"github.com/fixturekit/memhog/internal/cg/cgroups"
)

func applyCeiling(mode CeilingMode, pid int, limit int64) (ceiling, error) {
	switch mode {
	case CeilingNone:
		return noopCeiling{}, nil
	case CeilingWatchdog:
		w, err := newRSSWatchdog(pid, limit)
		if err != nil {
			return nil, err
		}
		return w, nil
	case CeilingCgroup:
		c, err := newCgroupCeiling(pid, limit)
		if err != nil {
			return nil, err
		}
		return c, nil
	case CeilingAddressSpace:
		c, err := newRlimitCeiling(pid, limit)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown ceiling mode %d", mode)
}

// cgroupCeiling runs the fixture inside a dedicated cgroup2 with
// memory.max set. Whether the kernel OOM killer fired is read back
// from the group's oom_kill counter after the run.
type cgroupCeiling struct {
	manager *cgroup2.Manager
	mcg     cgroups.MemCG
	initial uint64

	peak atomic.Uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func newCgroupCeiling(pid int, limit int64) (*cgroupCeiling, error) {
	group := fmt.Sprintf("/memhog-%d-%d", pid, time.Now().UnixNano())
	resources := &cgroup2.Resources{
		Memory: &cgroup2.Memory{Max: &limit},
	}
	manager, err := cgroup2.NewManager("/sys/fs/cgroup", group, resources)
	if err != nil {
		return nil, fmt.Errorf("create cgroup: %w", err)
	}
	if err := manager.AddProc(uint64(pid)); err != nil {
		manager.Delete() // nolint: errcheck
		return nil, fmt.Errorf("add process to cgroup: %w", err)
	}

	// resolve the new group through the child's /proc view
	mcg, err := cgroups.Load(pid)
	if err != nil {
		manager.Delete() // nolint: errcheck
		return nil, err
	}

	c := &cgroupCeiling{
		manager: manager,
		mcg:     mcg,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	c.initial, _ = c.mcg.OOMKills() // nolint: errcheck
	go c.sample()
	return c, nil
}

func (c *cgroupCeiling) sample() {
	defer close(c.doneCh)

	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			usage, err := c.mcg.Usage()
			if err != nil {
				return
			}
			if u := uint64(usage); u > c.peak.Load() {
				c.peak.Store(u)
			}
		}
	}
}

func (c *cgroupCeiling) stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	<-c.doneCh
}

func (c *cgroupCeiling) tripped() bool {
	kills, err := c.mcg.OOMKills()
	if err != nil {
		return false
	}
	return kills > c.initial
}

func (c *cgroupCeiling) peakRSS() uint64 {
	return c.peak.Load()
}

func (c *cgroupCeiling) cleanup() {
	c.stop()
	if c.manager != nil {
		c.manager.Delete() // nolint: errcheck
		c.manager = nil
	}
}

// rlimitCeiling caps the child's data segment. Since Linux 4.7,
// RLIMIT_DATA covers private anonymous mappings, so the guarded
// fixture's chunks count against it and allocation fails with ENOMEM
// past the ceiling. RLIMIT_AS would also count the Go runtime's
// address-space reservations and kill the child during startup.
type rlimitCeiling struct{}

func newRlimitCeiling(pid int, limit int64) (rlimitCeiling, error) {
	rlim := &unix.Rlimit{Cur: uint64(limit), Max: uint64(limit)}
	if err := unix.Prlimit(pid, unix.RLIMIT_DATA, rlim, nil); err != nil {
		return rlimitCeiling{}, fmt.Errorf("prlimit pid %d: %w", pid, err)
	}
	return rlimitCeiling{}, nil
}

func (rlimitCeiling) stop() {}

// tripped is always false here: past this ceiling the fixture sees the
// failure in-process and reports through its own exit status.
func (rlimitCeiling) tripped() bool   { return false }
func (rlimitCeiling) peakRSS() uint64 { return 0 }
func (rlimitCeiling) cleanup()        {}
