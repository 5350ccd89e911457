package harness

import (
	"fmt"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/process"
)

const watchdogInterval = 20 * time.Millisecond

// rssWatchdog is the unprivileged ceiling: it polls the child's
// resident set size and kills the whole process group once the limit
// is crossed. Between polls the child can overshoot the limit, so the
// ceiling is approximate; the cgroup mode is the exact one.
type rssWatchdog struct {
	pid   int
	limit uint64

	peak   atomic.Uint64
	killed atomic.Bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func newRSSWatchdog(pid int, limit int64) (*rssWatchdog, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("attach to pid %d: %w", pid, err)
	}
	w := &rssWatchdog{
		pid:    pid,
		limit:  uint64(limit),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go w.loop(p)
	return w, nil
}

func (w *rssWatchdog) loop(p *process.Process) {
	defer close(w.doneCh)

	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			mem, err := p.MemoryInfo()
			if err != nil {
				// process gone
				return
			}
			if mem.RSS > w.peak.Load() {
				w.peak.Store(mem.RSS)
			}
			if mem.RSS > w.limit {
				w.killed.Store(true)
				syscall.Kill(-w.pid, syscall.SIGKILL) // nolint: errcheck
				return
			}
		}
	}
}

func (w *rssWatchdog) stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

func (w *rssWatchdog) tripped() bool {
	return w.killed.Load()
}

func (w *rssWatchdog) peakRSS() uint64 {
	return w.peak.Load()
}

func (w *rssWatchdog) cleanup() {
	w.stop()
}
