package memhog

import (
	"fmt"
	"time"
)

func (h *Hog) logf(pattern string, args ...interface{}) {
	if h.opts.LogLevel >= LogLevelInfo {
		h.write(pattern, args...)
	}
}

func (h *Hog) debugf(pattern string, args ...interface{}) {
	if h.opts.LogLevel >= LogLevelDebug {
		h.write(pattern, args...)
	}
}

func (h *Hog) write(pattern string, args ...interface{}) {
	timestamp := "[" + time.Now().Format("2006-01-02 15:04:05.000") + "]"
	fmt.Fprintf(h.opts.Logger, timestamp+pattern+"\n", args...)
}
