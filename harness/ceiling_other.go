//go:build !linux
// +build !linux

package harness

import "fmt"

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
	case CeilingCgroup, CeilingAddressSpace:
		return nil, fmt.Errorf("ceiling mode %d requires linux", mode)
	}
	return nil, fmt.Errorf("unknown ceiling mode %d", mode)
}
