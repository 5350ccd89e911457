// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux
// +build linux

package cgroups

import (
	"errors"
	"math"
	"path/filepath"
)

const (
	// _cgroupFSType is the cgroup v1 file system type in
	// `/proc/$PID/mountinfo`.
	_cgroupFSType = "cgroup"
	// _cgroupSubsysMemory is the memory controller name.
	_cgroupSubsysMemory = "memory"

	_cgroupMemLimitParam   = "memory.limit_in_bytes"
	_cgroupMemUsageParam   = "memory.usage_in_bytes"
	_cgroupOOMControlParam = "memory.oom_control"

	_oomKillKey = "oom_kill"
)

// _v1NoLimit is PAGE_COUNTER_MAX, the value v1 reports when no limit
// is set: MaxInt64 rounded down to the page size.
const _v1NoLimit = int64(math.MaxInt64) &^ 4095

// memCG1 reads the memory controller of a cgroup v1 hierarchy.
type memCG1 struct {
	dir string
}

func newMemCG1(mps []*MountPoint, entries map[string]*procCGroupEntry) (*memCG1, error) {
	entry, ok := entries[_cgroupSubsysMemory]
	if !ok {
		return nil, errors.New("memory controller not found in proc cgroup data")
	}
	for _, mp := range mps {
		if mp.FSType != _cgroupFSType {
			continue
		}
		for _, opt := range mp.SuperOptions {
			if opt != _cgroupSubsysMemory {
				continue
			}
			dir, err := mp.Translate(entry.Path)
			if err != nil {
				return nil, err
			}
			return &memCG1{dir: dir}, nil
		}
	}
	return nil, errors.New("memory controller mount not found")
}

func (cg *memCG1) Limit() (int64, bool, error) {
	limit, err := readInt(filepath.Join(cg.dir, _cgroupMemLimitParam))
	if err != nil {
		return -1, false, err
	}
	if limit <= 0 || limit >= _v1NoLimit {
		return -1, false, nil
	}
	return limit, true, nil
}

func (cg *memCG1) Usage() (int64, error) {
	return readInt(filepath.Join(cg.dir, _cgroupMemUsageParam))
}

// OOMKills reads the oom_kill counter from memory.oom_control; it only
// exists on 4.13+ kernels and reads as 0 elsewhere.
func (cg *memCG1) OOMKills() (uint64, error) {
	return readCounter(filepath.Join(cg.dir, _cgroupOOMControlParam), _oomKillKey)
}

func (cg *memCG1) Version() string {
	return _cgroupFSType
}
